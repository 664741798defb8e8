package notifications

import "context"

// Filter narrows a FindMany query. Zero values mean "no constraint".
type Filter struct {
	UserID string // UserID restricts results to one recipient.
	IsRead *bool  // IsRead filters on read state when non-nil.
}

// Storage handles persistence of notification and template records. All
// implementations wrap backend failures with ErrStorage so callers can
// distinguish infrastructure errors from NotFound.
type Storage interface {
	// Create stores a new notification. The caller assigns the id.
	Create(ctx context.Context, notif Notification) error

	// FindByID retrieves a single notification, or ErrNotificationNotFound.
	FindByID(ctx context.Context, id string) (*Notification, error)

	// FindMany returns notifications matching the filter, newest first.
	FindMany(ctx context.Context, filter Filter) ([]Notification, error)

	// MarkRead sets the read timestamp to the current time and returns the
	// updated record. Marking an already-read notification is an idempotent
	// no-op that keeps the original timestamp. Returns
	// ErrNotificationNotFound for unknown ids.
	MarkRead(ctx context.Context, id string) (*Notification, error)

	// Delete removes a notification. Backends that silently no-op on a
	// missing id must surface ErrNotificationNotFound instead.
	Delete(ctx context.Context, id string) error

	// CountUnread returns the number of records for the recipient with no
	// read timestamp.
	CountUnread(ctx context.Context, userID string) (int, error)

	// FindTemplateByID retrieves a template, or ErrTemplateNotFound.
	FindTemplateByID(ctx context.Context, id int) (*Template, error)

	// CreateTemplate stores a template definition. Used by administrative
	// seeding only.
	CreateTemplate(ctx context.Context, tpl Template) error
}
