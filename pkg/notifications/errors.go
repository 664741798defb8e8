package notifications

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification id has no record.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrTemplateNotFound is returned when a template id is not in the catalog.
	ErrTemplateNotFound = errors.New("notification template not found")

	// ErrNoRecipients is returned for delivery requests with an empty recipient list.
	ErrNoRecipients = errors.New("recipients must be a non-empty list")

	// ErrInvalidChannel is returned when the requested channel is not one of
	// the enumerated delivery media.
	ErrInvalidChannel = errors.New("invalid notification channel")

	// ErrMissingID is returned when a lookup-by-id operation gets a blank id.
	ErrMissingID = errors.New("notification id is required")

	// ErrFanoutUnavailable is returned when the live delivery transport is
	// not available at request start. Nothing is persisted in that case.
	ErrFanoutUnavailable = errors.New("fanout transport unavailable")

	// ErrStorage wraps backend persistence failures.
	ErrStorage = errors.New("notification storage error")
)
