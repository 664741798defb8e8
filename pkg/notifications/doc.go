// Package notifications implements durable user notifications: template
// rendering, persistence with read/unread state, and batch delivery that
// fans freshly created records out to connected clients.
//
// The package separates three concerns. Storage is the persistence
// contract with Postgres, MongoDB and in-memory implementations. Render
// expands {{placeholder}} templates against request data. Service ties them
// together with a fan-out hub and a recipient directory: one request, many
// recipients, each processed independently.
//
//	store := notifications.NewMemoryStorage()
//	svc := notifications.NewService(store, hub,
//		notifications.WithResolver(dir),
//	)
//
//	result, err := svc.Deliver(ctx, notifications.DeliverRequest{
//		Recipients: []string{"user-1", "user-2"},
//		TemplateID: notifications.TemplateWorkOrderCompleted,
//		Data:       map[string]any{"woCode": "WO-1042"},
//	})
//
// Persistence is the source of truth: a notification that was stored but
// not emitted is still delivered, the client simply sees it on the next
// list call instead of as a live event.
package notifications
