// Package notifications is the HTTP surface of the notification service.
//
// It mounts a REST API for batch delivery, listing, read-state updates and
// deletion, plus an SSE endpoint that streams newNotification events to the
// connected user's room. Every response uses a uniform
// {success, message, data} envelope.
package notifications
