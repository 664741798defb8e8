package email

import (
	"context"
	"fmt"
	"html"

	"github.com/fieldops/notify/pkg/notifications"
)

// NotificationSender adapts a Sender to the notification delivery pipeline:
// it renders a persisted notification into a minimal HTML email.
type NotificationSender struct {
	sender Sender
}

// NewNotificationSender wraps sender for use as a notification side channel.
func NewNotificationSender(sender Sender) *NotificationSender {
	return &NotificationSender{sender: sender}
}

// Send implements the delivery pipeline's email hook.
func (n *NotificationSender) Send(ctx context.Context, to string, notif notifications.Notification) error {
	return n.sender.SendEmail(ctx, Message{
		To:       to,
		Subject:  notif.Title,
		BodyHTML: renderNotificationHTML(notif),
		Tag:      "notification",
	})
}

func renderNotificationHTML(notif notifications.Notification) string {
	return fmt.Sprintf(
		"<html><body><h2>%s</h2><p>%s</p></body></html>",
		html.EscapeString(notif.Title),
		html.EscapeString(notif.Body),
	)
}
