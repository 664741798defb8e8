package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the recipient identifier under the key "user_id".
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// NotificationID records the notification identifier under the key "notification_id".
func NotificationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("notification_id", id)
}

// TemplateID records a notification template identifier under the key "template_id".
func TemplateID(id int) slog.Attr {
	return slog.Int("template_id", id)
}

// Room records a fan-out room name under the key "room".
func Room(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("room", name)
}

// Event records a fan-out event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Channel records the delivery channel under the key "channel".
func Channel(ch string) slog.Attr {
	return slog.String("channel", ch)
}

// Component records the emitting component under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
