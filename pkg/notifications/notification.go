package notifications

import (
	"time"
)

// Channel classifies the delivery medium of a notification. This is the
// entity attribute, distinct from the pub/sub transport channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// Valid reports whether c is one of the enumerated channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelPush, ChannelSMS, ChannelInApp:
		return true
	}
	return false
}

// Status is the lifecycle state of a notification record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Priority is an advisory urgency hint. It does not affect delivery order.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is one message destined for one recipient. The persisted
// record is the durable source of truth; live fan-out is a side effect and
// never mutates it.
type Notification struct {
	ID         string         `json:"id" bson:"_id"`
	UserID     string         `json:"userId" bson:"user_id"`
	Title      string         `json:"title" bson:"title"`
	Body       string         `json:"body" bson:"body"`
	Channel    Channel        `json:"channel" bson:"channel"`
	Status     Status         `json:"status" bson:"status"`
	Priority   Priority       `json:"priority" bson:"priority"`
	TemplateID *int           `json:"templateId,omitempty" bson:"template_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt" bson:"created_at"`
	SentAt     *time.Time     `json:"sentAt,omitempty" bson:"sent_at,omitempty"`
	ReadAt     *time.Time     `json:"readAt,omitempty" bson:"read_at,omitempty"`
}

// IsRead reports whether the notification has been marked read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// Template is a named message pattern with `{{field}}` placeholders in its
// title and body. Templates are seeded administratively and read-only at
// runtime; ids are stable across deployments.
type Template struct {
	ID       int            `json:"id" bson:"_id"`
	Name     string         `json:"name" bson:"name"`
	Title    string         `json:"title" bson:"title"`
	Body     string         `json:"body" bson:"body"`
	Channel  Channel        `json:"channel" bson:"channel"`
	Metadata map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}
