package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/notify/pkg/directory"
	"github.com/fieldops/notify/pkg/fanout"
	"github.com/fieldops/notify/pkg/logger"
)

// EventNewNotification is the event name emitted to a recipient's room for
// every freshly persisted notification.
const EventNewNotification = "newNotification"

// EmailSender delivers an email rendition of a notification. Optional side
// channel; failures are logged, never propagated.
type EmailSender interface {
	Send(ctx context.Context, to string, notif Notification) error
}

// Service is the request-level delivery coordinator: it resolves recipients,
// renders templates, persists records and triggers fan-out.
type Service struct {
	storage  Storage
	hub      fanout.Hub
	resolver directory.Resolver
	email    EmailSender
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithResolver sets the routing-key resolver. Defaults to directory.Identity,
// which uses the local identifier itself.
func WithResolver(r directory.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithEmailSender enables best-effort email side delivery for notifications
// on the email channel.
func WithEmailSender(sender EmailSender) Option {
	return func(s *Service) { s.email = sender }
}

// WithServiceLogger sets the logger for the Service.
func WithServiceLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a delivery service on the given store and fan-out hub.
func NewService(storage Storage, hub fanout.Hub, opts ...Option) *Service {
	s := &Service{
		storage:  storage,
		hub:      hub,
		resolver: directory.Identity{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DeliverRequest is a batch delivery request. When TemplateID is set, the
// template's rendered title, body and channel override the direct fields.
type DeliverRequest struct {
	Recipients []string       `json:"recipients"`
	Title      string         `json:"title,omitempty"`
	Body       string         `json:"body,omitempty"`
	Channel    Channel        `json:"channel,omitempty"`
	TemplateID int            `json:"templateId,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Priority   Priority       `json:"priority,omitempty"`
}

// DeliveryFailure describes one recipient that did not get a notification.
type DeliveryFailure struct {
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

// DeliverResult aggregates per-recipient outcomes of one batch. A caller can
// distinguish complete, partial and zero success without parsing error text.
type DeliverResult struct {
	Notifications []Notification    `json:"notifications"`
	Failures      []DeliveryFailure `json:"failures"`
}

// TemplateMessage is a template expanded against request data.
type TemplateMessage struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Channel    Channel `json:"channel"`
	TemplateID int     `json:"templateId"`
}

// GetTemplateMessage loads a template and renders its title and body against
// data. This is the only place persistence and rendering compose.
func (s *Service) GetTemplateMessage(ctx context.Context, templateID int, data map[string]any) (TemplateMessage, error) {
	tpl, err := s.storage.FindTemplateByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			s.log.LogAttrs(ctx, slog.LevelWarn, "template not found",
				logger.TemplateID(templateID))
		}
		return TemplateMessage{}, err
	}

	return TemplateMessage{
		Title:      Render(tpl.Title, data),
		Body:       Render(tpl.Body, data),
		Channel:    tpl.Channel,
		TemplateID: tpl.ID,
	}, nil
}

// Deliver validates the request, resolves every unique recipient to a
// routing key, persists one record per resolved recipient and emits each
// persisted record to its room.
//
// Recipients are processed independently and concurrently: a failure to
// resolve or persist one recipient lands in the failure list without
// aborting its siblings. An unknown template, by contrast, fails the whole
// request before anything is persisted, since no recipient could succeed.
// Emit failures are logged and swallowed; the persisted row is already the
// durable source of truth.
func (s *Service) Deliver(ctx context.Context, req DeliverRequest) (DeliverResult, error) {
	if len(req.Recipients) == 0 {
		return DeliverResult{}, ErrNoRecipients
	}
	if s.hub == nil {
		return DeliverResult{}, ErrFanoutUnavailable
	}

	title, body, channel := req.Title, req.Body, req.Channel
	var templateID *int
	if req.TemplateID != 0 {
		msg, err := s.GetTemplateMessage(ctx, req.TemplateID, req.Data)
		if err != nil {
			return DeliverResult{}, err
		}
		title, body, channel = msg.Title, msg.Body, msg.Channel
		id := msg.TemplateID
		templateID = &id
	}

	if channel == "" {
		channel = ChannelInApp
	}
	if !channel.Valid() {
		return DeliverResult{}, ErrInvalidChannel
	}

	priority := req.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	resolved, resolveFailures := directory.Resolve(ctx, s.resolver, req.Recipients)

	result := DeliverResult{
		Notifications: make([]Notification, 0, len(resolved)),
		Failures:      make([]DeliveryFailure, 0, len(resolveFailures)),
	}
	for _, f := range resolveFailures {
		result.Failures = append(result.Failures, DeliveryFailure{
			Recipient: f.UserID,
			Reason:    f.Reason,
		})
	}

	// One task per recipient, joined at the end: every outcome is reported,
	// no first-error short circuit.
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for userID, routingKey := range resolved {
		wg.Add(1)
		go func() {
			defer wg.Done()

			notif := Notification{
				ID:         uuid.New().String(),
				UserID:     userID,
				Title:      title,
				Body:       body,
				Channel:    channel,
				Status:     StatusPending,
				Priority:   priority,
				TemplateID: templateID,
				Metadata:   req.Data,
				CreatedAt:  time.Now().UTC(),
			}

			if err := s.storage.Create(ctx, notif); err != nil {
				s.log.LogAttrs(ctx, slog.LevelError, "failed to persist notification",
					logger.UserID(userID),
					logger.Error(err),
				)
				mu.Lock()
				result.Failures = append(result.Failures, DeliveryFailure{
					Recipient: userID,
					Reason:    err.Error(),
				})
				mu.Unlock()
				return
			}

			// Durability is satisfied; everything past this point is best
			// effort and must not fail the recipient.
			if err := s.hub.Emit(ctx, routingKey, EventNewNotification, notif); err != nil {
				s.log.LogAttrs(ctx, slog.LevelWarn, "failed to emit notification, record is persisted",
					logger.NotificationID(notif.ID),
					logger.UserID(userID),
					logger.Room(routingKey),
					logger.Event(EventNewNotification),
					logger.Error(err),
				)
			}

			s.sendEmailCopy(ctx, notif)

			mu.Lock()
			result.Notifications = append(result.Notifications, notif)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return result, nil
}

// sendEmailCopy forwards email-channel notifications to the configured
// sender. The recipient address travels in the request data under "email".
func (s *Service) sendEmailCopy(ctx context.Context, notif Notification) {
	if s.email == nil || notif.Channel != ChannelEmail {
		return
	}
	to, _ := notif.Metadata["email"].(string)
	if to == "" {
		return
	}
	if err := s.email.Send(ctx, to, notif); err != nil {
		s.log.LogAttrs(ctx, slog.LevelWarn, "failed to send email copy",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			logger.Channel(string(notif.Channel)),
			logger.Error(err),
		)
	}
}

// List returns notifications matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Notification, error) {
	return s.storage.FindMany(ctx, filter)
}

// Get retrieves a single notification by id.
func (s *Service) Get(ctx context.Context, id string) (*Notification, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	return s.storage.FindByID(ctx, id)
}

// MarkRead sets the read timestamp. Idempotent: re-marking keeps the
// original timestamp and never fails.
func (s *Service) MarkRead(ctx context.Context, id string) (*Notification, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	return s.storage.MarkRead(ctx, id)
}

// Delete removes a notification by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.storage.Delete(ctx, id)
}

// UnreadCount returns the number of unread notifications for a recipient.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.storage.CountUnread(ctx, userID)
}
