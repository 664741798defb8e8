package notifications

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fieldops/notify/pkg/binder"
	"github.com/fieldops/notify/pkg/directory"
	"github.com/fieldops/notify/pkg/fanout"
	"github.com/fieldops/notify/pkg/jwt"
	"github.com/fieldops/notify/pkg/logger"
	"github.com/fieldops/notify/pkg/notifications"
)

// Module exposes the notification service over HTTP: a REST surface for
// delivery and read-state management, and an SSE stream for live events.
type Module struct {
	cfg      Config
	svc      *notifications.Service
	hub      fanout.Hub
	verifier *jwt.Verifier
	resolver directory.Resolver
	log      *slog.Logger
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the module logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Module) {
		if log != nil {
			m.log = log
		}
	}
}

// WithVerifier enables JWT identity on the stream endpoint. Without a
// verifier every stream connection is anonymous.
func WithVerifier(v *jwt.Verifier) Option {
	return func(m *Module) { m.verifier = v }
}

// WithResolver lets the stream endpoint join the room named by the user's
// routing key in addition to the raw identifier room, so a connection
// receives events no matter which form the emitter addressed.
func WithResolver(r directory.Resolver) Option {
	return func(m *Module) { m.resolver = r }
}

// New creates the notifications HTTP module.
func New(cfg Config, svc *notifications.Service, hub fanout.Hub, opts ...Option) *Module {
	m := &Module{
		cfg: cfg,
		svc: svc,
		hub: hub,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle returns the module router, meant to be mounted under a path
// prefix such as /notifications.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", m.deliver)
	r.Get("/", m.list)
	r.Get("/stream", m.stream)
	r.Get("/unread/count", m.unreadCount)
	r.Get("/{id}", m.get)
	r.Patch("/{id}/read", m.markRead)
	r.Delete("/{id}", m.remove)

	return r
}

func (m *Module) deliver(w http.ResponseWriter, r *http.Request) {
	var req notifications.DeliverRequest
	if err := binder.BindJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := m.svc.Deliver(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, result)
}

func (m *Module) list(w http.ResponseWriter, r *http.Request) {
	filter := notifications.Filter{UserID: r.URL.Query().Get("userId")}
	if raw := r.URL.Query().Get("isRead"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, fmt.Errorf("%w: isRead must be a boolean", errInvalidQuery))
			return
		}
		filter.IsRead = &isRead
	}

	list, err := m.svc.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, list)
}

func (m *Module) get(w http.ResponseWriter, r *http.Request) {
	notif, err := m.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, notif)
}

func (m *Module) markRead(w http.ResponseWriter, r *http.Request) {
	notif, err := m.svc.MarkRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, notif)
}

func (m *Module) remove(w http.ResponseWriter, r *http.Request) {
	if err := m.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (m *Module) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(w, fmt.Errorf("%w: userId is required", errInvalidQuery))
		return
	}

	count, err := m.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]int{"count": count})
}

// stream is the live channel. The connection joins the room named by the
// token's subject claim; without a token it either gets rejected or joins a
// room named by a fresh connection id, depending on configuration.
func (m *Module) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	rooms, err := m.streamRooms(r)
	if err != nil {
		respondError(w, err)
		return
	}

	sub, err := m.hub.Join(r.Context(), rooms...)
	if err != nil {
		respondError(w, err)
		return
	}
	defer sub.Close()

	m.log.LogAttrs(r.Context(), slog.LevelDebug, "stream connected",
		logger.Room(rooms[0]))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(m.heartbeatInterval())
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case env, ok := <-sub.Events():
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Event, env.Payload)
			flusher.Flush()
		}
	}
}

// streamRooms decides the rooms a connection belongs to. A valid token's
// subject wins; a missing one is either an error or an anonymous identity.
// When a resolver is configured, the subject's routing key is joined as
// well, so events addressed to either form reach the connection. A
// resolution failure degrades to the raw identifier instead of dropping the
// connection.
func (m *Module) streamRooms(r *http.Request) ([]string, error) {
	if m.verifier != nil {
		token, err := jwt.TokenFromRequest(r)
		if err == nil {
			claims, err := m.verifier.Verify(token)
			if err != nil {
				return nil, err
			}
			if claims.Subject != "" {
				rooms := []string{claims.Subject}
				if m.resolver != nil {
					key, err := m.resolver.Lookup(r.Context(), claims.Subject)
					if err != nil {
						m.log.LogAttrs(r.Context(), slog.LevelWarn,
							"routing key resolution failed, using raw identifier",
							logger.UserID(claims.Subject),
							logger.Error(err))
					} else if key != claims.Subject {
						rooms = append(rooms, key)
					}
				}
				return rooms, nil
			}
		}
	}

	if m.cfg.RequireAuth {
		return nil, jwt.ErrMissingToken
	}
	return []string{uuid.New().String()}, nil
}

func (m *Module) heartbeatInterval() time.Duration {
	if m.cfg.HeartbeatIntervalSec <= 0 {
		return 25 * time.Second
	}
	return time.Duration(m.cfg.HeartbeatIntervalSec) * time.Second
}
