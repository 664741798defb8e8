package fanout

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire format for events crossing the fan-out layer. Payload
// is kept as raw JSON so the backbone never has to understand it.
type Envelope struct {
	Event   string          `json:"event"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sentAt"`
}

// Hub delivers named events to every live connection currently joined to a
// room. Emit is fire and forget: no acknowledgment is awaited and an event
// published to a room with no members is silently dropped. Durability lives
// in the notification store, not here.
type Hub interface {
	// Join registers a live connection as a member of the given rooms and
	// returns its subscription. Membership is revoked when the context is
	// cancelled or the subscriber is closed.
	Join(ctx context.Context, rooms ...string) (*Subscriber, error)

	// Emit publishes an event to a room on every process attached to the
	// backbone. The returned error reports backbone transport failures
	// only, never per-connection delivery outcomes.
	Emit(ctx context.Context, room, event string, payload any) error

	// SubscriberCount reports local members of a room. Remote processes are
	// not counted.
	SubscriberCount(room string) int

	// Close shuts the hub down and closes all local subscribers.
	Close() error
}

// Subscriber is one live connection's membership in a set of rooms.
type Subscriber struct {
	id    string
	rooms []string

	ch        chan Envelope
	closeOnce sync.Once
	onClose   func(*Subscriber)
}

func newSubscriber(rooms []string, bufferSize int, onClose func(*Subscriber)) *Subscriber {
	return &Subscriber{
		id:      uuid.New().String(),
		rooms:   rooms,
		ch:      make(chan Envelope, bufferSize),
		onClose: onClose,
	}
}

// ID returns the unique connection identifier.
func (s *Subscriber) ID() string { return s.id }

// Rooms returns the rooms this connection is a member of.
func (s *Subscriber) Rooms() []string { return s.rooms }

// Events returns the channel delivering events for the joined rooms. The
// channel is closed when the subscriber leaves.
func (s *Subscriber) Events() <-chan Envelope { return s.ch }

// Close revokes the room membership and closes the event channel. Safe to
// call multiple times.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose(s)
		}
		close(s.ch)
	})
	return nil
}

// registry is the routing-key → connection membership table. It is owned
// exclusively by the hub that embeds it and mutated only on join/leave.
type registry struct {
	mu         sync.RWMutex
	rooms      map[string]map[string]*Subscriber
	bufferSize int
	closed     bool
	done       chan struct{}
	wg         sync.WaitGroup
}

func newRegistry(bufferSize int) *registry {
	return &registry{
		rooms:      make(map[string]map[string]*Subscriber),
		bufferSize: max(bufferSize, 1),
		done:       make(chan struct{}),
	}
}

func (r *registry) join(ctx context.Context, rooms []string) (*Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrHubClosed
	}

	sub := newSubscriber(rooms, r.bufferSize, r.leave)
	for _, room := range rooms {
		members, ok := r.rooms[room]
		if !ok {
			members = make(map[string]*Subscriber)
			r.rooms[room] = members
		}
		members[sub.id] = sub
	}

	// Membership is revoked automatically when the connection's context
	// ends, mirroring a socket disconnect.
	if ctx.Done() != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			select {
			case <-ctx.Done():
				_ = sub.Close()
			case <-r.done:
			}
		}()
	}

	return sub, nil
}

func (r *registry) leave(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range sub.rooms {
		if members, ok := r.rooms[room]; ok {
			delete(members, sub.id)
			if len(members) == 0 {
				delete(r.rooms, room)
			}
		}
	}
}

// dispatch delivers an envelope to every local member of its room. Sends are
// non-blocking: a member with a full buffer misses the event rather than
// stalling delivery to its siblings.
func (r *registry) dispatch(env Envelope) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	for _, sub := range r.rooms[env.Room] {
		select {
		case sub.ch <- env:
		default:
		}
	}
}

func (r *registry) count(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

func (r *registry) close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.done)

	subs := make([]*Subscriber, 0)
	for _, members := range r.rooms {
		for _, sub := range members {
			subs = append(subs, sub)
		}
	}
	clear(r.rooms)
	r.mu.Unlock()

	for _, sub := range subs {
		sub.closeOnce.Do(func() { close(sub.ch) })
	}
	r.wg.Wait()
}

func marshalEnvelope(room, event string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Event:   event,
		Room:    room,
		Payload: raw,
		SentAt:  time.Now().UTC(),
	}, nil
}
