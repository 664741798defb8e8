package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/fieldops/notify/pkg/logger"
)

// Config carries fan-out settings loaded from the environment.
type Config struct {
	Channel    string `env:"FANOUT_CHANNEL" envDefault:"notify:fanout"` // Channel is the backbone pub/sub channel name.
	BufferSize int    `env:"FANOUT_BUFFER_SIZE" envDefault:"64"`        // BufferSize is the per-connection event buffer.
}

// RedisHub is a Hub whose emits travel over a shared Redis pub/sub channel,
// so a publish on any server process reaches every process's local members
// of the target room.
//
// The simple flood variant is used: every process subscribes to one backbone
// channel and filters by room locally. Emit publishes to Redis only — local
// members receive the event through the same subscription loop as remote
// ones, which keeps single-process and multi-process behavior identical.
type RedisHub struct {
	client  redis.UniversalClient
	channel string
	reg     *registry
	log     *slog.Logger

	pubsub    *redis.PubSub
	cancel    context.CancelFunc
	loopDone  chan struct{}
	closeOnce sync.Once
}

// RedisHubOption configures a RedisHub.
type RedisHubOption func(*RedisHub)

// WithLogger sets the logger for backbone errors.
func WithLogger(log *slog.Logger) RedisHubOption {
	return func(h *RedisHub) {
		if log != nil {
			h.log = log
		}
	}
}

// NewRedisHub creates a hub attached to the given Redis backbone and starts
// its dispatch loop. The hub must be closed to release the subscription.
func NewRedisHub(client redis.UniversalClient, cfg Config, opts ...RedisHubOption) *RedisHub {
	h := &RedisHub{
		client:   client,
		channel:  cfg.Channel,
		reg:      newRegistry(cfg.BufferSize),
		log:      slog.Default(),
		loopDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	// go-redis resubscribes transparently after connection loss, so the
	// loop only ends when the hub is closed.
	h.pubsub = client.Subscribe(ctx, h.channel)
	go h.dispatchLoop(ctx)

	return h
}

func (h *RedisHub) Join(ctx context.Context, rooms ...string) (*Subscriber, error) {
	return h.reg.join(ctx, rooms)
}

// Emit publishes the event to the backbone. Delivery to connections is a
// side effect of the dispatch loop; callers must not assume immediate global
// visibility.
func (h *RedisHub) Emit(ctx context.Context, room, event string, payload any) error {
	env, err := marshalEnvelope(room, event, payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := h.client.Publish(ctx, h.channel, raw).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

func (h *RedisHub) SubscriberCount(room string) int {
	return h.reg.count(room)
}

func (h *RedisHub) Close() error {
	h.closeOnce.Do(func() {
		h.cancel()
		_ = h.pubsub.Close()
		<-h.loopDone
		h.reg.close()
	})
	return nil
}

func (h *RedisHub) dispatchLoop(ctx context.Context) {
	defer close(h.loopDone)

	ch := h.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.log.LogAttrs(ctx, slog.LevelWarn, "dropping malformed fanout envelope",
					logger.Component("fanout"),
					logger.Error(err),
				)
				continue
			}
			h.reg.dispatch(env)
		}
	}
}
