package fanout

import (
	"context"
	"sync"
)

// MemoryHub is a single-process Hub. Events are dispatched directly to local
// room members with no backbone involved. Suitable for tests and deployments
// that run exactly one server process.
type MemoryHub struct {
	reg       *registry
	closeOnce sync.Once
}

// NewMemoryHub creates an in-process hub. bufferSize is the per-connection
// event buffer; a member whose buffer is full misses events instead of
// blocking delivery.
func NewMemoryHub(bufferSize int) *MemoryHub {
	return &MemoryHub{reg: newRegistry(bufferSize)}
}

func (h *MemoryHub) Join(ctx context.Context, rooms ...string) (*Subscriber, error) {
	return h.reg.join(ctx, rooms)
}

func (h *MemoryHub) Emit(ctx context.Context, room, event string, payload any) error {
	env, err := marshalEnvelope(room, event, payload)
	if err != nil {
		return err
	}
	h.reg.dispatch(env)
	return nil
}

func (h *MemoryHub) SubscriberCount(room string) int {
	return h.reg.count(room)
}

func (h *MemoryHub) Close() error {
	h.closeOnce.Do(h.reg.close)
	return nil
}
