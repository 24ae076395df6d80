// Package memory provides a process-local transport for development and
// tests. It keeps the boundary semantics of the real shared-memory transport:
// one handle per participant, envelopes copied by value into pre-sized queues,
// and a non-blocking single-message poll.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/slotwire/slotwire-go/wire"
)

// ErrHandleClosed reports use of a closed handle.
var ErrHandleClosed = errors.New("memory: handle is closed")

// Broker fans envelopes out between handles. Publishing on one handle
// delivers to every other handle's queue.
type Broker struct {
	mu      sync.RWMutex
	nextID  int
	handles map[int]*Handle
	depth   int
}

// BrokerOption configures the broker.
type BrokerOption func(*Broker)

// WithQueueDepth sets the per-handle queue capacity.
func WithQueueDepth(depth int) BrokerOption {
	return func(b *Broker) {
		b.depth = depth
	}
}

// NewBroker creates an empty broker.
func NewBroker(opts ...BrokerOption) *Broker {
	b := &Broker{
		handles: make(map[int]*Handle),
		depth:   64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle creates a new participant handle. Each participant needs its own;
// handles are not meant to be shared across goroutines.
func (b *Broker) Handle() *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := &Handle{
		broker: b,
		id:     b.nextID,
		queue:  make(chan wire.Envelope, b.depth),
	}
	b.handles[b.nextID] = h
	b.nextID++
	return h
}

// Handle is one participant's endpoint, implementing messaging.Transport.
type Handle struct {
	broker *Broker
	id     int
	queue  chan wire.Envelope
	closed atomic.Bool
}

// AcquireSlot returns a writable buffer sized for exactly one envelope.
func (h *Handle) AcquireSlot() (*wire.Envelope, error) {
	if h.closed.Load() {
		return nil, ErrHandleClosed
	}
	return new(wire.Envelope), nil
}

// Publish copies the envelope by value into every other handle's queue.
// Delivery is non-blocking so one slow consumer cannot stall publishers; a
// full queue drops the message for that consumer, as the shared-memory
// transport does when a subscriber lags.
func (h *Handle) Publish(ctx context.Context, env *wire.Envelope) error {
	if env == nil {
		return errors.New("memory: envelope cannot be nil")
	}
	if h.closed.Load() {
		return ErrHandleClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	h.broker.mu.RLock()
	defer h.broker.mu.RUnlock()
	for id, other := range h.broker.handles {
		if id == h.id {
			continue
		}
		select {
		case other.queue <- *env:
		default:
		}
	}
	return nil
}

// PollOne receives at most one envelope without blocking.
func (h *Handle) PollOne(ctx context.Context) (*wire.Envelope, bool, error) {
	if h.closed.Load() {
		return nil, false, ErrHandleClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	select {
	case env := <-h.queue:
		return &env, true, nil
	default:
		return nil, false, nil
	}
}

// Close detaches the handle from the broker. Closing twice is a no-op.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	b := h.broker
	b.mu.Lock()
	delete(b.handles, h.id)
	b.mu.Unlock()
	return nil
}
