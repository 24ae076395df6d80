package messaging

import (
	"context"

	"github.com/slotwire/slotwire-go/wire"
)

// Transport is the boundary the core expects from a publish/subscribe
// transport. Implementations are not required to be safe for concurrent use:
// a handle is meant to be driven by one logical goroutine, and fan-out takes
// one handle per participant rather than shared access to one.
type Transport interface {
	// AcquireSlot returns a writable buffer sized for exactly one envelope.
	AcquireSlot() (*wire.Envelope, error)

	// Publish hands a filled slot to the transport. Ownership transfers; the
	// caller must not touch the envelope afterwards.
	Publish(ctx context.Context, env *wire.Envelope) error

	// PollOne receives at most one envelope without blocking. ok is false when
	// nothing is available; callers repeat the poll at their own cadence.
	PollOne(ctx context.Context) (env *wire.Envelope, ok bool, err error)

	// Close releases the handle.
	Close() error
}
