package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slotwire/slotwire-go/contracts"
	"github.com/slotwire/slotwire-go/internal/reliability"
	"github.com/slotwire/slotwire-go/wire"
)

// Dispatcher owns a transport handle and serializes all sends through a single
// background goroutine, keeping the handle single-threaded as transports
// require. Callers hand it logical messages; the factory turns them into
// envelopes before they are queued.
type Dispatcher struct {
	transport Transport
	factory   *EnvelopeFactory
	logger    *slog.Logger
	retry     reliability.RetryPolicy
	depth     int

	mu    sync.RWMutex
	queue chan *wire.Envelope
	done  chan struct{}
}

// DispatcherOption configures the dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithDispatcherFactory sets the envelope factory, e.g. an encrypting one.
func WithDispatcherFactory(factory *EnvelopeFactory) DispatcherOption {
	return func(d *Dispatcher) {
		d.factory = factory
	}
}

// WithDispatcherRetryPolicy sets the publish retry policy.
func WithDispatcherRetryPolicy(policy reliability.RetryPolicy) DispatcherOption {
	return func(d *Dispatcher) {
		d.retry = policy
	}
}

// WithQueueDepth sets the dispatch queue capacity.
func WithQueueDepth(depth int) DispatcherOption {
	return func(d *Dispatcher) {
		d.depth = depth
	}
}

// NewDispatcher creates a dispatcher over a transport handle. The dispatcher
// assumes sole use of the handle from Start until Stop.
func NewDispatcher(transport Transport, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		factory:   NewEnvelopeFactory(),
		logger:    slog.Default(),
		retry:     reliability.NewExponentialBackoff(100*time.Millisecond, 5*time.Second, 2.0, 3),
		depth:     64,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the publish loop. ctx bounds the in-flight publishes, not the
// queue lifetime; Stop ends the loop.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue != nil {
		return ErrDispatcherRunning
	}
	d.queue = make(chan *wire.Envelope, d.depth)
	d.done = make(chan struct{})
	go d.run(ctx, d.queue, d.done)
	return nil
}

func (d *Dispatcher) run(ctx context.Context, queue <-chan *wire.Envelope, done chan<- struct{}) {
	defer close(done)
	for env := range queue {
		topic := string(env.Topic[:env.TopicLen])
		err := reliability.Retry(ctx, d.retry, func() error {
			return d.transport.Publish(ctx, env)
		})
		if err != nil {
			d.logger.Error("failed to publish envelope",
				"topic", topic,
				"error", err,
			)
			continue
		}
		d.logger.Debug("envelope published",
			"topic", topic,
			"priority", contracts.Priority(env.Priority).String(),
		)
	}
}

// Send encodes msg and queues it for publication without blocking. It fails
// with ErrQueueFull when the publish loop has fallen behind and with
// ErrDispatcherStopped when the dispatcher is not running. Relative ordering
// across Send calls from independent goroutines is the transport's concern.
func (d *Dispatcher) Send(msg *contracts.Message) error {
	env, err := d.factory.NewEnvelope(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.queue == nil {
		return ErrDispatcherStopped
	}
	select {
	case d.queue <- env:
		return nil
	default:
		return ErrQueueFull
	}
}

// Running reports whether the publish loop is active.
func (d *Dispatcher) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.queue != nil
}

// Stop drains the queue, ends the publish loop and closes the transport
// handle. Stopping a stopped dispatcher is a no-op.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	queue := d.queue
	done := d.done
	d.queue = nil
	d.done = nil
	d.mu.Unlock()

	if queue == nil {
		return nil
	}
	close(queue)
	<-done
	return d.transport.Close()
}
