package messaging

import (
	"context"
	"log/slog"
	"time"
)

// Handler consumes one opened delivery.
type Handler func(ctx context.Context, d *Delivery)

// Receiver drains a transport handle and hands opened deliveries to a handler.
// Decode and decryption failures are dropped with a log line and never stop
// the loop; the next message is unaffected. The receiver assumes sole use of
// its handle.
type Receiver struct {
	transport Transport
	adapter   *SecureEnvelopeAdapter
	logger    *slog.Logger
	interval  time.Duration
}

// ReceiverOption configures the receiver.
type ReceiverOption func(*Receiver)

// WithReceiverAdapter sets the adapter, e.g. one holding a private key.
func WithReceiverAdapter(adapter *SecureEnvelopeAdapter) ReceiverOption {
	return func(r *Receiver) {
		r.adapter = adapter
	}
}

// WithPollInterval sets the cadence of Run's poll cycles.
func WithPollInterval(interval time.Duration) ReceiverOption {
	return func(r *Receiver) {
		r.interval = interval
	}
}

// WithReceiverLogger sets the logger.
func WithReceiverLogger(logger *slog.Logger) ReceiverOption {
	return func(r *Receiver) {
		r.logger = logger
	}
}

// NewReceiver creates a receiver over a transport handle.
func NewReceiver(transport Transport, opts ...ReceiverOption) *Receiver {
	r := &Receiver{
		transport: transport,
		adapter:   NewSecureEnvelopeAdapter(),
		logger:    slog.Default(),
		interval:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Poll drains whatever is currently available and returns. Transport errors
// surface to the caller; per-message failures are logged and skipped.
func (r *Receiver) Poll(ctx context.Context, handle Handler) error {
	for {
		env, ok, err := r.transport.PollOne(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		d, err := r.adapter.Open(env)
		if err != nil {
			r.logger.Warn("dropping message", "error", err)
			continue
		}
		handle(ctx, d)
	}
}

// Run polls at the configured cadence until the context is cancelled.
func (r *Receiver) Run(ctx context.Context, handle Handler) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if err := r.Poll(ctx, handle); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
