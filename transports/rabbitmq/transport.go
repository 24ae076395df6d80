// Package rabbitmq adapts a RabbitMQ broker to the messaging.Transport
// boundary for deployments that span hosts, where shared memory cannot reach.
// The fixed-size envelope frame travels as the AMQP message body and the
// envelope topic becomes the routing key, so receivers can bind pattern
// queues against the usual dot-separated topic names.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/slotwire/slotwire-go/internal/reliability"
	"github.com/slotwire/slotwire-go/wire"
)

// Transport is one participant's endpoint, implementing messaging.Transport.
// Like every transport handle it is meant to be driven by one logical
// goroutine; open one per participant.
type Transport struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string

	exchange   string
	bindingKey string
	logger     *slog.Logger
	dialRetry  reliability.RetryPolicy
}

// Option configures the transport.
type Option func(*Transport)

// WithExchange sets the topic exchange name.
func WithExchange(exchange string) Option {
	return func(t *Transport) {
		t.exchange = exchange
	}
}

// WithBindingKey sets the pattern the receive queue is bound with. The
// default "#" receives every topic.
func WithBindingKey(pattern string) Option {
	return func(t *Transport) {
		t.bindingKey = pattern
	}
}

// WithQueue names the receive queue. The default is a server-generated
// exclusive queue, which suits the one-handle-per-participant discipline.
func WithQueue(name string) Option {
	return func(t *Transport) {
		t.queue = name
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithDialRetryPolicy sets the connection retry policy.
func WithDialRetryPolicy(policy reliability.RetryPolicy) Option {
	return func(t *Transport) {
		t.dialRetry = policy
	}
}

// Dial connects to the broker and declares the topology: a durable topic
// exchange and a receive queue bound to it.
func Dial(ctx context.Context, url string, opts ...Option) (*Transport, error) {
	t := &Transport{
		exchange:   "slotwire.messages",
		bindingKey: "#",
		logger:     slog.Default(),
		dialRetry:  reliability.NewExponentialBackoff(500*time.Millisecond, 10*time.Second, 2.0, 5),
	}
	for _, opt := range opts {
		opt(t)
	}

	err := reliability.Retry(ctx, t.dialRetry, func() error {
		conn, err := amqp.Dial(url)
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		t.conn = conn
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := t.setup(); err != nil {
		t.conn.Close()
		return nil, err
	}

	t.logger.Debug("transport connected",
		"exchange", t.exchange,
		"queue", t.queue,
	)
	return t, nil
}

func (t *Transport) setup() error {
	ch, err := t.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	t.channel = ch

	if err := ch.ExchangeDeclare(t.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	exclusive := t.queue == ""
	q, err := ch.QueueDeclare(t.queue, !exclusive, exclusive, exclusive, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	t.queue = q.Name

	if err := ch.QueueBind(t.queue, t.bindingKey, t.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// AcquireSlot returns a writable buffer sized for exactly one envelope. AMQP
// has no shared-memory slots, so the buffer is heap-allocated; the boundary
// semantics are unchanged.
func (t *Transport) AcquireSlot() (*wire.Envelope, error) {
	return new(wire.Envelope), nil
}

// Publish sends the envelope frame to the exchange, routed by its topic.
func (t *Transport) Publish(ctx context.Context, env *wire.Envelope) error {
	if env == nil {
		return fmt.Errorf("envelope cannot be nil")
	}
	dec, err := env.Decode()
	if err != nil {
		return fmt.Errorf("refusing to publish invalid envelope: %w", err)
	}
	frame, err := env.MarshalBinary()
	if err != nil {
		return err
	}

	err = t.channel.PublishWithContext(ctx, t.exchange, dec.Topic, false, false, amqp.Publishing{
		ContentType:  "application/octet-stream",
		DeliveryMode: amqp.Persistent,
		Priority:     env.Priority,
		Timestamp:    time.UnixMilli(int64(env.Timestamp)),
		Body:         frame,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s/%s: %w", t.exchange, dec.Topic, err)
	}
	return nil
}

// PollOne fetches at most one envelope from the receive queue without
// blocking, via basic.get.
func (t *Transport) PollOne(ctx context.Context) (*wire.Envelope, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	msg, ok, err := t.channel.Get(t.queue, true)
	if err != nil {
		return nil, false, fmt.Errorf("failed to poll queue %s: %w", t.queue, err)
	}
	if !ok {
		return nil, false, nil
	}

	env := new(wire.Envelope)
	if err := env.UnmarshalBinary(msg.Body); err != nil {
		return nil, false, fmt.Errorf("queue %s: %w", t.queue, err)
	}
	return env, true, nil
}

// Close releases the channel and connection.
func (t *Transport) Close() error {
	if t.channel != nil {
		t.channel.Close()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}
