package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwire/slotwire-go/wire"
)

func testEnvelope(t *testing.T, topic string) *wire.Envelope {
	t.Helper()
	env, err := wire.Encode(topic, `{}`, 1, wire.WithTimestamp(1))
	require.NoError(t, err)
	return env
}

func TestBroker(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to every other handle", func(t *testing.T) {
		broker := NewBroker()
		sender := broker.Handle()
		a := broker.Handle()
		b := broker.Handle()

		require.NoError(t, sender.Publish(ctx, testEnvelope(t, "system.ping")))

		for _, h := range []*Handle{a, b} {
			env, ok, err := h.PollOne(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			dec, err := env.Decode()
			require.NoError(t, err)
			assert.Equal(t, "system.ping", dec.Topic)
		}
	})

	t.Run("publisher does not receive its own message", func(t *testing.T) {
		broker := NewBroker()
		sender := broker.Handle()
		broker.Handle()

		require.NoError(t, sender.Publish(ctx, testEnvelope(t, "system.ping")))

		_, ok, err := sender.PollOne(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("poll on an empty queue does not block", func(t *testing.T) {
		h := NewBroker().Handle()
		env, ok, err := h.PollOne(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, env)
	})

	t.Run("envelopes are copied by value", func(t *testing.T) {
		broker := NewBroker()
		sender := broker.Handle()
		receiver := broker.Handle()

		env := testEnvelope(t, "system.ping")
		require.NoError(t, sender.Publish(ctx, env))
		// Mutation after publish must not reach the receiver.
		env.Topic[0] = 'X'

		got, ok, err := receiver.PollOne(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		dec, err := got.Decode()
		require.NoError(t, err)
		assert.Equal(t, "system.ping", dec.Topic)
	})

	t.Run("a lagging consumer drops instead of stalling", func(t *testing.T) {
		broker := NewBroker(WithQueueDepth(1))
		sender := broker.Handle()
		receiver := broker.Handle()

		require.NoError(t, sender.Publish(ctx, testEnvelope(t, "first")))
		require.NoError(t, sender.Publish(ctx, testEnvelope(t, "second")))

		env, ok, err := receiver.PollOne(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		dec, err := env.Decode()
		require.NoError(t, err)
		assert.Equal(t, "first", dec.Topic)

		_, ok, err = receiver.PollOne(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("closed handles reject use", func(t *testing.T) {
		broker := NewBroker()
		h := broker.Handle()
		require.NoError(t, h.Close())
		require.NoError(t, h.Close())

		_, err := h.AcquireSlot()
		assert.ErrorIs(t, err, ErrHandleClosed)
		assert.ErrorIs(t, h.Publish(ctx, testEnvelope(t, "t")), ErrHandleClosed)
		_, _, err = h.PollOne(ctx)
		assert.ErrorIs(t, err, ErrHandleClosed)
	})

	t.Run("closed handles no longer receive", func(t *testing.T) {
		broker := NewBroker()
		sender := broker.Handle()
		gone := broker.Handle()
		stays := broker.Handle()
		require.NoError(t, gone.Close())

		require.NoError(t, sender.Publish(ctx, testEnvelope(t, "system.ping")))

		_, ok, err := stays.PollOne(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("acquired slots are empty envelopes", func(t *testing.T) {
		h := NewBroker().Handle()
		slot, err := h.AcquireSlot()
		require.NoError(t, err)
		assert.Equal(t, &wire.Envelope{}, slot)
	})

	t.Run("cancelled context stops publish and poll", func(t *testing.T) {
		broker := NewBroker()
		h := broker.Handle()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		assert.Error(t, h.Publish(cancelled, testEnvelope(t, "t")))
		_, _, err := h.PollOne(cancelled)
		assert.Error(t, err)
	})
}
