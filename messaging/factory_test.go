package messaging

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwire/slotwire-go/contracts"
	"github.com/slotwire/slotwire-go/security"
	"github.com/slotwire/slotwire-go/wire"
)

func TestEnvelopeFactory(t *testing.T) {
	t.Run("builds a plaintext envelope", func(t *testing.T) {
		msg := contracts.NewMessage("storage.write", json.RawMessage(`{"k":"v"}`)).
			WithPriority(contracts.PriorityHigh)

		env, err := NewEnvelopeFactory().NewEnvelope(msg)
		require.NoError(t, err)

		dec, err := env.Decode()
		require.NoError(t, err)
		assert.Equal(t, "storage.write", dec.Topic)
		assert.Equal(t, uint8(contracts.PriorityHigh), dec.Priority)
		assert.Equal(t, msg.Timestamp, dec.Timestamp)

		got, err := contracts.ParseMessage([]byte(dec.Body))
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	})

	t.Run("uses the factory clock for unset timestamps", func(t *testing.T) {
		factory := NewEnvelopeFactory(WithClock(func() uint64 { return 12345 }))
		msg := &contracts.Message{Topic: "system.ping", Payload: json.RawMessage(`{}`)}

		env, err := factory.NewEnvelope(msg)
		require.NoError(t, err)
		assert.Equal(t, uint64(12345), env.Timestamp)
	})

	t.Run("rejects nil messages", func(t *testing.T) {
		_, err := NewEnvelopeFactory().NewEnvelope(nil)
		assert.Error(t, err)
	})

	t.Run("rejects topics over capacity", func(t *testing.T) {
		msg := contracts.NewMessage(string(make([]byte, 65)), json.RawMessage(`{}`))
		_, err := NewEnvelopeFactory().NewEnvelope(msg)
		assert.Error(t, err)
	})
}

func TestEncryptingFactory(t *testing.T) {
	priv, pub := testKeyPair(t)

	t.Run("hides the original fields on the wire", func(t *testing.T) {
		msg := contracts.NewMessage("alert.disk", json.RawMessage(`{"secret":"password123"}`))

		env, err := NewEnvelopeFactory(WithRecipient(pub)).NewEnvelope(msg)
		require.NoError(t, err)

		dec, err := env.Decode()
		require.NoError(t, err)
		body := ParseBody(dec.Body)
		assert.Equal(t, BodyHybrid, ClassifyBody(body))
		assert.False(t, body.Exists("payload"))
		assert.NotContains(t, dec.Body, "password123")
	})

	t.Run("round trips through the adapter", func(t *testing.T) {
		msg := contracts.NewMessage("alert.disk", json.RawMessage(`{"usage":97}`)).
			WithPriority(contracts.PriorityCritical)

		env, err := NewEnvelopeFactory(WithRecipient(pub)).NewEnvelope(msg)
		require.NoError(t, err)

		d, err := NewSecureEnvelopeAdapter(WithPrivateKey(priv)).Open(env)
		require.NoError(t, err)
		assert.Equal(t, BodyHybrid, d.Kind)
		assert.Equal(t, "alert.disk", d.Body.Path("topic").Data())
		assert.Equal(t, float64(97), d.Body.Path("payload.usage").Data())
	})

	t.Run("legacy mode produces a payload-only body", func(t *testing.T) {
		msg := &contracts.Message{Topic: "system.ping", Payload: json.RawMessage(`{}`), Timestamp: 1}

		factory := NewEnvelopeFactory(WithRecipient(pub), WithLegacyEncryption())
		env, err := factory.NewEnvelope(msg)
		require.NoError(t, err)

		dec, err := env.Decode()
		require.NoError(t, err)
		assert.Equal(t, BodyLegacy, ClassifyBody(ParseBody(dec.Body)))

		d, err := NewSecureEnvelopeAdapter(WithPrivateKey(priv)).Open(env)
		require.NoError(t, err)
		assert.Equal(t, "system.ping", d.Body.Path("topic").Data())
	})

	t.Run("legacy mode rejects oversized messages", func(t *testing.T) {
		msg := contracts.NewMessage("system.ping", json.RawMessage(`"`+strings.Repeat("a", 300)+`"`))

		factory := NewEnvelopeFactory(WithRecipient(pub), WithLegacyEncryption())
		_, err := factory.NewEnvelope(msg)
		assert.ErrorIs(t, err, security.ErrPlaintextTooLarge)
	})
}

func TestFillSlot(t *testing.T) {
	msg := contracts.NewMessage("system.ping", json.RawMessage(`{}`))

	t.Run("encodes into a transport slot", func(t *testing.T) {
		slot := new(wire.Envelope)
		require.NoError(t, NewEnvelopeFactory().FillSlot(slot, msg))

		dec, err := slot.Decode()
		require.NoError(t, err)
		assert.Equal(t, "system.ping", dec.Topic)
	})

	t.Run("rejects a nil slot", func(t *testing.T) {
		assert.Error(t, NewEnvelopeFactory().FillSlot(nil, msg))
	})
}
