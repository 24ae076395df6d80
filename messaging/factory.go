package messaging

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slotwire/slotwire-go/contracts"
	"github.com/slotwire/slotwire-go/security"
	"github.com/slotwire/slotwire-go/wire"
)

// EnvelopeFactory builds fixed-size wire envelopes from logical messages. With
// a recipient configured the serialized message is replaced by its secure body
// before encoding, so the original fields never reach the wire.
type EnvelopeFactory struct {
	cipher    *security.Cipher
	recipient *rsa.PublicKey
	legacy    bool
	clock     func() uint64
}

// FactoryOption configures envelope creation.
type FactoryOption func(*EnvelopeFactory)

// WithRecipient hybrid-encrypts every body for the holder of pub.
func WithRecipient(pub *rsa.PublicKey) FactoryOption {
	return func(f *EnvelopeFactory) {
		f.recipient = pub
	}
}

// WithLegacyEncryption switches an encrypting factory to the RSA-only mode,
// for receivers that never adopted the hybrid scheme. Bodies are then limited
// to the RSA modulus minus padding overhead.
func WithLegacyEncryption() FactoryOption {
	return func(f *EnvelopeFactory) {
		f.legacy = true
	}
}

// WithClock overrides the millisecond timestamp source for messages that
// carry none. Tests use this for determinism.
func WithClock(clock func() uint64) FactoryOption {
	return func(f *EnvelopeFactory) {
		f.clock = clock
	}
}

// WithFactoryCipher overrides the cipher, mainly to inject a deterministic
// randomness source in tests.
func WithFactoryCipher(c *security.Cipher) FactoryOption {
	return func(f *EnvelopeFactory) {
		f.cipher = c
	}
}

// NewEnvelopeFactory creates a factory. Without options it produces plaintext
// envelopes stamped with the current wall-clock time.
func NewEnvelopeFactory(opts ...FactoryOption) *EnvelopeFactory {
	f := &EnvelopeFactory{
		cipher: security.NewCipher(),
		clock: func() uint64 {
			return uint64(time.Now().UnixMilli())
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewEnvelope serializes msg and places it in a fixed-size envelope. The
// message timestamp is used when set, otherwise the factory clock.
func (f *EnvelopeFactory) NewEnvelope(msg *contracts.Message) (*wire.Envelope, error) {
	if msg == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}

	body, err := msg.ToJSON()
	if err != nil {
		return nil, err
	}

	if f.recipient != nil {
		var sb *security.SecureBody
		if f.legacy {
			sb, err = f.cipher.EncryptLegacy(body, f.recipient)
		} else {
			sb, err = f.cipher.Encrypt(body, f.recipient)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt body: %w", err)
		}
		body, err = json.Marshal(sb)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal secure body: %w", err)
		}
	}

	ts := msg.Timestamp
	if ts == 0 {
		ts = f.clock()
	}
	return wire.Encode(msg.Topic, string(body), uint8(msg.Priority), wire.WithTimestamp(ts))
}

// FillSlot encodes msg directly into a transport-owned slot, the zero-copy
// path: nothing is allocated for the envelope itself.
func (f *EnvelopeFactory) FillSlot(slot *wire.Envelope, msg *contracts.Message) error {
	if slot == nil {
		return fmt.Errorf("slot cannot be nil")
	}
	env, err := f.NewEnvelope(msg)
	if err != nil {
		return err
	}
	*slot = *env
	return nil
}
