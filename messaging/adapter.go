package messaging

import (
	"crypto/rsa"
	"fmt"
	"log/slog"

	"github.com/Jeffail/gabs/v2"

	"github.com/slotwire/slotwire-go/contracts"
	"github.com/slotwire/slotwire-go/security"
	"github.com/slotwire/slotwire-go/wire"
)

// SecureEnvelopeAdapter decodes envelopes and transparently opens encrypted
// bodies when it holds the recipient private key. Classification happens over
// the parsed body, so the transport never needs to understand encryption.
type SecureEnvelopeAdapter struct {
	cipher *security.Cipher
	priv   *rsa.PrivateKey
	logger *slog.Logger
}

// AdapterOption configures the adapter.
type AdapterOption func(*SecureEnvelopeAdapter)

// WithPrivateKey enables decryption of hybrid and legacy bodies.
func WithPrivateKey(priv *rsa.PrivateKey) AdapterOption {
	return func(a *SecureEnvelopeAdapter) {
		a.priv = priv
	}
}

// WithAdapterCipher overrides the cipher, mainly to inject a deterministic
// randomness source in tests.
func WithAdapterCipher(c *security.Cipher) AdapterOption {
	return func(a *SecureEnvelopeAdapter) {
		a.cipher = c
	}
}

// WithAdapterLogger sets the logger.
func WithAdapterLogger(logger *slog.Logger) AdapterOption {
	return func(a *SecureEnvelopeAdapter) {
		a.logger = logger
	}
}

// NewSecureEnvelopeAdapter creates an adapter. Without a private key it still
// decodes and classifies; encrypted bodies then fail per message.
func NewSecureEnvelopeAdapter(opts ...AdapterOption) *SecureEnvelopeAdapter {
	a := &SecureEnvelopeAdapter{
		cipher: security.NewCipher(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Delivery is one opened message, ready for the receiving application.
type Delivery struct {
	Topic     string
	Priority  contracts.Priority
	Timestamp uint64
	Kind      BodyKind
	Body      *gabs.Container
}

// Open decodes an envelope, classifies the body and, for encrypted kinds,
// recovers and re-parses the plaintext. Every error is scoped to this message
// only: callers drop it and keep processing subsequent messages. An encrypted
// body is never downgraded to plaintext on failure.
func (a *SecureEnvelopeAdapter) Open(env *wire.Envelope) (*Delivery, error) {
	dec, err := env.Decode()
	if err != nil {
		return nil, err
	}

	body := ParseBody(dec.Body)
	kind := ClassifyBody(body)
	d := &Delivery{
		Topic:     dec.Topic,
		Priority:  contracts.Priority(dec.Priority),
		Timestamp: dec.Timestamp,
		Kind:      kind,
		Body:      body,
	}

	switch kind {
	case BodyPlaintext:
		return d, nil
	case BodyMalformed:
		return nil, fmt.Errorf("topic %s: %w", dec.Topic, ErrMalformedSecureBody)
	}

	if a.priv == nil {
		return nil, fmt.Errorf("topic %s: %w", dec.Topic, ErrNoPrivateKey)
	}

	plaintext, err := a.cipher.Decrypt(secureBodyFrom(body), a.priv)
	if err != nil {
		return nil, fmt.Errorf("topic %s: %w", dec.Topic, err)
	}
	opened, err := gabs.ParseJSON(plaintext)
	if err != nil {
		return nil, fmt.Errorf("topic %s: decrypted body is not valid JSON: %w", dec.Topic, err)
	}

	a.logger.Debug("opened encrypted body",
		"topic", dec.Topic,
		"kind", kind.String(),
	)
	d.Body = opened
	return d, nil
}
