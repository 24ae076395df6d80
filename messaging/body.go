package messaging

import (
	"github.com/Jeffail/gabs/v2"

	"github.com/slotwire/slotwire-go/security"
)

// BodyKind classifies a decoded body by the presence of the secure fields.
// The four kinds are terminal for a single message.
type BodyKind int

const (
	// BodyPlaintext is a body with neither secure_key nor secure_payload.
	BodyPlaintext BodyKind = iota
	// BodyHybrid carries secure_key, iv and secure_payload.
	BodyHybrid
	// BodyLegacy carries only secure_payload, encrypted directly under RSA.
	BodyLegacy
	// BodyMalformed names a secure_key without the rest of the hybrid fields.
	BodyMalformed
)

// String returns a human-readable kind name.
func (k BodyKind) String() string {
	switch k {
	case BodyPlaintext:
		return "plaintext"
	case BodyHybrid:
		return "hybrid"
	case BodyLegacy:
		return "legacy"
	case BodyMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ParseBody parses an envelope body as JSON. Body content is written by a
// remote process and must never take the receiver down: parse failures come
// back as a sentinel error object instead of a hard failure.
func ParseBody(body string) *gabs.Container {
	c, err := gabs.ParseJSON([]byte(body))
	if err != nil {
		sentinel := gabs.New()
		sentinel.Set("malformed json", "error")
		sentinel.Set(body, "raw")
		return sentinel
	}
	return c
}

// ClassifyBody decides how a parsed body is handled, checking in the order
// Hybrid, Legacy, Plaintext. Any body naming a secure_key is treated as
// intentionally hybrid-encrypted; one missing its iv or payload is malformed
// rather than reinterpreted as legacy.
func ClassifyBody(c *gabs.Container) BodyKind {
	hasKey := c.Exists("secure_key")
	hasPayload := c.Exists("secure_payload")
	switch {
	case hasKey && hasPayload && c.Exists("iv"):
		return BodyHybrid
	case hasKey:
		return BodyMalformed
	case hasPayload:
		return BodyLegacy
	default:
		return BodyPlaintext
	}
}

// secureBodyFrom extracts the three secure fields from a parsed body. Other
// application fields are ignored by the cipher.
func secureBodyFrom(c *gabs.Container) *security.SecureBody {
	sb := &security.SecureBody{}
	if v, ok := c.Path("secure_key").Data().(string); ok {
		sb.SecureKey = v
	}
	if v, ok := c.Path("iv").Data().(string); ok {
		sb.IV = v
	}
	if v, ok := c.Path("secure_payload").Data().(string); ok {
		sb.SecurePayload = v
	}
	return sb
}
