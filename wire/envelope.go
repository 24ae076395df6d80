package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Field capacities and offsets of the envelope layout.
const (
	// TopicCapacity is the maximum UTF-8 byte length of a topic.
	TopicCapacity = 64
	// BodyCapacity is the maximum UTF-8 byte length of a body.
	BodyCapacity = 4096

	topicOffset     = 0
	topicLenOffset  = topicOffset + TopicCapacity
	bodyOffset      = topicLenOffset + 1
	bodyLenOffset   = bodyOffset + BodyCapacity
	priorityOffset  = bodyLenOffset + 2
	timestampOffset = priorityOffset + 1

	// EnvelopeSize is the constant serialized size of an envelope.
	EnvelopeSize = timestampOffset + 8
)

var (
	// ErrTopicTooLong reports a topic over 64 bytes, or a received envelope
	// declaring a topic length over 64.
	ErrTopicTooLong = errors.New("wire: topic exceeds 64 bytes")
	// ErrBodyTooLong reports a body over 4096 bytes, or a received envelope
	// declaring a body length over 4096.
	ErrBodyTooLong = errors.New("wire: body exceeds 4096 bytes")
	// ErrMalformedText reports a field whose declared range is not valid UTF-8.
	ErrMalformedText = errors.New("wire: field is not valid UTF-8")
	// ErrShortFrame reports a byte frame that is not exactly EnvelopeSize bytes.
	ErrShortFrame = errors.New("wire: frame is not a whole envelope")
)

// Envelope is the fixed-size record exchanged between processes. Bytes beyond
// the declared lengths are zero padding and carry no meaning. An envelope is
// built once at send time and transmitted by value.
type Envelope struct {
	Topic     [TopicCapacity]byte
	TopicLen  uint8
	Body      [BodyCapacity]byte
	BodyLen   uint16
	Priority  uint8
	Timestamp uint64
}

// Decoded holds the logical fields of an envelope after validation.
type Decoded struct {
	Topic     string
	Body      string
	Priority  uint8
	Timestamp uint64
}

// EncodeOption configures envelope encoding.
type EncodeOption func(*Envelope)

// WithTimestamp overrides the wall-clock timestamp (milliseconds since epoch).
// Tests use this for determinism.
func WithTimestamp(ms uint64) EncodeOption {
	return func(e *Envelope) {
		e.Timestamp = ms
	}
}

// Encode builds an envelope from a topic and a JSON body. Both fields are
// zero-padded to capacity and their true byte lengths stored alongside, so a
// payload may legitimately sit exactly at capacity. The timestamp defaults to
// the current time in milliseconds.
func Encode(topic, body string, priority uint8, opts ...EncodeOption) (*Envelope, error) {
	if len(topic) > TopicCapacity {
		return nil, fmt.Errorf("topic is %d bytes: %w", len(topic), ErrTopicTooLong)
	}
	if len(body) > BodyCapacity {
		return nil, fmt.Errorf("body is %d bytes: %w", len(body), ErrBodyTooLong)
	}

	env := &Envelope{
		TopicLen:  uint8(len(topic)),
		BodyLen:   uint16(len(body)),
		Priority:  priority,
		Timestamp: uint64(time.Now().UnixMilli()),
	}
	copy(env.Topic[:], topic)
	copy(env.Body[:], body)

	for _, opt := range opts {
		opt(env)
	}
	return env, nil
}

// Decode validates the declared lengths and extracts the logical fields. The
// buffer may originate from shared memory written by another process, so the
// lengths are checked before any slicing; padding bytes are never interpreted.
// Invalid UTF-8 within a declared length is an error, never silently replaced.
func (e *Envelope) Decode() (Decoded, error) {
	if int(e.TopicLen) > TopicCapacity {
		return Decoded{}, fmt.Errorf("declared topic length %d: %w", e.TopicLen, ErrTopicTooLong)
	}
	if int(e.BodyLen) > BodyCapacity {
		return Decoded{}, fmt.Errorf("declared body length %d: %w", e.BodyLen, ErrBodyTooLong)
	}

	topic := e.Topic[:e.TopicLen]
	body := e.Body[:e.BodyLen]
	if !utf8.Valid(topic) {
		return Decoded{}, fmt.Errorf("topic: %w", ErrMalformedText)
	}
	if !utf8.Valid(body) {
		return Decoded{}, fmt.Errorf("body: %w", ErrMalformedText)
	}

	return Decoded{
		Topic:     string(topic),
		Body:      string(body),
		Priority:  e.Priority,
		Timestamp: e.Timestamp,
	}, nil
}

// MarshalBinary serializes the envelope at its fixed offsets, little-endian,
// for transports that carry byte frames instead of shared-memory slots. The
// result is always exactly EnvelopeSize bytes.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	buf := make([]byte, EnvelopeSize)
	copy(buf[topicOffset:], e.Topic[:])
	buf[topicLenOffset] = e.TopicLen
	copy(buf[bodyOffset:], e.Body[:])
	binary.LittleEndian.PutUint16(buf[bodyLenOffset:], e.BodyLen)
	buf[priorityOffset] = e.Priority
	binary.LittleEndian.PutUint64(buf[timestampOffset:], e.Timestamp)
	return buf, nil
}

// UnmarshalBinary fills the envelope from a byte frame produced by
// MarshalBinary. Field validation is Decode's job; this only checks the frame
// size.
func (e *Envelope) UnmarshalBinary(data []byte) error {
	if len(data) != EnvelopeSize {
		return fmt.Errorf("got %d bytes, want %d: %w", len(data), EnvelopeSize, ErrShortFrame)
	}
	copy(e.Topic[:], data[topicOffset:topicLenOffset])
	e.TopicLen = data[topicLenOffset]
	copy(e.Body[:], data[bodyOffset:bodyLenOffset])
	e.BodyLen = binary.LittleEndian.Uint16(data[bodyLenOffset:])
	e.Priority = data[priorityOffset]
	e.Timestamp = binary.LittleEndian.Uint64(data[timestampOffset:])
	return nil
}
