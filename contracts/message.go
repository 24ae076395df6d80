package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is the logical unit exchanged between processes. It travels as UTF-8
// JSON inside the body field of a wire envelope and is constructed once at send
// time; it has no identity or mutation after that.
type Message struct {
	Topic     string            `json:"topic"`
	Payload   json.RawMessage   `json:"payload"`
	Priority  Priority          `json:"priority"`
	Source    string            `json:"source,omitempty"`
	Timestamp uint64            `json:"timestamp"`
	ID        string            `json:"id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewMessage creates a message with a generated ID, Normal priority and the
// current timestamp in milliseconds since epoch.
func NewMessage(topic string, payload json.RawMessage) *Message {
	return &Message{
		Topic:     topic,
		Payload:   payload,
		Priority:  PriorityNormal,
		Timestamp: uint64(time.Now().UnixMilli()),
		ID:        uuid.New().String(),
	}
}

// WithPriority sets the priority.
func (m *Message) WithPriority(p Priority) *Message {
	m.Priority = p
	return m
}

// WithSource records the sending process or component.
func (m *Message) WithSource(source string) *Message {
	m.Source = source
	return m
}

// WithID overrides the generated message ID.
func (m *Message) WithID(id string) *Message {
	m.ID = id
	return m
}

// WithMetadata adds a metadata entry.
func (m *Message) WithMetadata(key, value string) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
	return m
}

// ToJSON serializes the message for placement in an envelope body.
func (m *Message) ToJSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

// ParseMessage deserializes a message from an envelope body.
func ParseMessage(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &msg, nil
}
