package contracts

import "fmt"

// Priority is the single-byte message priority carried in the wire envelope.
// The wire format admits any byte value; only the four named values have
// semantics.
type Priority uint8

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// String returns the canonical name for the four known priorities and
// Unknown(n) for any other byte value.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityNormal:
		return "Normal"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(p))
	}
}

// ParsePriority maps a canonical name back to its priority value. The second
// return value is false for names outside the closed scale.
func ParsePriority(name string) (Priority, bool) {
	switch name {
	case "Low":
		return PriorityLow, true
	case "Normal":
		return PriorityNormal, true
	case "High":
		return PriorityHigh, true
	case "Critical":
		return PriorityCritical, true
	default:
		return PriorityNormal, false
	}
}

// ActionRequired reports whether receivers should treat messages at this
// priority as requiring action. By convention High and Critical do.
func (p Priority) ActionRequired() bool {
	return p >= PriorityHigh && p <= PriorityCritical
}
