// Package contracts provides the core message types for the slotwire messaging library.
//
// This package defines the logical message exchanged between processes:
//   - Message: the JSON message carried inside a wire envelope body
//   - Priority: the four-value ordinal priority scale
//   - Topic namespace conventions shared by senders and receivers
//
// Messages are plain serializable records with no behavior beyond construction
// helpers; routing and handling belong to the receiving application.
package contracts
