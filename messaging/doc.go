// Package messaging composes the wire envelope codec and the security cipher
// into a sending and receiving pipeline.
//
// The package implements the core patterns:
//   - EnvelopeFactory: builds fixed-size envelopes from logical messages,
//     transparently encrypting bodies for a configured recipient
//   - SecureEnvelopeAdapter: decodes envelopes and classifies their bodies as
//     plaintext, hybrid-encrypted or legacy-encrypted before dispatch
//   - Dispatcher: owns a transport handle and serializes sends through one
//     background goroutine
//   - Receiver: non-blocking poll loop with per-message error handling
//
// The transport itself stays behind the Transport interface: the core only
// assumes slot acquisition, publish with ownership transfer, and a
// non-blocking single-message poll. A handle must be driven by one logical
// goroutine; fan-out takes one handle per participant.
package messaging
