package messaging

import "errors"

var (
	// ErrMalformedSecureBody reports a body naming a secure_key without the
	// rest of the hybrid fields. Any secure_key pairing is treated as
	// intentionally hybrid-encrypted, so such a body is a decryption error,
	// never retried as legacy or delivered as plaintext.
	ErrMalformedSecureBody = errors.New("messaging: malformed hybrid body")

	// ErrNoPrivateKey reports an encrypted body arriving at an adapter with no
	// private key configured.
	ErrNoPrivateKey = errors.New("messaging: encrypted body but no private key configured")

	// ErrDispatcherStopped reports a send on a dispatcher that is not running.
	ErrDispatcherStopped = errors.New("messaging: dispatcher is not running")

	// ErrDispatcherRunning reports a second Start on a running dispatcher.
	ErrDispatcherRunning = errors.New("messaging: dispatcher already running")

	// ErrQueueFull reports a send that would block because the dispatch queue
	// is at capacity.
	ErrQueueFull = errors.New("messaging: dispatch queue is full")
)
