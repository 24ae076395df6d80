// Package security implements the hybrid encryption scheme for envelope
// bodies.
//
// A body addressed to the holder of an RSA private key is encrypted with a
// fresh AES-256-GCM key per message, and that key is wrapped with the
// recipient's RSA public key (PKCS#1 v1.5). The three resulting fields travel
// base64-encoded inside the body JSON, so the transport never needs to know
// about encryption. A legacy RSA-only mode is retained for receivers that
// never adopted the hybrid scheme; it is limited to the RSA modulus minus
// padding overhead.
//
// The sender needs nothing from the recipient except its public key, exported
// as a PEM-encoded SubjectPublicKeyInfo block for out-of-band distribution.
package security
