// Package wire implements the fixed-size binary envelope exchanged between
// processes.
//
// The envelope layout never changes size regardless of content: every field
// sits at a fixed offset and variable-length fields are zero-padded to their
// capacity with the true length stored alongside. That property is what allows
// an envelope to be written by value into a pre-allocated shared-memory slot
// with no serialization copy between processes.
//
// Envelopes received from other processes are untrusted: declared lengths are
// validated before any slicing and the declared ranges must decode as valid
// UTF-8.
package wire
