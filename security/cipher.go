package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	// RSAKeyBits is the modulus size of generated key pairs.
	RSAKeyBits = 2048

	aesKeySize   = 32
	gcmNonceSize = 12

	// pkcs1v15 padding costs 11 bytes of the RSA modulus.
	legacyPaddingOverhead = 11
)

var (
	// ErrPlaintextTooLarge reports a legacy-mode plaintext over the RSA limit.
	ErrPlaintextTooLarge = errors.New("security: plaintext exceeds RSA capacity")
	// ErrKeyUnwrapFailed reports any failure to recover the wrapped message
	// key. It is deliberately uniform across padding and format errors so the
	// error cannot act as a padding oracle.
	ErrKeyUnwrapFailed = errors.New("security: failed to unwrap message key")
	// ErrAuthenticationFailed reports a ciphertext whose authentication tag
	// did not verify. Tampered or corrupted ciphertext is rejected, never
	// returned as garbage plaintext.
	ErrAuthenticationFailed = errors.New("security: ciphertext authentication failed")
)

// SecureBody is the JSON form an encrypted payload takes inside an envelope
// body. The hybrid variant carries all three fields; the legacy RSA-only
// variant carries only SecurePayload.
type SecureBody struct {
	SecureKey     string `json:"secure_key,omitempty"`
	IV            string `json:"iv,omitempty"`
	SecurePayload string `json:"secure_payload"`
}

// Cipher encrypts and decrypts envelope bodies. It is stateless apart from its
// randomness source and safe for concurrent use.
type Cipher struct {
	random io.Reader
}

// CipherOption configures a Cipher.
type CipherOption func(*Cipher)

// WithRandom overrides the randomness source used for key and nonce
// generation. Tests use this for determinism; production code should keep the
// default crypto/rand source.
func WithRandom(r io.Reader) CipherOption {
	return func(c *Cipher) {
		c.random = r
	}
}

// NewCipher creates a cipher backed by crypto/rand.
func NewCipher(opts ...CipherOption) *Cipher {
	c := &Cipher{random: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateKeyPair creates a 2048-bit RSA key pair with public exponent 65537.
// The public key is the only artifact a sender needs.
func (c *Cipher) GenerateKeyPair() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	priv, err := rsa.GenerateKey(c.random, RSAKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return priv, &priv.PublicKey, nil
}

// Encrypt encrypts a plaintext body for the holder of pub using the hybrid
// scheme: a fresh 256-bit key and 96-bit nonce are drawn for every call and
// never reused, the plaintext is sealed with AES-GCM (no associated data), and
// the message key is wrapped with RSA PKCS#1 v1.5. This is the mode senders
// should use: RSA alone cannot safely carry more than a few hundred bytes.
func (c *Cipher) Encrypt(plaintext []byte, pub *rsa.PublicKey) (*SecureBody, error) {
	if pub == nil {
		return nil, fmt.Errorf("public key cannot be nil")
	}

	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(c.random, key); err != nil {
		return nil, fmt.Errorf("failed to generate message key: %w", err)
	}
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AES: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)

	wrapped, err := rsa.EncryptPKCS1v15(c.random, pub, key)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap message key: %w", err)
	}

	return &SecureBody{
		SecureKey:     base64.StdEncoding.EncodeToString(wrapped),
		IV:            base64.StdEncoding.EncodeToString(nonce),
		SecurePayload: base64.StdEncoding.EncodeToString(sealed),
	}, nil
}

// EncryptLegacy encrypts the plaintext directly under RSA PKCS#1 v1.5.
// Retained only for compatibility with receivers that never adopted the hybrid
// scheme; a 2048-bit key caps the plaintext at 245 bytes.
func (c *Cipher) EncryptLegacy(plaintext []byte, pub *rsa.PublicKey) (*SecureBody, error) {
	if pub == nil {
		return nil, fmt.Errorf("public key cannot be nil")
	}
	if limit := pub.Size() - legacyPaddingOverhead; len(plaintext) > limit {
		return nil, fmt.Errorf("plaintext is %d bytes, limit %d: %w", len(plaintext), limit, ErrPlaintextTooLarge)
	}

	encrypted, err := rsa.EncryptPKCS1v15(c.random, pub, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt payload: %w", err)
	}
	return &SecureBody{
		SecurePayload: base64.StdEncoding.EncodeToString(encrypted),
	}, nil
}

// Decrypt recovers the plaintext of a secure body. A body carrying a
// secure_key takes the hybrid path; one carrying only a secure_payload takes
// the legacy path. Failures are scoped to the message: callers skip it and
// keep processing.
func (c *Cipher) Decrypt(body *SecureBody, priv *rsa.PrivateKey) ([]byte, error) {
	if body == nil {
		return nil, fmt.Errorf("secure body cannot be nil")
	}
	if priv == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if body.SecureKey != "" {
		return decryptHybrid(body, priv)
	}
	return decryptLegacy(body, priv)
}

func decryptHybrid(body *SecureBody, priv *rsa.PrivateKey) ([]byte, error) {
	wrapped, err := base64.StdEncoding.DecodeString(body.SecureKey)
	if err != nil {
		return nil, ErrKeyUnwrapFailed
	}
	nonce, err := base64.StdEncoding.DecodeString(body.IV)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	sealed, err := base64.StdEncoding.DecodeString(body.SecurePayload)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	key, err := rsa.DecryptPKCS1v15(nil, priv, wrapped)
	if err != nil {
		return nil, ErrKeyUnwrapFailed
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		// A wrong-size key means the unwrap produced garbage.
		return nil, ErrKeyUnwrapFailed
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrAuthenticationFailed
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

func decryptLegacy(body *SecureBody, priv *rsa.PrivateKey) ([]byte, error) {
	encrypted, err := base64.StdEncoding.DecodeString(body.SecurePayload)
	if err != nil {
		return nil, ErrKeyUnwrapFailed
	}
	plaintext, err := rsa.DecryptPKCS1v15(nil, priv, encrypted)
	if err != nil {
		return nil, ErrKeyUnwrapFailed
	}
	return plaintext, nil
}
