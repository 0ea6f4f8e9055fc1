// Package secrets encrypts per-chat credentials at rest.
//
// Values are sealed with AES-256-GCM under a key derived from the process-wide
// encryption secret (PBKDF2-SHA-256). The stored form is
// "v1:" + base64(nonce | ciphertext | tag).
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	versionPrefix = "v1:"
	keySize       = 32

	// kdfIterations is paid once at startup, not per message.
	kdfIterations = 210000
)

// kdfSalt is fixed so that the same secret always yields the same key across restarts.
var kdfSalt = []byte("wallu-telegram/chat-credentials")

var (
	// ErrMissingSecret is returned when no encryption secret is configured.
	ErrMissingSecret = errors.New("encryption secret is not set")
	// ErrInvalidCiphertext indicates a stored value that is not in the expected format.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	// ErrDecryptionFailed indicates the value was sealed with another secret or was tampered with.
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

// Cipher seals and opens credential values.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the data key from secret. An empty secret is refused so the
// process never falls back to storing plaintext.
func NewCipher(secret string) (*Cipher, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}

	key := pbkdf2.Key([]byte(secret), kdfSalt, kdfIterations, keySize, sha256.New)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create block cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plain with a fresh random nonce.
func (c *Cipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return versionPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	if !strings.HasPrefix(encoded, versionPrefix) {
		return "", ErrInvalidCiphertext
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(encoded, versionPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}
	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
