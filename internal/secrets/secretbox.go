// Package secrets seals wallet signing keys at rest.
package secrets

import (
	"crypto/rand"  // Nonce generation
	"encoding/hex" // Key decoding
	"errors"       // Sentinel errors
	"fmt"          // Error wrapping
	"io"           // ReadFull

	"golang.org/x/crypto/nacl/secretbox" // Authenticated symmetric encryption
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	// ErrInvalidKey is returned when the configured key is not 32 hex-encoded bytes.
	ErrInvalidKey = errors.New("secret key must be 32 bytes, hex encoded")
	// ErrDecrypt is returned when a ciphertext is truncated or fails authentication.
	ErrDecrypt = errors.New("ciphertext could not be decrypted")
)

// Store encrypts and decrypts small secrets such as ledger signing seeds.
type Store interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// SecretBox is a Store backed by NaCl secretbox (XSalsa20-Poly1305).
// Ciphertexts are the 24 byte nonce followed by the sealed box.
type SecretBox struct {
	key [keySize]byte
}

var _ Store = (*SecretBox)(nil)

// NewSecretBox parses a hex encoded 32 byte key.
func NewSecretBox(hexKey string) (*SecretBox, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil || len(raw) != keySize {
		return nil, ErrInvalidKey
	}
	sb := &SecretBox{}
	copy(sb.key[:], raw)
	return sb, nil
}

func (s *SecretBox) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

func (s *SecretBox) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize+secretbox.Overhead {
		return nil, ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])
	plaintext, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
