// Package cryptox seals small secrets at rest with AES-GCM under a key
// derived from a passphrase via argon2id.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length produced by DeriveKey.
const KeySize = 32

var ErrMalformedBlob = errors.New("malformed sealed blob")

// DeriveKey stretches passphrase with argon2id. The same passphrase and salt
// always yield the same key.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// Sealer encrypts and authenticates values with a fixed key.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer from a raw AES key (16, 24 or 32 bytes).
func NewSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewPassphraseSealer derives the key from passphrase and salt.
func NewPassphraseSealer(passphrase, salt []byte) (*Sealer, error) {
	return NewSealer(DeriveKey(passphrase, salt))
}

// Seal returns nonce || ciphertext. A fresh random nonce is used per call.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. Tampered or truncated input yields an error.
func (s *Sealer) Open(blob []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(blob) < n+s.aead.Overhead() {
		return nil, ErrMalformedBlob
	}
	plaintext, err := s.aead.Open(nil, blob[:n], blob[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plaintext, nil
}
