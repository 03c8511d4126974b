// Package cryptox implements symmetric encryption for secrets at rest,
// currently the per-user completion API keys stored in model configs.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// Box encrypts and decrypts short strings with AES-GCM. The serialized form
// is base64(nonce || ciphertext), so each value carries its own nonce.
type Box struct {
	aead cipher.AEAD
}

// NewBox creates a Box from a raw AES key (16, 24, or 32 bytes).
func NewBox(key []byte) (*Box, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initializing gcm: %w", err)
	}

	return &Box{aead: aead}, nil
}

// EncryptString seals plaintext. Empty input passes through unchanged so that
// optional secrets (a model config without an API key) stay empty.
func (b *Box) EncryptString(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString opens a value produced by EncryptString. Empty input passes
// through unchanged.
func (b *Box) DecryptString(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	if len(raw) < b.aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := raw[:b.aead.NonceSize()], raw[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("opening ciphertext: %w", err)
	}

	return string(plaintext), nil
}
