// Package service implements the envelope cipher used to protect PII fields
// at rest, and the key providers that supply its process-wide key.
package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	apperrors "github.com/guardianlk/guardian/internal/errors"
)

const (
	nonceSize = 12
	tagSize   = 16
)

// Cipher performs authenticated encryption of individual string values using
// AES-256-GCM under a single process-wide key.
//
// Sealed values are laid out as base64(nonce || auth-tag || ciphertext) with a
// fresh random 96-bit nonce per call, so sealing the same plaintext twice
// yields distinct outputs. That non-determinism is required: ciphertext
// equality must not leak equality of the underlying PII.
//
// The cipher instance is stateless after construction and safe for concurrent
// use from multiple goroutines.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a 32-byte (256-bit) key. The key length is
// validated here so a misconfigured process fails at startup rather than at
// the first encrypt call.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, errors.New("key must be exactly 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Seal encrypts a single value and returns the base64-encoded envelope.
// An empty plaintext is returned as-is: absent values are never padded into
// ciphertext, which lets the field codec map them to stored NULLs.
func (c *Cipher) Seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// GCM appends the auth tag to the ciphertext; reorder into the stored
	// layout nonce || tag || ciphertext.
	sealed := c.aead.Seal(nil, nonce, []byte(plain), nil)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	blob := make([]byte, 0, nonceSize+tagSize+len(ct))
	blob = append(blob, nonce...)
	blob = append(blob, tag...)
	blob = append(blob, ct...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Open decrypts an envelope produced by Seal. Any tampering with the nonce,
// tag, or ciphertext, and any key mismatch, yields ErrDecryptionFailed;
// garbage plaintext is never returned. An empty blob decodes to the empty
// string, mirroring Seal.
func (c *Cipher) Open(blob string) (string, error) {
	if blob == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrDecryptionFailed, "invalid base64 payload")
	}
	if len(raw) < nonceSize+tagSize {
		return "", apperrors.Wrap(apperrors.ErrDecryptionFailed, "payload too short")
	}

	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ct := raw[nonceSize+tagSize:]

	// Rebuild ciphertext || tag for GCM.
	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrDecryptionFailed, "authentication failed")
	}

	return string(plain), nil
}
