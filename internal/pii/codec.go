// Package pii implements the versioned field codec that protects
// personally-identifiable columns at rest.
//
// Encrypted values are stored in ordinary string columns with a fixed format
// tag prefix, so a table can hold a mix of legacy plaintext rows and
// encrypted rows during migration. The tag is the only thing that
// distinguishes the two: tagged values are decrypted on read, untagged
// values pass through unchanged.
package pii

import (
	"fmt"
	"strings"
)

// FormatTagV1 marks a value as version-1 ciphertext. Bumping the encryption
// scheme means introducing a new tag; v1 values stay readable.
const FormatTagV1 = "enc:v1:"

// EnvelopeCipher seals and opens individual values. Implemented by
// crypto/service.Cipher.
type EnvelopeCipher interface {
	Seal(plain string) (string, error)
	Open(blob string) (string, error)
}

// FieldKind discriminates the two states a stored value can be in.
type FieldKind int

const (
	// FieldPlain is a legacy plaintext value, opaque to this layer.
	FieldPlain FieldKind = iota
	// FieldSealed is a tagged, encrypted value.
	FieldSealed
)

// StoredField is the parsed form of a stored column value: either plaintext
// or a versioned ciphertext payload. The ambiguity inherent in prefix
// sniffing is kept explicit here instead of being implied by string contents.
type StoredField struct {
	Kind    FieldKind
	Version int
	// Payload is the raw plaintext for FieldPlain, or the base64 envelope
	// (tag stripped) for FieldSealed.
	Payload string
}

// ParseStoredField classifies a stored value by its format tag.
func ParseStoredField(stored string) StoredField {
	if rest, ok := strings.CutPrefix(stored, FormatTagV1); ok {
		return StoredField{Kind: FieldSealed, Version: 1, Payload: rest}
	}
	return StoredField{Kind: FieldPlain, Payload: stored}
}

// IsEncoded reports whether a stored value already carries a recognized
// format tag. Used by the backfill migration for its idempotence check.
func IsEncoded(stored string) bool {
	return strings.HasPrefix(stored, FormatTagV1)
}

// FieldError scopes a decode failure to a single attribute so one malformed
// column never corrupts or hides its siblings.
type FieldError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

// Unwrap exposes the underlying cause (typically ErrDecryptionFailed).
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Codec encodes and decodes PII fields for storage.
type Codec struct {
	cipher EnvelopeCipher
}

// NewCodec creates a field codec backed by the given envelope cipher.
func NewCodec(cipher EnvelopeCipher) *Codec {
	return &Codec{cipher: cipher}
}

// EncodeField seals a plaintext value and prefixes the format tag.
// Empty input maps to empty output so the repository layer stores NULL,
// never an empty tagged value.
func (c *Codec) EncodeField(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	blob, err := c.cipher.Seal(plain)
	if err != nil {
		return "", err
	}

	return FormatTagV1 + blob, nil
}

// DecodeField returns the plaintext for a stored value. Tagged values are
// decrypted; untagged values are returned unchanged, which is what keeps
// historical plaintext rows readable during and after migration.
func (c *Codec) DecodeField(stored string) (string, error) {
	field := ParseStoredField(stored)
	if field.Kind == FieldPlain {
		return field.Payload, nil
	}
	return c.cipher.Open(field.Payload)
}

// DecodeNamedField decodes a single attribute, wrapping any failure in a
// FieldError carrying the attribute name. Row-level helpers use this so a
// malformed column propagates a field-scoped error to the caller.
func (c *Codec) DecodeNamedField(name, stored string) (string, error) {
	plain, err := c.DecodeField(stored)
	if err != nil {
		return "", &FieldError{Field: name, Err: err}
	}
	return plain, nil
}
