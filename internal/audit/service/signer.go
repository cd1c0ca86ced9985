// Package service provides the tamper-evidence signer for audit records.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
	apperrors "github.com/guardianlk/guardian/internal/errors"
)

// ErrSignatureInvalid is returned by Verify when a record's signature does
// not match its contents.
var ErrSignatureInvalid = apperrors.New("audit record signature invalid")

// Signer seals audit records with HMAC-SHA256 so after-the-fact edits to the
// log are detectable. The signing key is derived from the PII data key via
// HKDF-SHA256, separating signing use from encryption use.
type Signer struct {
	signingKey []byte
}

// NewSigner derives the audit signing key from the process data key.
// Info string is versioned so a future algorithm change can re-derive
// without ambiguity.
func NewSigner(dataKey []byte) (*Signer, error) {
	kdf := hkdf.New(sha256.New, dataKey, nil, []byte("audit-record-signing-v1"))

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}

	return &Signer{signingKey: signingKey}, nil
}

// Sign computes the HMAC-SHA256 signature for a record.
func (s *Signer) Sign(rec *auditDomain.Record) ([]byte, error) {
	canonical, err := canonicalize(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize record: %w", err)
	}

	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks a record's signature. Returns ErrSignatureInvalid when the
// record has been tampered with since signing.
func (s *Signer) Verify(rec *auditDomain.Record) error {
	expected, err := s.Sign(rec)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(rec.Signature, expected) {
		return ErrSignatureInvalid
	}

	return nil
}

// canonicalize converts a record to a deterministic byte representation.
// Variable-length fields are length-prefixed to prevent ambiguity between
// adjacent values.
func canonicalize(rec *auditDomain.Record) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, rec.ID[:]...)

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(rec.Timestamp.UnixNano()))
	buf = append(buf, timeBytes...)

	actor := ""
	if rec.ActorID != nil {
		actor = *rec.ActorID
	}
	entityID := ""
	if rec.EntityID != nil {
		entityID = *rec.EntityID
	}

	for _, field := range []string{
		actor, rec.IP, rec.UserAgent, rec.Method, rec.Path,
		rec.Action, rec.Entity, entityID,
	} {
		buf = appendLengthPrefixed(buf, []byte(field))
	}

	if rec.Metadata != nil {
		metadataBytes, err := json.Marshal(rec.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}
