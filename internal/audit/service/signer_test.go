package service

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/guardianlk/guardian/internal/audit/domain"
)

func testRecord() *auditDomain.Record {
	actor := "u42"
	entityID := "f1"
	return &auditDomain.Record{
		ID:        uuid.Must(uuid.NewV7()),
		Timestamp: time.Now().UTC(),
		ActorID:   &actor,
		IP:        "203.0.113.7",
		UserAgent: "Mozilla/5.0",
		Method:    "GET",
		Path:      "/api/v1/files/download?token=" + "[redacted]",
		Action:    auditDomain.ActionFileDownload,
		Entity:    "file",
		EntityID:  &entityID,
		Metadata:  map[string]any{"mime": "image/jpeg"},
	}
}

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	signer, err := NewSigner(key)
	require.NoError(t, err)
	return signer
}

func TestSigner_SignAndVerify(t *testing.T) {
	signer := newTestSigner(t)
	rec := testRecord()

	sig, err := signer.Sign(rec)
	require.NoError(t, err)
	assert.Len(t, sig, 32)

	rec.Signature = sig
	assert.NoError(t, signer.Verify(rec))
}

func TestSigner_Verify_DetectsTampering(t *testing.T) {
	signer := newTestSigner(t)

	t.Run("modified field", func(t *testing.T) {
		rec := testRecord()
		sig, err := signer.Sign(rec)
		require.NoError(t, err)
		rec.Signature = sig

		rec.Action = auditDomain.ActionFileUpload
		assert.ErrorIs(t, signer.Verify(rec), ErrSignatureInvalid)
	})

	t.Run("modified metadata", func(t *testing.T) {
		rec := testRecord()
		sig, err := signer.Sign(rec)
		require.NoError(t, err)
		rec.Signature = sig

		rec.Metadata["mime"] = "image/png"
		assert.ErrorIs(t, signer.Verify(rec), ErrSignatureInvalid)
	})

	t.Run("cleared actor", func(t *testing.T) {
		rec := testRecord()
		sig, err := signer.Sign(rec)
		require.NoError(t, err)
		rec.Signature = sig

		rec.ActorID = nil
		assert.ErrorIs(t, signer.Verify(rec), ErrSignatureInvalid)
	})

	t.Run("truncated signature", func(t *testing.T) {
		rec := testRecord()
		sig, err := signer.Sign(rec)
		require.NoError(t, err)
		rec.Signature = sig[:16]

		assert.ErrorIs(t, signer.Verify(rec), ErrSignatureInvalid)
	})
}

func TestSigner_DifferentKeysDisagree(t *testing.T) {
	first := newTestSigner(t)
	second := newTestSigner(t)

	rec := testRecord()
	sig, err := first.Sign(rec)
	require.NoError(t, err)
	rec.Signature = sig

	assert.NoError(t, first.Verify(rec))
	assert.ErrorIs(t, second.Verify(rec), ErrSignatureInvalid)
}

func TestSigner_NilMetadata(t *testing.T) {
	signer := newTestSigner(t)

	rec := testRecord()
	rec.Metadata = nil

	sig, err := signer.Sign(rec)
	require.NoError(t, err)
	rec.Signature = sig
	assert.NoError(t, signer.Verify(rec))
}
