package service

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/guardianlk/guardian/internal/errors"
)

func newTestKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestNewCipher(t *testing.T) {
	t.Run("valid 256-bit key", func(t *testing.T) {
		cipher, err := NewCipher(newTestKey(t))
		assert.NoError(t, err)
		assert.NotNil(t, cipher)
	})

	t.Run("invalid key size - too short", func(t *testing.T) {
		cipher, err := NewCipher(make([]byte, 16))
		assert.Error(t, err)
		assert.Nil(t, cipher)
	})

	t.Run("invalid key size - too large", func(t *testing.T) {
		cipher, err := NewCipher(make([]byte, 64))
		assert.Error(t, err)
		assert.Nil(t, cipher)
	})
}

func TestCipher_SealOpen(t *testing.T) {
	cipher, err := NewCipher(newTestKey(t))
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		for _, plain := range []string{"0771234567", "a", "some longer value with spaces", "ñ unicode ☂"} {
			blob, err := cipher.Seal(plain)
			require.NoError(t, err)
			assert.NotEqual(t, plain, blob)

			got, err := cipher.Open(blob)
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		}
	})

	t.Run("empty plaintext is not encrypted", func(t *testing.T) {
		blob, err := cipher.Seal("")
		assert.NoError(t, err)
		assert.Empty(t, blob)

		got, err := cipher.Open("")
		assert.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("seal is non-deterministic", func(t *testing.T) {
		first, err := cipher.Seal("same value")
		require.NoError(t, err)
		second, err := cipher.Seal("same value")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("payload layout is nonce tag ciphertext", func(t *testing.T) {
		blob, err := cipher.Seal("x")
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)
		// 12-byte nonce + 16-byte tag + 1 byte of ciphertext
		assert.Len(t, raw, nonceSize+tagSize+1)
	})
}

func TestCipher_Open_TamperDetection(t *testing.T) {
	cipher, err := NewCipher(newTestKey(t))
	require.NoError(t, err)

	blob, err := cipher.Seal("sensitive value")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	t.Run("flipping any byte fails authentication", func(t *testing.T) {
		for i := range raw {
			tampered := make([]byte, len(raw))
			copy(tampered, raw)
			tampered[i] ^= 0x01

			got, err := cipher.Open(base64.StdEncoding.EncodeToString(tampered))
			assert.Error(t, err, "byte %d", i)
			assert.ErrorIs(t, err, apperrors.ErrDecryptionFailed, "byte %d", i)
			assert.Empty(t, got, "byte %d", i)
		}
	})

	t.Run("wrong key fails authentication", func(t *testing.T) {
		other, err := NewCipher(newTestKey(t))
		require.NoError(t, err)

		got, err := other.Open(blob)
		assert.ErrorIs(t, err, apperrors.ErrDecryptionFailed)
		assert.Empty(t, got)
	})

	t.Run("malformed base64", func(t *testing.T) {
		_, err := cipher.Open("not-base64!!!")
		assert.ErrorIs(t, err, apperrors.ErrDecryptionFailed)
	})

	t.Run("payload too short", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("short"))
		_, err := cipher.Open(short)
		assert.ErrorIs(t, err, apperrors.ErrDecryptionFailed)
	})
}
