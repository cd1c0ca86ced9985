package pii

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoService "github.com/guardianlk/guardian/internal/crypto/service"
	apperrors "github.com/guardianlk/guardian/internal/errors"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cipher, err := cryptoService.NewCipher(key)
	require.NoError(t, err)

	return NewCodec(cipher)
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	for _, plain := range []string{"0771234567", "Jane", "1990-04-12", "value with spaces"} {
		t.Run(plain, func(t *testing.T) {
			stored, err := codec.EncodeField(plain)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(stored, FormatTagV1))
			assert.NotEqual(t, plain, stored)
			assert.NotContains(t, stored, plain)

			got, err := codec.DecodeField(stored)
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		})
	}
}

func TestCodec_EmptyValues(t *testing.T) {
	codec := newTestCodec(t)

	t.Run("encode empty yields empty, never an empty tagged value", func(t *testing.T) {
		stored, err := codec.EncodeField("")
		assert.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("decode empty yields empty", func(t *testing.T) {
		plain, err := codec.DecodeField("")
		assert.NoError(t, err)
		assert.Empty(t, plain)
	})
}

func TestCodec_LegacyPlaintextPassthrough(t *testing.T) {
	codec := newTestCodec(t)

	// Rows written before encryption was introduced have no format tag and
	// must come back unchanged.
	for _, legacy := range []string{"Jane", "0771234567", "enc:v2:future-format"} {
		got, err := codec.DecodeField(legacy)
		assert.NoError(t, err)
		assert.Equal(t, legacy, got)
	}
}

func TestCodec_TamperedValue(t *testing.T) {
	codec := newTestCodec(t)

	stored, err := codec.EncodeField("sensitive")
	require.NoError(t, err)

	// Corrupt one character of the payload past the tag.
	payload := []byte(stored[len(FormatTagV1):])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := FormatTagV1 + string(payload)

	got, err := codec.DecodeField(tampered)
	assert.ErrorIs(t, err, apperrors.ErrDecryptionFailed)
	assert.Empty(t, got)
}

func TestCodec_DecodeNamedField(t *testing.T) {
	codec := newTestCodec(t)

	t.Run("failure carries the field name", func(t *testing.T) {
		_, err := codec.DecodeNamedField("contact_number", FormatTagV1+"garbage")
		require.Error(t, err)

		var fieldErr *FieldError
		require.ErrorAs(t, err, &fieldErr)
		assert.Equal(t, "contact_number", fieldErr.Field)
		assert.ErrorIs(t, err, apperrors.ErrDecryptionFailed)
	})

	t.Run("success is transparent", func(t *testing.T) {
		stored, err := codec.EncodeField("0771234567")
		require.NoError(t, err)

		plain, err := codec.DecodeNamedField("contact_number", stored)
		assert.NoError(t, err)
		assert.Equal(t, "0771234567", plain)
	})
}

func TestParseStoredField(t *testing.T) {
	t.Run("tagged value", func(t *testing.T) {
		field := ParseStoredField(FormatTagV1 + "payload")
		assert.Equal(t, FieldSealed, field.Kind)
		assert.Equal(t, 1, field.Version)
		assert.Equal(t, "payload", field.Payload)
	})

	t.Run("plain value", func(t *testing.T) {
		field := ParseStoredField("plain value")
		assert.Equal(t, FieldPlain, field.Kind)
		assert.Equal(t, "plain value", field.Payload)
	})

	t.Run("IsEncoded", func(t *testing.T) {
		assert.True(t, IsEncoded(FormatTagV1+"x"))
		assert.False(t, IsEncoded("x"))
		assert.False(t, IsEncoded(""))
	})
}
