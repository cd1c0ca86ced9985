package redact

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "email",
			input: "contact me at jane.doe+reports@example.org please",
			want:  "contact me at [redacted] please",
		},
		{
			name:  "legacy NIC with check letter",
			input: "NIC 853461273V reported",
			want:  "NIC [redacted] reported",
		},
		{
			name:  "legacy NIC lowercase x",
			input: "id 853461273x",
			want:  "id [redacted]",
		},
		{
			name:  "modern 12-digit NIC",
			input: "nic: 199012345678 end",
			want:  "nic: [redacted] end",
		},
		{
			name:  "local phone number",
			input: "call 0771234567 now",
			want:  "call [redacted] now",
		},
		{
			name:  "international phone with separators",
			input: "call +94 77 123 4567 now",
			want:  "call [redacted] now",
		},
		{
			name:  "plain text untouched",
			input: "nothing sensitive here",
			want:  "nothing sensitive here",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}

func TestText_OrderingIDBeforePhone(t *testing.T) {
	// A 12-digit NIC must be consumed whole by the ID rule. If the generic
	// phone pattern ran first it could match a prefix of the digits and leak
	// the remainder.
	got := Text("id 199012345678 phone 0771234567")
	assert.Equal(t, "id [redacted] phone [redacted]", got)
	assert.NotContains(t, got, "5678")
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"email jane@example.org, nic 853461273V, phone +94 77 123 4567",
		"already [redacted] here",
		"id 199012345678",
	}
	for _, input := range inputs {
		once := Text(input)
		twice := Text(once)
		assert.Equal(t, once, twice, "input %q", input)
	}
}

func TestPath(t *testing.T) {
	marker := url.QueryEscape(Marker)

	t.Run("rewrites sensitive params only", func(t *testing.T) {
		got := Path("/api/v1/files/download?token=abc123&page=2")
		assert.NotContains(t, got, "abc123")
		assert.Contains(t, got, "page=2")
		assert.Contains(t, got, "token="+marker)
		assert.True(t, strings.HasPrefix(got, "/api/v1/files/download?"))
	})

	t.Run("case-insensitive param names", func(t *testing.T) {
		got := Path("/login?Access_Token=secret&PASSWORD=hunter2")
		assert.NotContains(t, got, "secret")
		assert.NotContains(t, got, "hunter2")
	})

	t.Run("all sensitive names", func(t *testing.T) {
		got := Path("/x?token=a&access_token=b&refresh_token=c&code=d&password=e&keep=f")
		for _, leaked := range []string{"=a&", "=b&", "=c&", "=d&", "=e&"} {
			assert.NotContains(t, got+"&", leaked)
		}
		assert.Contains(t, got, "keep=f")
	})

	t.Run("path without query is unchanged", func(t *testing.T) {
		assert.Equal(t, "/api/v1/reports/42", Path("/api/v1/reports/42"))
	})

	t.Run("non-sensitive query is unchanged", func(t *testing.T) {
		assert.Equal(t, "/search?q=lost+wallet&page=3", Path("/search?q=lost+wallet&page=3"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", Path(""))
	})

	t.Run("malformed input falls back to regex substitution", func(t *testing.T) {
		// Bad percent-escape makes query parsing fail.
		got := Path("/cb?code=secret%zz&state=ok")
		assert.NotContains(t, got, "secret")
		assert.Contains(t, got, "code="+Marker)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Path("/download?token=abc&page=1")
		twice := Path(once)
		assert.Equal(t, once, twice)
	})
}

func TestPath_AbsoluteURL(t *testing.T) {
	got := Path("https://api.example.org/v1/session?refresh_token=tok123")
	require.NotContains(t, got, "tok123")
	assert.Contains(t, got, "/v1/session")
}
