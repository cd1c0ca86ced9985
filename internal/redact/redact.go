// Package redact scrubs PII-shaped substrings from free text and sensitive
// query parameters from request paths before anything is logged or sent to an
// external service.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

// Marker replaces every redacted substring. Redaction is idempotent: the
// marker itself matches none of the patterns below.
const Marker = "[redacted]"

// rule is one pattern -> replacement step of the text scrubber.
type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// textRules are evaluated in order. The national-ID patterns must run before
// the generic phone pattern: the looser phone regex would otherwise consume
// part of an ID number and leak a residual digit fragment. The final rule
// collapses a leading "+" left behind when a phone substitution ate the
// digits after an international prefix.
var textRules = []rule{
	{regexp.MustCompile(`\b[\w.%+-]+@[\w.-]+\.[A-Za-z]{2,}\b`), Marker},                      // email
	{regexp.MustCompile(`\b\d{9}[VvXx]\b`), Marker},                                          // NIC, legacy 9-digit + check letter
	{regexp.MustCompile(`\b\d{12}\b`), Marker},                                               // NIC, modern 12-digit
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[-.\s]?)?(?:\d{2,4}[-.\s]?){2,4}\d{2,4}\b`), Marker}, // phone
	{regexp.MustCompile(`\+\s*\[redacted\]`), Marker},                                        // "+ [redacted]" artifact
}

// sensitiveParams is the closed list of query parameters rewritten by Path.
var sensitiveParams = []string{"token", "access_token", "refresh_token", "code", "password"}

// paramFallbackRe is the best-effort substitution applied when URL parsing
// fails, so redaction degrades gracefully instead of returning an error.
var paramFallbackRe = regexp.MustCompile(`(?i)(token|access_token|refresh_token|code|password)=([^&#]+)`)

// placeholderBase resolves relative paths during parsing; it never appears in
// the output.
var placeholderBase = &url.URL{Scheme: "http", Host: "mask.local"}

// Text masks email addresses, national ID numbers, and phone-shaped digit
// runs with the redaction marker. Safe to call on already-redacted text.
func Text(s string) string {
	for _, r := range textRules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

// Path rewrites the closed set of sensitive query parameters in a URL
// (absolute or relative) to the redaction marker, preserving the path and all
// other parameters. Parameter names match case-insensitively. Malformed
// input falls back to a regex substitution over the same parameter names.
func Path(rawPath string) string {
	if rawPath == "" {
		return rawPath
	}

	u, err := placeholderBase.Parse(rawPath)
	if err != nil {
		return paramFallbackRe.ReplaceAllString(rawPath, "${1}="+Marker)
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return paramFallbackRe.ReplaceAllString(rawPath, "${1}="+Marker)
	}

	changed := false
	for key := range query {
		if isSensitiveParam(key) {
			query[key] = []string{Marker}
			changed = true
		}
	}

	if !changed {
		return rawPath
	}

	if encoded := query.Encode(); encoded != "" {
		return u.Path + "?" + encoded
	}
	return u.Path
}

func isSensitiveParam(name string) bool {
	for _, p := range sensitiveParams {
		if strings.EqualFold(name, p) {
			return true
		}
	}
	return false
}
