// Package service implements file storage and the short-lived capability
// tokens that gate file downloads.
package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/guardianlk/guardian/internal/errors"
)

// UnknownSubject is recorded when a grant is issued without a resolved actor.
const UnknownSubject = "unknown"

// downloadClaims are the signed claims of a download token.
type downloadClaims struct {
	jwt.RegisteredClaims
	FileID string `json:"fid"`
}

// DownloadGrant is the verified payload of a download token: access to
// exactly one file, on behalf of one subject.
type DownloadGrant struct {
	FileID  string
	Subject string
}

// DownloadTokenService issues and verifies bearer-style, file-scoped download
// tokens, signed independently of the primary session credential.
//
// Tokens are not single-use: replay within the TTL window is accepted by
// design, trading revocation infrastructure for simplicity. Verification
// collapses signature, expiry, and structure failures into one opaque
// ErrTokenInvalid outcome so callers learn nothing about why a token failed.
type DownloadTokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewDownloadTokenService creates a token service with the given signing
// secret and validity window.
func NewDownloadTokenService(secret string, ttl time.Duration) *DownloadTokenService {
	return &DownloadTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the configured validity window.
func (s *DownloadTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token granting download access to fileID for the configured
// TTL. An empty subject becomes "unknown" so the claim is always present.
func (s *DownloadTokenService) Issue(fileID, subject string) (string, error) {
	if subject == "" {
		subject = UnknownSubject
	}

	now := s.now()
	claims := downloadClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		FileID: fileID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign download token")
	}
	return token, nil
}

// Verify validates a token and returns its grant. Signature mismatch, expiry,
// and malformed structure all yield ErrTokenInvalid.
func (s *DownloadTokenService) Verify(token string) (*DownloadGrant, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&downloadClaims{},
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, apperrors.ErrTokenInvalid
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, apperrors.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*downloadClaims)
	if !ok || claims.FileID == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	return &DownloadGrant{FileID: claims.FileID, Subject: claims.Subject}, nil
}
