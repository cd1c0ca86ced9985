package usecase

import (
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/guardianlk/guardian/internal/errors"
)

// JWTSubjectDecoder verifies a session access token and extracts its subject.
// Only used for best-effort actor resolution in audit records; the real
// authentication gate lives upstream.
type JWTSubjectDecoder struct {
	secret []byte
}

// NewJWTSubjectDecoder creates a decoder verifying with the session secret.
func NewJWTSubjectDecoder(secret string) *JWTSubjectDecoder {
	return &JWTSubjectDecoder{secret: []byte(secret)}
}

// DecodeSubject verifies the token and returns its sub claim.
func (d *JWTSubjectDecoder) DecodeSubject(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, apperrors.ErrTokenInvalid
			}
			return d.secret, nil
		},
	)
	if err != nil || !parsed.Valid {
		return "", apperrors.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", apperrors.ErrTokenInvalid
	}

	return claims.Subject, nil
}
