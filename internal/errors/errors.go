// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by the classifier.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated user doesn't have permission.
	ErrForbidden = errors.New("forbidden")

	// ErrDecryptionFailed indicates an encrypted value could not be authenticated
	// and decrypted (tampered payload, wrong key, or corrupt ciphertext).
	// Callers must never substitute a default plaintext when this is returned.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrTokenExpired indicates a session credential whose expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates a credential that is malformed, carries a bad
	// signature, or failed verification for any other reason. Download token
	// expiry is also collapsed into this error so callers cannot tell why a
	// capability token was rejected.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrConstraint indicates the storage layer rejected a write due to a
	// uniqueness or integrity constraint.
	ErrConstraint = errors.New("constraint violation")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
