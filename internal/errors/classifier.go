package errors

import (
	"net/http"

	validation "github.com/jellydator/validation"
)

// Client-safe messages returned for each classified failure kind. Raw error
// messages are never exposed unless a ClassifiedError was built explicitly.
const (
	MessageBadRequest     = "Bad Request"
	MessageNotFound       = "Not Found"
	MessageTokenExpired   = "Access Token Expired"
	MessageTokenInvalid   = "Invalid Token"
	MessageInternalServer = "Internal Server Error"
)

// ClassifiedError is the normalized failure object produced at the HTTP
// boundary. ClientMessage and Data are safe for exposure; InternalDetail is
// the original error and must only reach server-side logs.
type ClassifiedError struct {
	StatusCode     int
	ClientMessage  string
	InternalDetail error
	RequestID      string
	RequestPath    string
	Data           any
}

// Error implements the error interface. Returns the internal detail when
// present so wrapped causes stay visible in server-side logs.
func (e *ClassifiedError) Error() string {
	if e.InternalDetail != nil {
		return e.InternalDetail.Error()
	}
	return e.ClientMessage
}

// Unwrap exposes the original cause for errors.Is / errors.As traversal.
func (e *ClassifiedError) Unwrap() error {
	return e.InternalDetail
}

// NewClassified builds a ClassifiedError with an explicitly client-safe
// message. Use this in handlers and use cases for failures whose message is
// intended to reach the client as-is.
func NewClassified(statusCode int, clientMessage string, cause error) *ClassifiedError {
	return &ClassifiedError{
		StatusCode:     statusCode,
		ClientMessage:  clientMessage,
		InternalDetail: cause,
	}
}

// Classify normalizes any raised failure into a single ClassifiedError.
//
// Classification is order-sensitive and first-match-wins:
//  1. already-classified errors pass through unchanged (request id and path
//     are filled in only if missing)
//  2. validation failures -> 400 with the field tree as structured data
//  3. expired credential -> 401
//  4. malformed/invalid credential -> 401
//  5. missing resource -> 404
//  6. storage constraint violation -> 400 (internal detail not exposed)
//  7. anything else -> 500 with a generic message
//
// The requestPath is stored as given; redaction happens at logging time.
func Classify(err error, requestID, requestPath string) *ClassifiedError {
	var classified *ClassifiedError
	if As(err, &classified) {
		if classified.RequestID == "" {
			classified.RequestID = requestID
		}
		if classified.RequestPath == "" {
			classified.RequestPath = requestPath
		}
		return classified
	}

	ce := &ClassifiedError{
		InternalDetail: err,
		RequestID:      requestID,
		RequestPath:    requestPath,
	}

	var validationErrs validation.Errors
	switch {
	case As(err, &validationErrs):
		ce.StatusCode = http.StatusBadRequest
		ce.ClientMessage = MessageBadRequest
		ce.Data = fieldTree(validationErrs)
	case Is(err, ErrInvalidInput):
		ce.StatusCode = http.StatusBadRequest
		ce.ClientMessage = MessageBadRequest
	case Is(err, ErrTokenExpired):
		ce.StatusCode = http.StatusUnauthorized
		ce.ClientMessage = MessageTokenExpired
	case Is(err, ErrTokenInvalid), Is(err, ErrUnauthorized):
		ce.StatusCode = http.StatusUnauthorized
		ce.ClientMessage = MessageTokenInvalid
	case Is(err, ErrNotFound):
		ce.StatusCode = http.StatusNotFound
		ce.ClientMessage = MessageNotFound
	case Is(err, ErrConstraint), Is(err, ErrConflict):
		ce.StatusCode = http.StatusBadRequest
		ce.ClientMessage = MessageBadRequest
	default:
		ce.StatusCode = http.StatusInternalServerError
		ce.ClientMessage = MessageInternalServer
	}

	return ce
}

// fieldTree converts validation errors into a nested map keyed by field name.
// Only field names and rule messages are included, never submitted values, so
// the tree is safe to surface to clients.
func fieldTree(errs validation.Errors) map[string]any {
	tree := make(map[string]any, len(errs))
	for field, fieldErr := range errs {
		var nested validation.Errors
		if As(fieldErr, &nested) {
			tree[field] = fieldTree(nested)
			continue
		}
		tree[field] = fieldErr.Error()
	}
	return tree
}
