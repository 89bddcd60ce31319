package api

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError is a transport failure or a server-side condition worth
// retrying (5xx, 429). The query layer retries these with backoff.
type NetworkError struct {
	// Op describes the request, e.g. "GET /api/v2/standings".
	Op string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Err is the underlying transport error, if any.
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthenticationError means the credentials or token were rejected (401).
// Never retried; the user must log in again.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Message
}

// AuthorizationError means the session is valid but lacks a required
// role (403). Never retried.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Message
}

// ValidationError means the request parameters were malformed (400/422).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Message
}

// NotFoundError means the resource is absent (404). Views render this
// as an empty state rather than a failure.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// statusError maps an HTTP status code to the matching error kind.
func statusError(op string, code int, message string) error {
	switch {
	case code == http.StatusUnauthorized:
		return &AuthenticationError{Message: message}
	case code == http.StatusForbidden:
		return &AuthorizationError{Message: message}
	case code == http.StatusNotFound:
		return &NotFoundError{Resource: message}
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return &ValidationError{Message: message}
	default:
		return &NetworkError{Op: op, StatusCode: code}
	}
}

// Retryable reports whether err (or any error in its chain) is a
// transient NetworkError. All other kinds are terminal.
func Retryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsAuthentication reports whether err is an AuthenticationError.
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsAuthorization reports whether err is an AuthorizationError.
func IsAuthorization(err error) bool {
	var authzErr *AuthorizationError
	return errors.As(err, &authzErr)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}
