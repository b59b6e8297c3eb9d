package middleware

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthentication matches every rejected access token.
var ErrAuthentication = errors.New("authentication failed")

// StatusError is a transport-level failure that already knows its HTTP
// status, such as an oversized upload.
type StatusError struct {
	status  int
	message string
	cause   error
}

// NewStatusError creates a StatusError.
func NewStatusError(status int, message string, cause error) *StatusError {
	return &StatusError{status: status, message: message, cause: cause}
}

func (e *StatusError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying cause.
func (e *StatusError) Unwrap() error { return e.cause }

// Status returns the HTTP status code.
func (e *StatusError) Status() int { return e.status }

// Message returns the client-facing message.
func (e *StatusError) Message() string { return e.message }

// Title returns the status text for the response envelope.
func (e *StatusError) Title() string { return http.StatusText(e.status) }

// AuthenticationError is a bearer token the verifier rejected.
type AuthenticationError struct {
	reason string
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(reason string) *AuthenticationError {
	return &AuthenticationError{reason: reason}
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.reason
}

// Unwrap lets errors.Is match ErrAuthentication.
func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }
