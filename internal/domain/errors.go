// Package domain holds the sentinel errors shared across layers.
package domain

import "errors"

// Domain errors.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a validation error.
	ErrValidation = errors.New("validation error")

	// ErrConflict indicates a conflict with existing data.
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates the viewer may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated indicates the action needs a signed-in session.
	ErrUnauthenticated = errors.New("authentication required")
)
