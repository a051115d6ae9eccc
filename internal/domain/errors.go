package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrAuthentication = errors.New("authentication failed")
	ErrMailDelivery   = errors.New("mail delivery failed")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
)

// ErrDuplicate marks a unique-constraint violation. It is a validation error.
var ErrDuplicate = fmt.Errorf("already exists: %w", ErrValidation)

// Error carries a client-facing message while still matching its Kind with errors.Is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }
