package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned across the service boundary either is,
// or wraps, one of these.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// Authentication errors. The token errors are kept distinct for logging but
// all wrap ErrInvalidToken, which is what callers outside the auth code see.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenNotFound      = fmt.Errorf("%w: not found", ErrInvalidToken)
	ErrTokenRevoked       = fmt.Errorf("%w: revoked", ErrInvalidToken)
	ErrTokenExpired       = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Error pairs an error kind with the message shown to API clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NewValidationError(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

func NewConflictError(message string) error {
	return &Error{Kind: ErrConflict, Message: message}
}

func NewNotFoundError(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func NewForbiddenError(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// Message returns the client-facing message carried by err, or fallback
// when err carries none.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
