// Package errors carries the error vocabulary shared across the kiosk
// daemon. Services wrap causes with operation context; the HTTP layer
// translates the sentinels and codes into statuses.
package errors

import (
	"errors"
	"fmt"
)

// Sentinels for the failure classes the daemon distinguishes
var (
	// ErrNotFound marks a lookup that matched nothing, such as an
	// unset PIN or an unknown device
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput marks a request the daemon refuses to act on
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized marks a rejected credential such as a bad PIN
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks an operation that needs the settings panel
	// guard to be open first
	ErrForbidden = errors.New("forbidden")
)

// Error decorates a cause with a stable machine code, a message fit for
// operators, and the operation that failed.
type Error struct {
	// Code is the stable identifier clients switch on
	Code string
	// Message is the text shown to operators
	Message string
	// Op names the operation that failed
	Op string
	// Err is the wrapped cause
	Err error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the cause so errors.Is and errors.As see through the
// decoration.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a decorated Error around err
func NewError(code string, message string, op string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

// IsNotFound reports whether err wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err wraps ErrInvalidInput
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnauthorized reports whether err wraps ErrUnauthorized
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden reports whether err wraps ErrForbidden
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
