package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the caller has no valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is the parent of every missing-row error.
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound indicates the user row does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrInvalidInput marks a malformed or out-of-range request.
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidInput wraps ErrInvalidInput with a human readable reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
