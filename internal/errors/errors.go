package errors

import (
	"errors"
	"fmt"
)

// Common error types for the card portal client
var (
	// Session errors
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrSessionExpired        = errors.New("session expired")
	ErrCorruptPersistedState = errors.New("corrupt persisted session")
	ErrLoginInProgress       = errors.New("login already in progress")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Transport errors
	ErrNetwork         = errors.New("network error")
	ErrUnexpectedReply = errors.New("unexpected response from server")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// AuthenticationError is returned when the backend rejects a set of credentials.
// Message is the human readable text sent by the server.
type AuthenticationError struct {
	Status  int
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "login failed"
	}
	return e.Message
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import
func New(text string) error {
	return errors.New(text)
}
