package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a workout or exercise id did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated indicates that no user is signed in.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError describes the first failing precondition of user input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError wraps a failed repository call. It is distinct from an empty
// result, which is never an error.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
