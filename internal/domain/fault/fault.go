// Package fault defines the error kinds shared by the point-of-sale domain.
//
// Concrete errors carry context and unwrap to one of the kinds, so callers can
// branch with errors.Is and still read details with errors.As.
package fault

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrInvalidArgument is the kind for malformed input: negative amounts or
	// quantities, blank codes, empty or duplicate catalogs, bad volume rules.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is the kind for lookups of unknown product codes or cards.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is the kind for operations not allowed in the current
	// terminal state.
	ErrInvalidState = errors.New("invalid state")
)

// ArgumentError describes a rejected input value.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// Argument returns an ArgumentError for the named input.
func Argument(name, reason string) error {
	return &ArgumentError{Name: name, Reason: reason}
}

// StateError describes an operation rejected because of the current state.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string { return e.Reason }

func (e *StateError) Unwrap() error { return ErrInvalidState }

// State returns a StateError with the given reason.
func State(reason string) error {
	return &StateError{Reason: reason}
}
