// Package apperr defines the error taxonomy shared by every core
// operation. Each error carries a kind (what class of failure), a
// human-readable message safe to show to the caller, and optionally
// the underlying cause.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Validation: malformed input, caller's fault.
	Validation Kind = iota
	// Unauthorized: capability or ownership check failed.
	Unauthorized
	// NotFound: referenced entity missing.
	NotFound
	// InvalidState: operation not legal for the current lifecycle state.
	InvalidState
	// Duplicate: uniqueness invariant violated.
	Duplicate
	// Concurrent: optimistic check lost a race.
	Concurrent
	// Storage: the backing store rejected a read or write.
	Storage
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case InvalidState:
		return "invalid_state"
	case Duplicate:
		return "duplicate"
	case Concurrent:
		return "concurrent_modification"
	case Storage:
		return "storage"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a taxonomy error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a taxonomy error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err. Unclassified errors report as
// Storage, the conservative default for anything leaking out of the
// persistence layer.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Storage
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Message returns the human-readable message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
