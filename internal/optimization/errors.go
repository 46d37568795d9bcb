package optimization

import (
	"errors"
	"fmt"
)

// Sentinel errors for caller contract violations. They are only ever
// returned at construction time; a running search never fails.
var (
	// ErrInvalidSchedule is returned for non-positive temperatures, an
	// empty iteration budget or an unknown cooling curve.
	ErrInvalidSchedule = errors.New("invalid annealing schedule")
	// ErrEmptySearchSpace is returned when a problem would produce a
	// zero-length state.
	ErrEmptySearchSpace = errors.New("empty search space")
	// ErrInvalidSnapshot is returned for physics snapshots that cannot be
	// simulated.
	ErrInvalidSnapshot = errors.New("invalid physics snapshot")
)

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// Invariantf reports a violated caller contract. The returned error
// matches kind under errors.Is.
func Invariantf(kind error, format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     kind,
	}
}

// IsInvariantViolation reports whether err is one of the construction-time
// contract violations defined in this package.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvalidSchedule) ||
		errors.Is(err, ErrEmptySearchSpace) ||
		errors.Is(err, ErrInvalidSnapshot)
}
