package optimization

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCandidate is returned when a search space contains no point.
	ErrNoCandidate = errors.New("no candidate evaluated")

	// ErrDiverged is returned when an iterative method produced a non-finite
	// estimate, typically after a division by a zero gradient.
	ErrDiverged = errors.New("iteration diverged")

	// ErrInvalidParams is returned when hyperparameters violate a
	// precondition.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrUnsupported is returned for unknown algorithm, loss or formulation
	// names.
	ErrUnsupported = errors.New("unsupported combination")
)

// Error represents a solver error with the operation and component that
// raised it.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the algorithm or package where the error occurred.
	Component string
	// Err is the underlying error, usually one of the sentinels above.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	switch {
	case e.Component != "" && e.Op != "":
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	case e.Component != "":
		prefix = e.Component
	case e.Op != "":
		prefix = e.Op
	}

	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		} else {
			msg = e.Err.Error()
		}
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, msg)
	}
	return msg
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

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapErrorf wraps an existing error with additional formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsOptimizationError reports whether err is, or wraps, an *Error and
// returns it.
func IsOptimizationError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
