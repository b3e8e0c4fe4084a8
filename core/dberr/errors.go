// Package dberr defines the backend-neutral error taxonomy for the query
// engine. Every error that crosses the storage boundary is translated into
// one of the kinds defined here; no driver-specific error type is ever
// surfaced to the query or expression layers.
package dberr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the taxonomy's categories.
type Kind int

// The supported error kinds.
const (
	// KindUnknown is the zero value, used for errors that could not be classified.
	KindUnknown Kind = iota

	// KindConstruction indicates a malformed query structure, such as a CTE
	// reference to an undefined name or an unmapped logical type. Raised
	// before any I/O takes place.
	KindConstruction

	// KindCapability indicates that the active dialect cannot represent the
	// requested construct. Raised at render time; retrying never helps.
	KindCapability

	// KindConnection indicates a transport-level failure to reach or
	// authenticate against the database. Potentially transient.
	KindConnection

	// KindConstraint indicates that the backend rejected a statement due to
	// a unique, foreign-key, or check violation.
	KindConstraint

	// KindConcurrency indicates a lock timeout, deadlock, or version
	// mismatch surfaced by the backend.
	KindConcurrency

	// KindConversion indicates a database value with no valid mapping back
	// to the requested logical type.
	KindConversion

	// KindCancelled indicates an operation aborted through its context
	// before completion. Partial results are discarded.
	KindCancelled
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConstruction:
		return "construction"
	case KindCapability:
		return "capability"
	case KindConnection:
		return "connection"
	case KindConstraint:
		return "constraint"
	case KindConcurrency:
		return "concurrency"
	case KindConversion:
		return "conversion"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the concrete error type carried across the storage boundary. It
// records the kind, the dialect involved, and, where applicable, the
// offending clause or constraint so that callers never need to inspect a
// driver error to understand a failure.
type Error struct {
	Kind       Kind
	Dialect    string // name of the dialect involved, if known
	Clause     string // offending clause for construction/capability errors
	Constraint string // constraint identifier, when the backend reports one
	Retryable  bool   // hint for callers: deadlocks may be retried, lock timeouts should not
	Message    string
	Err        error // wrapped cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	s := fmt.Sprintf("%s error", e.Kind)
	if e.Dialect != "" {
		s += fmt.Sprintf(" (dialect %s)", e.Dialect)
	}
	if e.Clause != "" {
		s += fmt.Sprintf(" in %s clause", e.Clause)
	}
	if e.Constraint != "" {
		s += fmt.Sprintf(" on constraint %q", e.Constraint)
	}
	if msg != "" {
		s += ": " + msg
	}
	return s
}

// Unwrap exposes the wrapped cause for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new taxonomy error with a formatted message.
func New(kind Kind, dialect string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Dialect: dialect,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a taxonomy classification to an underlying error. The
// original error remains reachable via errors.Unwrap.
func Wrap(err error, kind Kind, dialect string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Dialect: dialect,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// WithClause records the offending clause and returns the error for chaining.
func (e *Error) WithClause(clause string) *Error {
	e.Clause = clause
	return e
}

// WithConstraint records the violated constraint identifier.
func (e *Error) WithConstraint(name string) *Error {
	e.Constraint = name
	return e
}

// AsRetryable marks the error as safe to retry (e.g., a deadlock victim).
func (e *Error) AsRetryable() *Error {
	e.Retryable = true
	return e
}

// KindOf returns the taxonomy kind of err, or KindUnknown if err does not
// carry one anywhere in its chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsConstruction reports whether err is a construction error.
func IsConstruction(err error) bool { return IsKind(err, KindConstruction) }

// IsCapability reports whether err is a capability error.
func IsCapability(err error) bool { return IsKind(err, KindCapability) }

// IsConnection reports whether err is a connection error.
func IsConnection(err error) bool { return IsKind(err, KindConnection) }

// IsConstraint reports whether err is a constraint violation.
func IsConstraint(err error) bool { return IsKind(err, KindConstraint) }

// IsConcurrency reports whether err is a concurrency failure.
func IsConcurrency(err error) bool { return IsKind(err, KindConcurrency) }

// IsConversion reports whether err is a type-conversion failure.
func IsConversion(err error) bool { return IsKind(err, KindConversion) }

// IsCancelled reports whether err represents a cancelled operation.
func IsCancelled(err error) bool { return IsKind(err, KindCancelled) }

// Retryable reports whether err is marked as safe to retry by the caller.
// Retry policy itself belongs to the caller, not this package.
func Retryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
