// Package raerr classifies the errors the assembler core can produce, per
// the taxonomy of invalid input, size limits, I/O failure, and invariant
// violation. Only the last is fatal; everything else is a plain returned
// error the caller may choose to skip.
package raerr

import (
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Kind classifies an error so callers can decide whether to skip the
// offending record or abort.
type Kind int

const (
	// InvalidInput marks a malformed record: bad format selector, read id out
	// of range, sentinel misuse.
	InvalidInput Kind = iota
	// SizeLimit marks a refusal to build a structure beyond its size bound
	// (e.g. a SuffixIndex fragment beyond 2GiB).
	SizeLimit
	// IoFailure marks a failed open/read/write/lock.
	IoFailure
)

// Error is a classified error carrying the component that raised it.
type Error struct {
	Kind     Kind
	Location string
	cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s]: %s", e.Location, e.cause.Error())
}

func (e *Error) Unwrap() error { return e.cause }

func classify(kind Kind, location string, cause error) *Error {
	return &Error{Kind: kind, Location: location, cause: cause}
}

// Invalid builds an InvalidInput error.
func Invalid(location, format string, args ...interface{}) error {
	return classify(InvalidInput, location, errors.Errorf(format, args...))
}

// TooLarge builds a SizeLimit error.
func TooLarge(location, format string, args ...interface{}) error {
	return classify(SizeLimit, location, errors.Errorf(format, args...))
}

// IO wraps cause as an IoFailure error.
func IO(location string, cause error) error {
	if cause == nil {
		return nil
	}
	return classify(IoFailure, location, errors.Wrap(cause, location))
}

// Is reports whether err is a raerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// Fatal reports an InvariantViolation: a corrupted-state bug in core data
// structures. It prints "[ERROR][<location>]: <message>" to stderr and
// terminates the process, matching the fatal failure contract; it never
// returns.
func Fatal(location, format string, args ...interface{}) {
	log.Fatalf("[ERROR][%s]: %s", location, fmt.Sprintf(format, args...))
}
