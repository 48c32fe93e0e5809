// Package errors defines the closed set of error kinds the engine
// surfaces to callers (spec.md §7), replacing the exception-based
// control flow of the original C++ implementation (spec.md §9) with an
// explicit, wrapped error value.
package errors

import "github.com/pkg/errors"

// Kind is a closed enumeration of the error categories a pass can fail with.
type Kind int

const (
	// InputError covers missing files, malformed headers, identifier
	// mismatches, 32-bit overflow in a "high" length field, and name
	// lengths exceeding the entry buffer.
	InputError Kind = iota
	// IOError covers short reads/writes and failed opens.
	IOError
	// FormatError covers an internally inconsistent PAR header.
	FormatError
	// ClassificationMismatch flags duplicate fingerprints within a set;
	// non-fatal, the set is loaded but the caller is warned.
	ClassificationMismatch
	// Singular signals a single parity selection was non-invertible;
	// resolved internally by par/matrix's exhaustive search and never
	// meant to reach a caller with another combination left to try.
	Singular
	// Unrecoverable signals no selection of available parity volumes
	// yields a non-singular system.
	Unrecoverable
	// Cancelled signals the progress callback returned false.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InputError:
		return "InputError"
	case IOError:
		return "IOError"
	case FormatError:
		return "FormatError"
	case ClassificationMismatch:
		return "ClassificationMismatch"
	case Singular:
		return "Singular"
	case Unrecoverable:
		return "Unrecoverable"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with a wrapped cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

// Cause returns the wrapped cause, satisfying github.com/pkg/errors's
// Causer interface.
func (e *Error) Cause() error { return e.Err }

// Unwrap supports errors.Is/As from the standard library too.
func (e *Error) Unwrap() error { return e.Err }

// New wraps err as an Error of the given Kind. If err is nil, the
// message becomes the Kind's name only.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Wrap wraps err with an additional message before tagging it with kind.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Err: errors.Wrap(err, message)}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// UnrecoverableDiagnostic is the structured payload carried by an
// Unrecoverable error, per spec.md §7.
type UnrecoverableDiagnostic struct {
	MissingCount int
	ValidParity  int
	NeededParity int
}

func (d UnrecoverableDiagnostic) Error() string {
	return "at least one additional valid parity or data file is needed"
}
