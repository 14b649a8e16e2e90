package foam

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the ways a field-file parse can fail.
type ErrorKind int

const (
	// ErrMissingEntry means no internalField entry was found in the file.
	ErrMissingEntry ErrorKind = iota
	// ErrMissingCount means a non-uniform block declared no entry count
	// before its data list.
	ErrMissingCount
	// ErrMissingOpenDelimiter means the opening "(" of a value list was not found.
	ErrMissingOpenDelimiter
	// ErrMissingCloseDelimiter means the value list was never terminated by ")" or ");".
	ErrMissingCloseDelimiter
	// ErrArityMismatch means a vector entry did not have exactly 3 components.
	ErrArityMismatch
	// ErrMalformedNumber means a token expected to be a float literal failed to parse.
	ErrMalformedNumber
)

// String returns the string representation of the ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case ErrMissingEntry:
		return "missing internalField entry"
	case ErrMissingCount:
		return "missing entry count"
	case ErrMissingOpenDelimiter:
		return "missing opening delimiter"
	case ErrMissingCloseDelimiter:
		return "missing closing delimiter"
	case ErrArityMismatch:
		return "component count mismatch"
	case ErrMalformedNumber:
		return "malformed number"
	default:
		return "unknown parse error"
	}
}

// ParseError describes a failure while locating or extracting an internal
// field. Line is the 1-based line number where the failure was detected,
// or 0 when the failure is not tied to a specific line.
type ParseError struct {
	Kind   ErrorKind
	Line   int
	Detail string
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	return msg
}

// newParseError creates a ParseError for the given kind.
func newParseError(kind ErrorKind, line int, detail string) *ParseError {
	return &ParseError{Kind: kind, Line: line, Detail: detail}
}

// IsParseError checks if the error is or wraps a ParseError.
func IsParseError(err error) bool {
	if err == nil {
		return false
	}
	var pe *ParseError
	return errors.As(err, &pe)
}

// KindOf returns the ErrorKind of the ParseError wrapped by err.
// The second return value is false if err does not wrap a ParseError.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
