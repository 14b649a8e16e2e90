package exporter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutputLocked is returned when another export is already writing to the
// same output root.
var ErrOutputLocked = errors.New("another export is already writing to this output directory")

// FieldError represents a failure converting one field of one time directory.
type FieldError struct {
	TimeDir string // time directory name
	Field   string // field name
	Err     error  // underlying parse or write error
}

// Error implements the error interface for FieldError.
func (e *FieldError) Error() string {
	return fmt.Sprintf("time %s field %s: %v", e.TimeDir, e.Field, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// ExportError aggregates the field conversion failures of one export run.
// A failed field never aborts the run; the failures are collected and
// surfaced together once every remaining conversion has been attempted.
type ExportError struct {
	CaseDir     string        // case directory being exported
	FieldErrors []*FieldError // individual conversion failures
	Total       int           // total conversions attempted
}

// AddField adds a field conversion failure to the export error.
func (e *ExportError) AddField(fieldErr *FieldError) {
	e.FieldErrors = append(e.FieldErrors, fieldErr)
}

// Error implements the error interface for ExportError.
func (e *ExportError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("export of %s: %d/%d conversions failed",
		e.CaseDir, len(e.FieldErrors), e.Total))
	for _, fieldErr := range e.FieldErrors {
		sb.WriteString(fmt.Sprintf("\n  - %s", fieldErr.Error()))
	}
	return sb.String()
}

// Unwrap returns the field errors so errors.Is and errors.As can traverse
// the error chain.
func (e *ExportError) Unwrap() []error {
	if len(e.FieldErrors) == 0 {
		return nil
	}
	errs := make([]error, len(e.FieldErrors))
	for i, fieldErr := range e.FieldErrors {
		errs[i] = fieldErr
	}
	return errs
}

// IsFieldError checks if the error is or wraps a FieldError.
func IsFieldError(err error) bool {
	if err == nil {
		return false
	}
	var fe *FieldError
	return errors.As(err, &fe)
}

// IsExportError checks if the error is or wraps an ExportError.
func IsExportError(err error) bool {
	if err == nil {
		return false
	}
	var ee *ExportError
	return errors.As(err, &ee)
}
