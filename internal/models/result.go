// Package models holds the shared types passed between the exporter, the
// loggers, and the run-history store.
package models

import (
	"time"

	"github.com/harrison/foamcsv/internal/foam"
)

// Conversion status constants
const (
	StatusConverted = "converted" // CSV written successfully
	StatusSkipped   = "skipped"   // field file absent in this time directory
	StatusFailed    = "failed"    // parse or write error
)

// FieldTask is one unit of work: converting a single field of a single time
// directory to CSV.
type FieldTask struct {
	TimeDir   string     // time directory name, e.g. "0.045"
	Field     string     // field name, e.g. "U"
	Arity     foam.Arity // scalar or vector
	FieldPath string     // path of the input field file
	OutPath   string     // path of the output CSV file
}

// ConversionResult represents the outcome of one field conversion.
type ConversionResult struct {
	Task          FieldTask
	Status        string        // "converted", "skipped", "failed"
	Rows          int           // number of CSV data rows written
	DeclaredCount int           // entry count the field file declared
	CountAnomaly  bool          // declared count != parsed entries
	Error         error         // set when Status is "failed"
	Duration      time.Duration // time taken for parse + write
}

// ExportResult represents the aggregate outcome of an export run.
type ExportResult struct {
	RunID             string        // unique id of this run
	CaseDir           string        // case directory that was exported
	OutDir            string        // output root the CSVs were written under
	TimeDirs          int           // number of time directories found
	Total             int           // total field/time-dir pairs attempted
	Converted         int           // successful conversions
	Skipped           int           // missing field files
	Failed            int           // failed conversions
	Anomalies         int           // conversions with a count anomaly
	Duration          time.Duration // total run time
	FailedConversions []ConversionResult
}

// Status summarizes the run outcome as SUCCESS, PARTIAL, or FAILED.
func (r *ExportResult) Status() string {
	switch {
	case r.Failed == 0:
		return "SUCCESS"
	case r.Converted == 0:
		return "FAILED"
	default:
		return "PARTIAL"
	}
}
