// Package csvout serializes extracted field values into per-field CSV files,
// one row per mesh cell. Files are written atomically so a crashed or failed
// export never leaves a partial CSV behind.
package csvout

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/harrison/foamcsv/internal/filelock"
	"github.com/harrison/foamcsv/internal/foam"
)

// formatFloat renders v in the shortest form that round-trips a float64.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// EncodeScalars renders scalar values as CSV with a "cellId,value" header.
// The cell id is the 0-based position of the value in the sequence.
func EncodeScalars(values []float64) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"cellId", "value"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, v := range values {
		if err := w.Write([]string{strconv.Itoa(i), formatFloat(v)}); err != nil {
			return nil, fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV data: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeVectors renders vector values as CSV with a "cellId,ux,uy,uz" header.
func EncodeVectors(vectors []foam.Vec3) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"cellId", "ux", "uy", "uz"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, v := range vectors {
		row := []string{strconv.Itoa(i), formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z)}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV data: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFieldCSV writes the extracted values of one field to path, dispatching
// on the arity of the result. Parent directories are created as needed and
// the file appears atomically.
func WriteFieldCSV(values *foam.FieldValues, path string) error {
	var (
		data []byte
		err  error
	)
	switch values.Arity {
	case foam.ArityVector:
		data, err = EncodeVectors(values.Vectors)
	default:
		data, err = EncodeScalars(values.Scalars)
	}
	if err != nil {
		return err
	}

	if err := filelock.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
