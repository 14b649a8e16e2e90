package foam

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// ParseLines runs the locator and extractor over an in-memory line sequence.
// This is the core entry point; the reader/file variants below only add I/O.
func ParseLines(lines []string, arity Arity) (*FieldValues, error) {
	block, err := LocateInternalField(lines)
	if err != nil {
		return nil, err
	}
	return Extract(block, arity)
}

// Parse reads field-file text from r and parses its internal field.
func Parse(r io.Reader, arity Arity) (*FieldValues, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	// Field files can carry long single-line uniform entries; grow the
	// scanner buffer well past the 64KB default.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read field data: %w", err)
	}
	return ParseLines(lines, arity)
}

// ParseFile is a convenience function that opens path and parses its
// internal field. This is the recommended way to parse field files from disk.
func ParseFile(path string, arity Arity) (*FieldValues, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open field file: %w", err)
	}
	defer file.Close()

	values, err := Parse(file, arity)
	if err != nil {
		return nil, err
	}
	return values, nil
}
