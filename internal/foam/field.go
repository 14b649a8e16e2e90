// Package foam parses OpenFOAM field dump files.
//
// A field file holds one physical quantity (velocity, pressure, ...) for one
// timestep. The package locates the internalField entry inside the free-form
// file text, classifies it as uniform or non-uniform, and extracts the
// per-cell numeric values. Parsing is a pure function of the input lines:
// no state is shared between calls, so independent files may be parsed
// concurrently without coordination.
package foam

import (
	"regexp"
	"strconv"
	"strings"
)

// Marker tokens of the internal-field entry.
const (
	internalFieldMarker = "internalField"
	uniformMarker       = "uniform"
	nonUniformMarker    = "nonuniform"
	commentMarker       = "//"
)

// BlockKind distinguishes the two forms an internalField entry can take.
type BlockKind int

const (
	// BlockUniform is a single value that applies to every cell.
	BlockUniform BlockKind = iota
	// BlockNonUniform is an explicit per-cell value list with a declared count.
	BlockNonUniform
)

// String returns the string representation of the BlockKind.
func (k BlockKind) String() string {
	switch k {
	case BlockUniform:
		return "uniform"
	case BlockNonUniform:
		return "nonuniform"
	default:
		return "unknown"
	}
}

// InternalFieldBlock is the raw internalField entry isolated from a field
// file, before numeric extraction.
//
// For BlockUniform only Value is set: the value text after the uniform
// marker, with the statement terminator stripped. For BlockNonUniform,
// DeclaredCount is the entry count the file declares and DataLines holds
// the trimmed value lines found between the list delimiters, in file order,
// with blank and comment lines already dropped.
type InternalFieldBlock struct {
	Kind          BlockKind
	Value         string
	DeclaredCount int
	DataLines     []string
}

// countPattern matches a line whose trimmed content is a bare non-negative
// integer, which is how a non-uniform list declares its entry count.
var countPattern = regexp.MustCompile(`^\d+$`)

// LocateInternalField scans the lines of a field file for the internalField
// entry and returns it as an InternalFieldBlock.
//
// The file format is free-form: blank lines, // comments, and arbitrary
// indentation are legal between tokens, so structural delimiters are found
// by content match rather than by line offset. Returns a *ParseError when
// the entry or one of its structural delimiters is missing.
func LocateInternalField(lines []string) (*InternalFieldBlock, error) {
	markerIdx := -1
	for i, line := range lines {
		if strings.Contains(line, internalFieldMarker) {
			markerIdx = i
			break
		}
	}
	if markerIdx < 0 {
		return nil, newParseError(ErrMissingEntry, 0, "no internalField found in file")
	}

	marker := lines[markerIdx]

	// "nonuniform" contains "uniform" as an infix, so the exclusion check
	// must come before the classification is trusted.
	if strings.Contains(marker, uniformMarker) && !strings.Contains(marker, nonUniformMarker) {
		_, after, _ := strings.Cut(marker, uniformMarker)
		value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(after), ";"))
		return &InternalFieldBlock{Kind: BlockUniform, Value: value}, nil
	}

	// Non-uniform: the first integer-only line at or after the marker is
	// the declared entry count.
	countIdx := -1
	count := 0
	for i := markerIdx; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !countPattern.MatchString(trimmed) {
			continue
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			continue
		}
		count = n
		countIdx = i
		break
	}
	if countIdx < 0 {
		return nil, newParseError(ErrMissingCount, 0, "no entry count found for nonuniform internalField")
	}

	startIdx := -1
	for i := countIdx + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "(" {
			startIdx = i + 1
			break
		}
	}
	if startIdx < 0 {
		return nil, newParseError(ErrMissingOpenDelimiter, 0, "no opening '(' found for value list")
	}

	var dataLines []string
	closed := false
	for i := startIdx; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == ")" || trimmed == ");" {
			closed = true
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, commentMarker) {
			continue
		}
		dataLines = append(dataLines, trimmed)
	}
	if !closed {
		return nil, newParseError(ErrMissingCloseDelimiter, 0, "no closing ')' found for value list")
	}

	return &InternalFieldBlock{
		Kind:          BlockNonUniform,
		DeclaredCount: count,
		DataLines:     dataLines,
	}, nil
}
