package foam

import (
	"fmt"
	"strconv"
	"strings"
)

// Arity is the component count of a field: scalar fields have one component
// per cell, vector fields have three.
type Arity int

const (
	// ArityScalar represents a one-component field (p, k, nut, ...).
	ArityScalar Arity = iota
	// ArityVector represents a three-component field (U).
	ArityVector
)

// String returns the string representation of the Arity.
func (a Arity) String() string {
	switch a {
	case ArityScalar:
		return "scalar"
	case ArityVector:
		return "vector"
	default:
		return "unknown"
	}
}

// Vec3 is a single three-component vector entry.
type Vec3 struct {
	X, Y, Z float64
}

// FieldValues is the numeric result of extracting an internal field:
// one entry per mesh cell, or a single entry for a uniform block.
// Exactly one of Scalars or Vectors is populated, according to Arity.
//
// Uniform values are NOT broadcast across the mesh; the single entry is
// handed to the caller as-is because the parser does not know the cell count.
type FieldValues struct {
	Arity         Arity
	Scalars       []float64
	Vectors       []Vec3
	DeclaredCount int
}

// Len returns the number of parsed entries.
func (v *FieldValues) Len() int {
	if v.Arity == ArityVector {
		return len(v.Vectors)
	}
	return len(v.Scalars)
}

// CountAnomaly reports whether the number of parsed entries differs from the
// count the file declared. A mismatch is deliberately not a parse failure:
// lightly malformed files still yield their recoverable entries, and the
// caller decides how loudly to complain.
func (v *FieldValues) CountAnomaly() bool {
	return v.Len() != v.DeclaredCount
}

// Extract parses the located internal-field block into numeric values of the
// expected arity. Returns a *ParseError on malformed numbers or component
// count mismatches.
func Extract(block *InternalFieldBlock, arity Arity) (*FieldValues, error) {
	switch block.Kind {
	case BlockUniform:
		return extractUniform(block.Value, arity)
	case BlockNonUniform:
		return extractList(block, arity)
	default:
		return nil, fmt.Errorf("unsupported block kind: %v", block.Kind)
	}
}

// extractUniform parses the single value of a uniform block.
func extractUniform(value string, arity Arity) (*FieldValues, error) {
	tokens := strings.Fields(strings.Trim(strings.TrimSpace(value), "()"))

	switch arity {
	case ArityVector:
		if len(tokens) != 3 {
			return nil, newParseError(ErrArityMismatch, 0,
				fmt.Sprintf("expected 3 components in uniform vector, got %q", value))
		}
		var vec Vec3
		for i, dst := range []*float64{&vec.X, &vec.Y, &vec.Z} {
			f, err := strconv.ParseFloat(tokens[i], 64)
			if err != nil {
				return nil, newParseError(ErrMalformedNumber, 0,
					fmt.Sprintf("invalid vector component %q", tokens[i]))
			}
			*dst = f
		}
		return &FieldValues{Arity: ArityVector, Vectors: []Vec3{vec}, DeclaredCount: 1}, nil

	default:
		if len(tokens) == 0 {
			return nil, newParseError(ErrMalformedNumber, 0, "empty uniform value")
		}
		// Uniform scalar lines may carry trailing artifacts after the value;
		// only the first token is significant.
		f, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil {
			return nil, newParseError(ErrMalformedNumber, 0,
				fmt.Sprintf("invalid scalar value %q", tokens[0]))
		}
		return &FieldValues{Arity: ArityScalar, Scalars: []float64{f}, DeclaredCount: 1}, nil
	}
}

// extractList parses the per-cell value lines of a non-uniform block.
// The declared count is carried through unchecked; see CountAnomaly.
func extractList(block *InternalFieldBlock, arity Arity) (*FieldValues, error) {
	switch arity {
	case ArityVector:
		vectors := make([]Vec3, 0, len(block.DataLines))
		for _, raw := range block.DataLines {
			text := strings.TrimSuffix(strings.TrimSpace(raw), ";")
			// Entries are accepted both parenthesized "(x y z)" and bare "x y z".
			if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
				text = text[1 : len(text)-1]
			}
			tokens := strings.Fields(text)
			if len(tokens) != 3 {
				return nil, newParseError(ErrArityMismatch, 0,
					fmt.Sprintf("expected 3 components in vector, got %q", raw))
			}
			var vec Vec3
			for i, dst := range []*float64{&vec.X, &vec.Y, &vec.Z} {
				f, err := strconv.ParseFloat(tokens[i], 64)
				if err != nil {
					return nil, newParseError(ErrMalformedNumber, 0,
						fmt.Sprintf("invalid vector component %q", tokens[i]))
				}
				*dst = f
			}
			vectors = append(vectors, vec)
		}
		return &FieldValues{
			Arity:         ArityVector,
			Vectors:       vectors,
			DeclaredCount: block.DeclaredCount,
		}, nil

	default:
		values := make([]float64, 0, len(block.DataLines))
		for _, raw := range block.DataLines {
			text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), ";"))
			if text == "" {
				continue
			}
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, newParseError(ErrMalformedNumber, 0,
					fmt.Sprintf("invalid scalar value %q", text))
			}
			values = append(values, f)
		}
		return &FieldValues{
			Arity:         ArityScalar,
			Scalars:       values,
			DeclaredCount: block.DeclaredCount,
		}, nil
	}
}
