package foam

import (
	"strings"
	"testing"
)

const fieldFileHeader = `/*--------------------------------*- C++ -*----------------------------------*\
| =========                 |                                                 |
| \\      /  F ield         | OpenFOAM: The Open Source CFD Toolbox           |
\*---------------------------------------------------------------------------*/
FoamFile
{
    version     2.0;
    format      ascii;
    class       volScalarField;
    object      p;
}
// * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * * //

dimensions      [0 2 -2 0 0 0 0];

`

func fieldLines(body string) []string {
	return strings.Split(fieldFileHeader+body, "\n")
}

func TestLocateUniformScalar(t *testing.T) {
	block, err := LocateInternalField(fieldLines("internalField   uniform 4.2;\n"))
	if err != nil {
		t.Fatalf("LocateInternalField failed: %v", err)
	}
	if block.Kind != BlockUniform {
		t.Errorf("Expected BlockUniform, got %v", block.Kind)
	}
	if block.Value != "4.2" {
		t.Errorf("Expected value %q, got %q", "4.2", block.Value)
	}
}

func TestLocateUniformVector(t *testing.T) {
	block, err := LocateInternalField(fieldLines("internalField   uniform (1 0 0);\n"))
	if err != nil {
		t.Fatalf("LocateInternalField failed: %v", err)
	}
	if block.Kind != BlockUniform {
		t.Errorf("Expected BlockUniform, got %v", block.Kind)
	}
	if block.Value != "(1 0 0)" {
		t.Errorf("Expected value %q, got %q", "(1 0 0)", block.Value)
	}
}

func TestLocateNonUniform(t *testing.T) {
	body := `internalField   nonuniform List<scalar>
3
(
0.1
0.2
0.3
)
;
`
	block, err := LocateInternalField(fieldLines(body))
	if err != nil {
		t.Fatalf("LocateInternalField failed: %v", err)
	}
	if block.Kind != BlockNonUniform {
		t.Errorf("Expected BlockNonUniform, got %v", block.Kind)
	}
	if block.DeclaredCount != 3 {
		t.Errorf("Expected declared count 3, got %d", block.DeclaredCount)
	}
	if len(block.DataLines) != 3 {
		t.Errorf("Expected 3 data lines, got %d", len(block.DataLines))
	}
}

// A nonuniform marker line contains "uniform" as an infix; it must never be
// classified uniform.
func TestLocateClassificationOrderSensitive(t *testing.T) {
	body := `internalField   nonuniform List<vector>
2
(
(1 0 0)
(0 1 0)
)
;
`
	block, err := LocateInternalField(fieldLines(body))
	if err != nil {
		t.Fatalf("LocateInternalField failed: %v", err)
	}
	if block.Kind != BlockNonUniform {
		t.Errorf("Line with nonuniform marker classified as %v, want BlockNonUniform", block.Kind)
	}
}

func TestLocateSkipsCommentsAndBlanks(t *testing.T) {
	body := `internalField   nonuniform List<scalar>
4
(
0.1

// a stray comment from a post-processing utility
0.2
)
;
`
	block, err := LocateInternalField(fieldLines(body))
	if err != nil {
		t.Fatalf("LocateInternalField failed: %v", err)
	}
	if len(block.DataLines) != 2 {
		t.Fatalf("Expected 2 data lines after skipping comments/blanks, got %d", len(block.DataLines))
	}
	if block.DataLines[0] != "0.1" || block.DataLines[1] != "0.2" {
		t.Errorf("Unexpected data lines: %v", block.DataLines)
	}
}

func TestLocateCloseDelimiterWithSemicolon(t *testing.T) {
	body := `internalField   nonuniform List<scalar>
1
(
0.5
);
`
	block, err := LocateInternalField(fieldLines(body))
	if err != nil {
		t.Fatalf("LocateInternalField failed: %v", err)
	}
	if len(block.DataLines) != 1 {
		t.Errorf("Expected 1 data line, got %d", len(block.DataLines))
	}
}

func TestLocateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind ErrorKind
	}{
		{
			name: "no internalField entry",
			body: "boundaryField\n{\n}\n",
			kind: ErrMissingEntry,
		},
		{
			name: "nonuniform without count",
			body: "internalField   nonuniform List<scalar>\n(\n0.1\n)\n",
			kind: ErrMissingCount,
		},
		{
			name: "nonuniform without opening delimiter",
			body: "internalField   nonuniform List<scalar>\n3\n0.1\n0.2\n0.3\n",
			kind: ErrMissingOpenDelimiter,
		},
		{
			name: "truncated value list",
			body: "internalField   nonuniform List<scalar>\n3\n(\n0.1\n0.2\n",
			kind: ErrMissingCloseDelimiter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LocateInternalField(fieldLines(tt.body))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			kind, ok := KindOf(err)
			if !ok {
				t.Fatalf("Expected ParseError, got %T: %v", err, err)
			}
			if kind != tt.kind {
				t.Errorf("Expected kind %v, got %v", tt.kind, kind)
			}
		})
	}
}

func TestBlockKindString(t *testing.T) {
	if BlockUniform.String() != "uniform" {
		t.Errorf("Expected 'uniform', got %q", BlockUniform.String())
	}
	if BlockNonUniform.String() != "nonuniform" {
		t.Errorf("Expected 'nonuniform', got %q", BlockNonUniform.String())
	}
}
