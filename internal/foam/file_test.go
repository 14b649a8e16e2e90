package foam

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFieldFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "p")
	require.NoError(t, os.WriteFile(path, []byte(fieldFileHeader+body), 0644))
	return path
}

func TestParseFileUniformScalar(t *testing.T) {
	path := writeFieldFile(t, "internalField   uniform 101325;\n")

	values, err := ParseFile(path, ArityScalar)
	require.NoError(t, err)
	assert.Equal(t, []float64{101325}, values.Scalars)
}

func TestParseFileNonUniformVector(t *testing.T) {
	body := `internalField   nonuniform List<vector>
2
(
(0.1 0.2 0.3)
(0.4 0.5 0.6)
)
;
`
	path := writeFieldFile(t, body)

	values, err := ParseFile(path, ArityVector)
	require.NoError(t, err)
	require.Len(t, values.Vectors, 2)
	assert.Equal(t, Vec3{X: 0.1, Y: 0.2, Z: 0.3}, values.Vectors[0])
	assert.Equal(t, Vec3{X: 0.4, Y: 0.5, Z: 0.6}, values.Vectors[1])
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope"), ArityScalar)
	require.Error(t, err)
	assert.False(t, IsParseError(err), "I/O failure should not be a ParseError")
}

// Parsing is a pure function of the input: the same file parsed twice yields
// identical results.
func TestParseFileIdempotent(t *testing.T) {
	body := `internalField   nonuniform List<scalar>
3
(
0.1
0.2
0.3
)
;
`
	path := writeFieldFile(t, body)

	first, err := ParseFile(path, ArityScalar)
	require.NoError(t, err)
	second, err := ParseFile(path, ArityScalar)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseReader(t *testing.T) {
	r := strings.NewReader(fieldFileHeader + "internalField   uniform (0 0 9.81);\n")
	values, err := Parse(r, ArityVector)
	require.NoError(t, err)
	require.Len(t, values.Vectors, 1)
	assert.Equal(t, Vec3{X: 0, Y: 0, Z: 9.81}, values.Vectors[0])
}
