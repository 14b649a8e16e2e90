package foam

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// reservedDirNames are case-directory entries that look like they might hold
// field data but never do.
var reservedDirNames = map[string]bool{
	"system":   true,
	"constant": true,
	"0.orig":   true,
}

// TimeDir is one timestep snapshot directory inside a case directory.
type TimeDir struct {
	// Name is the directory name as written by the solver, e.g. "0.045".
	Name string
	// Value is the numeric timestep parsed from Name.
	Value float64
	// Path is the full path to the directory.
	Path string
}

// ListTimeDirs returns the time directories found directly under caseDir,
// sorted ascending by numeric timestep value.
//
// A directory qualifies when its name parses as a floating-point literal and
// is not one of the reserved names (system, constant, 0.orig). Non-directory
// entries and non-numeric names are silently skipped.
func ListTimeDirs(caseDir string) ([]TimeDir, error) {
	entries, err := os.ReadDir(caseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read case directory: %w", err)
	}

	var dirs []TimeDir
	for _, entry := range entries {
		if !entry.IsDir() || reservedDirNames[entry.Name()] {
			continue
		}
		value, err := strconv.ParseFloat(entry.Name(), 64)
		if err != nil {
			continue
		}
		dirs = append(dirs, TimeDir{
			Name:  entry.Name(),
			Value: value,
			Path:  filepath.Join(caseDir, entry.Name()),
		})
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Value < dirs[j].Value })
	return dirs, nil
}
