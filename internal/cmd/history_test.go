package cmd

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/foamcsv/internal/foam"
	"github.com/harrison/foamcsv/internal/history"
	"github.com/harrison/foamcsv/internal/models"
)

func executeHistoryCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	rootCmd := NewRootCommand()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"history"}, args...))

	err := rootCmd.Execute()
	return buf.String(), err
}

// seedHistoryDB records one run with one converted and one skipped
// conversion, returning the database path.
func seedHistoryDB(t *testing.T, runID string) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	result := models.ExportResult{
		RunID:     runID,
		CaseDir:   "/data/cavity",
		OutDir:    "/data/cavity_csv",
		TimeDirs:  1,
		Total:     2,
		Converted: 1,
		Skipped:   1,
	}
	conversions := []models.ConversionResult{
		{
			Task:          models.FieldTask{TimeDir: "0.5", Field: "p", Arity: foam.ArityScalar},
			Status:        models.StatusConverted,
			Rows:          3,
			DeclaredCount: 3,
			Duration:      12 * time.Millisecond,
		},
		{
			Task:   models.FieldTask{TimeDir: "0.5", Field: "nut", Arity: foam.ArityScalar},
			Status: models.StatusSkipped,
		},
	}
	started := time.Now().Add(-time.Minute)
	require.NoError(t, store.RecordRun(result, conversions, started, time.Now()))

	return dbPath
}

func TestHistoryCommand_ListRuns(t *testing.T) {
	dbPath := seedHistoryDB(t, "run-abc")

	output, err := executeHistoryCommand(t, "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, output, "run-abc")
	assert.Contains(t, output, "Case: /data/cavity")
	assert.Contains(t, output, "SUCCESS")
	assert.Contains(t, output, "1 converted, 1 skipped, 0 failed")
}

func TestHistoryCommand_ShowRunConversions(t *testing.T) {
	dbPath := seedHistoryDB(t, "run-abc")

	output, err := executeHistoryCommand(t, "--db", dbPath, "run-abc")
	require.NoError(t, err)

	assert.Contains(t, output, "0.5/p  [scalar]  3 rows")
	assert.Contains(t, output, "0.5/nut  [scalar]  skipped")
}

func TestHistoryCommand_UnknownRun(t *testing.T) {
	dbPath := seedHistoryDB(t, "run-abc")

	output, err := executeHistoryCommand(t, "--db", dbPath, "run-missing")
	require.NoError(t, err)
	assert.Contains(t, output, "No conversions recorded for run run-missing")
}

func TestHistoryCommand_EmptyDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	store.Close()

	output, err := executeHistoryCommand(t, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "No recorded runs.")
}

func TestHistoryCommand_NoDBConfigured(t *testing.T) {
	_, err := executeHistoryCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no history database")
}

func TestHistoryCommand_Limit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := history.NewStore(dbPath)
	require.NoError(t, err)
	for i, runID := range []string{"run-1", "run-2", "run-3"} {
		result := models.ExportResult{RunID: runID, CaseDir: "/data/cavity", OutDir: "/data/cavity_csv"}
		started := time.Now().Add(time.Duration(i-3) * time.Minute)
		require.NoError(t, store.RecordRun(result, nil, started, started.Add(time.Second)))
	}
	store.Close()

	output, err := executeHistoryCommand(t, "--db", dbPath, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, output, "run-3")
	assert.Contains(t, output, "run-2")
	assert.NotContains(t, output, "run-1")
}
