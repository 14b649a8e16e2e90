package exporter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/foamcsv/internal/config"
	"github.com/harrison/foamcsv/internal/filelock"
	"github.com/harrison/foamcsv/internal/foam"
	"github.com/harrison/foamcsv/internal/history"
	"github.com/harrison/foamcsv/internal/models"
)

// captureLogger records every event it receives so tests can assert on the
// stream without parsing log output.
type captureLogger struct {
	mu          sync.Mutex
	messages    []string
	timeDirs    []string
	conversions []models.ConversionResult
	summaries   []models.ExportResult
}

func (l *captureLogger) log(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, message)
}

func (l *captureLogger) LogDebug(message string) { l.log(message) }
func (l *captureLogger) LogInfo(message string)  { l.log(message) }
func (l *captureLogger) LogWarn(message string)  { l.log(message) }
func (l *captureLogger) LogError(message string) { l.log(message) }

func (l *captureLogger) LogTimeDirStart(timeDir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timeDirs = append(l.timeDirs, timeDir)
}

func (l *captureLogger) LogConversion(result models.ConversionResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conversions = append(l.conversions, result)
}

func (l *captureLogger) LogSummary(result models.ExportResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.summaries = append(l.summaries, result)
}

const testFieldHeader = `FoamFile
{
    version     2.0;
    format      ascii;
    class       volScalarField;
    object      p;
}

dimensions      [0 2 -2 0 0 0 0];

`

func scalarFieldFile(values ...string) string {
	var b strings.Builder
	b.WriteString(testFieldHeader)
	b.WriteString("internalField   nonuniform List<scalar>\n")
	fmt.Fprintf(&b, "%d\n(\n", len(values))
	for _, v := range values {
		b.WriteString(v + "\n")
	}
	b.WriteString(")\n;\n")
	return b.String()
}

func uniformVectorFieldFile(x, y, z string) string {
	return testFieldHeader + fmt.Sprintf("internalField   uniform (%s %s %s);\n", x, y, z)
}

// writeCase builds a case directory with the given time dirs, each holding
// the same set of field files.
func writeCase(t *testing.T, timeDirs []string, fields map[string]string) string {
	t.Helper()
	caseDir := filepath.Join(t.TempDir(), "cavity")
	for _, td := range timeDirs {
		dir := filepath.Join(caseDir, td)
		require.NoError(t, os.MkdirAll(dir, 0755))
		for name, content := range fields {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
		}
	}
	return caseDir
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Fields = []string{"p", "U"}
	cfg.History.Enabled = false
	return cfg
}

func TestOutputRootDefaultsToSibling(t *testing.T) {
	got := OutputRoot("/data/runs/cavity", "")
	if got != filepath.Join("/data/runs", "cavity_csv") {
		t.Errorf("OutputRoot() = %q, want sibling cavity_csv", got)
	}
}

func TestOutputRootTrailingSlash(t *testing.T) {
	got := OutputRoot("/data/runs/cavity/", "")
	if got != filepath.Join("/data/runs", "cavity_csv") {
		t.Errorf("OutputRoot() = %q, want sibling cavity_csv", got)
	}
}

func TestOutputRootExplicit(t *testing.T) {
	got := OutputRoot("/data/runs/cavity", "/tmp/out")
	if got != "/tmp/out" {
		t.Errorf("OutputRoot() = %q, want /tmp/out", got)
	}
}

func TestRunConvertsScalarAndVectorFields(t *testing.T) {
	caseDir := writeCase(t, []string{"0", "0.5"}, map[string]string{
		"p": scalarFieldFile("101325", "101300"),
		"U": uniformVectorFieldFile("1.5", "0", "-0.25"),
	})
	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	logger := &captureLogger{}
	result, err := New(cfg, logger, nil, "run-1").Run(context.Background(), caseDir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TimeDirs)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 4, result.Converted)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, "SUCCESS", result.Status())

	data, err := os.ReadFile(filepath.Join(cfg.OutDir, "0", "p.csv"))
	require.NoError(t, err)
	assert.Equal(t, "cellId,value\n0,101325\n1,101300\n", string(data))

	data, err = os.ReadFile(filepath.Join(cfg.OutDir, "0.5", "U.csv"))
	require.NoError(t, err)
	assert.Equal(t, "cellId,ux,uy,uz\n0,1.5,0,-0.25\n", string(data))

	assert.Equal(t, []string{"0", "0.5"}, logger.timeDirs)
	require.Len(t, logger.summaries, 1)
	assert.Equal(t, "run-1", logger.summaries[0].RunID)
}

func TestRunSkipsMissingField(t *testing.T) {
	caseDir := writeCase(t, []string{"0"}, map[string]string{
		"p": scalarFieldFile("1", "2"),
	})
	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	logger := &captureLogger{}
	result, err := New(cfg, logger, nil, "run-1").Run(context.Background(), caseDir)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	_, statErr := os.Stat(filepath.Join(cfg.OutDir, "0", "U.csv"))
	assert.True(t, os.IsNotExist(statErr), "no CSV should exist for a skipped field")
}

func TestRunContinuesAfterParseFailure(t *testing.T) {
	caseDir := writeCase(t, []string{"0", "1"}, map[string]string{
		"p": scalarFieldFile("1", "2"),
		"U": uniformVectorFieldFile("1", "2", "3"),
	})
	// Corrupt one field in one time dir; everything else must still convert.
	broken := filepath.Join(caseDir, "0", "p")
	require.NoError(t, os.WriteFile(broken, []byte(testFieldHeader+"dimensions only\n"), 0644))

	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	logger := &captureLogger{}
	result, err := New(cfg, logger, nil, "run-1").Run(context.Background(), caseDir)

	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	require.Len(t, exportErr.FieldErrors, 1)
	assert.Equal(t, "0", exportErr.FieldErrors[0].TimeDir)
	assert.Equal(t, "p", exportErr.FieldErrors[0].Field)
	assert.True(t, foam.IsParseError(exportErr.FieldErrors[0].Err))

	assert.Equal(t, 3, result.Converted)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "PARTIAL", result.Status())

	// The failure left no partial CSV behind.
	_, statErr := os.Stat(filepath.Join(cfg.OutDir, "0", "p.csv"))
	assert.True(t, os.IsNotExist(statErr))

	// The later time dir converted normally.
	_, statErr = os.Stat(filepath.Join(cfg.OutDir, "1", "p.csv"))
	assert.NoError(t, statErr)
}

func TestRunCountAnomaly(t *testing.T) {
	caseDir := writeCase(t, []string{"0"}, map[string]string{
		"p": testFieldHeader + "internalField   nonuniform List<scalar>\n5\n(\n1\n2\n3\n)\n;\n",
		"U": uniformVectorFieldFile("0", "0", "0"),
	})
	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	logger := &captureLogger{}
	result, err := New(cfg, logger, nil, "run-1").Run(context.Background(), caseDir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, 1, result.Anomalies)

	var anomalous *models.ConversionResult
	for i := range logger.conversions {
		if logger.conversions[i].CountAnomaly {
			anomalous = &logger.conversions[i]
		}
	}
	require.NotNil(t, anomalous, "expected a conversion flagged with a count anomaly")
	assert.Equal(t, "p", anomalous.Task.Field)
	assert.Equal(t, 5, anomalous.DeclaredCount)
	assert.Equal(t, 3, anomalous.Rows)

	found := false
	for _, m := range logger.messages {
		if strings.Contains(m, "count anomaly") {
			found = true
		}
	}
	assert.True(t, found, "anomaly warning should be logged")
}

func TestRunSerialWhenConcurrencyOne(t *testing.T) {
	caseDir := writeCase(t, []string{"0"}, map[string]string{
		"p": scalarFieldFile("1"),
		"U": uniformVectorFieldFile("1", "2", "3"),
	})
	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")
	cfg.MaxConcurrency = 1

	logger := &captureLogger{}
	result, err := New(cfg, logger, nil, "run-1").Run(context.Background(), caseDir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Converted)

	// Results are reported in configured field order even with a pool.
	require.Len(t, logger.conversions, 2)
	assert.Equal(t, "p", logger.conversions[0].Task.Field)
	assert.Equal(t, "U", logger.conversions[1].Task.Field)
}

func TestRunOutputLocked(t *testing.T) {
	caseDir := writeCase(t, []string{"0"}, map[string]string{
		"p": scalarFieldFile("1"),
	})
	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(cfg.OutDir, 0755))

	held := filelock.NewRunLock(filepath.Join(cfg.OutDir, lockFileName))
	acquired, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer held.Unlock()

	_, err = New(cfg, &captureLogger{}, nil, "run-2").Run(context.Background(), caseDir)
	assert.ErrorIs(t, err, ErrOutputLocked)
}

func TestRunMissingCaseDir(t *testing.T) {
	cfg := testConfig()
	_, err := New(cfg, &captureLogger{}, nil, "run-1").Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestRunCaseDirIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notadir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	cfg := testConfig()
	_, err := New(cfg, &captureLogger{}, nil, "run-1").Run(context.Background(), path)
	assert.ErrorContains(t, err, "not a directory")
}

func TestRunCancelledContext(t *testing.T) {
	caseDir := writeCase(t, []string{"0", "1"}, map[string]string{
		"p": scalarFieldFile("1"),
		"U": uniformVectorFieldFile("1", "2", "3"),
	})
	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg, &captureLogger{}, nil, "run-1").Run(ctx, caseDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunReleasesLock(t *testing.T) {
	caseDir := writeCase(t, []string{"0"}, map[string]string{
		"p": scalarFieldFile("1"),
	})
	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	_, err := New(cfg, &captureLogger{}, nil, "run-1").Run(context.Background(), caseDir)
	require.NoError(t, err)

	// A second run against the same output root must acquire the lock.
	_, err = New(cfg, &captureLogger{}, nil, "run-2").Run(context.Background(), caseDir)
	assert.NoError(t, err)
}

func TestRunRecordsHistory(t *testing.T) {
	caseDir := writeCase(t, []string{"0"}, map[string]string{
		"p": scalarFieldFile("1", "2"),
		"U": uniformVectorFieldFile("1", "2", "3"),
	})
	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = New(cfg, &captureLogger{}, store, "run-hist").Run(context.Background(), caseDir)
	require.NoError(t, err)

	runs, err := store.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-hist", runs[0].RunID)
	assert.Equal(t, 2, runs[0].Converted)

	conversions, err := store.RunConversions("run-hist")
	require.NoError(t, err)
	assert.Len(t, conversions, 2)
}

func TestRunDurationSet(t *testing.T) {
	caseDir := writeCase(t, []string{"0"}, map[string]string{
		"p": scalarFieldFile("1"),
	})
	cfg := testConfig()
	cfg.OutDir = filepath.Join(t.TempDir(), "out")

	result, err := New(cfg, &captureLogger{}, nil, "run-1").Run(context.Background(), caseDir)
	require.NoError(t, err)
	assert.Greater(t, result.Duration, time.Duration(0))
}
