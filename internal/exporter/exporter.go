// Package exporter orchestrates an export run: it walks the time directories
// of an OpenFOAM case, converts each configured field file to CSV, and
// reports progress through an injected logger. Field conversions inside one
// time directory fan out across a bounded worker pool; the parser is
// stateless, so parallel conversions need no coordination beyond the pool.
package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/harrison/foamcsv/internal/config"
	"github.com/harrison/foamcsv/internal/csvout"
	"github.com/harrison/foamcsv/internal/filelock"
	"github.com/harrison/foamcsv/internal/foam"
	"github.com/harrison/foamcsv/internal/history"
	"github.com/harrison/foamcsv/internal/models"
)

// lockFileName is the run lock inside the export output root.
const lockFileName = ".foamcsv.lock"

// Logger receives export progress events. Both logger implementations and
// the multi-logger satisfy it.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogTimeDirStart(timeDir string)
	LogConversion(result models.ConversionResult)
	LogSummary(result models.ExportResult)
}

// Exporter converts the field files of a case directory to CSV.
type Exporter struct {
	cfg    *config.Config
	logger Logger
	store  *history.Store
	runID  string
}

// New creates an Exporter. logger must not be nil; store may be nil to
// disable run-history recording.
func New(cfg *config.Config, logger Logger, store *history.Store, runID string) *Exporter {
	return &Exporter{
		cfg:    cfg,
		logger: logger,
		store:  store,
		runID:  runID,
	}
}

// OutputRoot resolves the CSV output root for a case directory: the
// configured out_dir when set, otherwise a sibling directory named
// <case>_csv, mirroring where the solver users expect to find it.
func OutputRoot(caseDir, outDir string) string {
	if outDir != "" {
		return outDir
	}
	clean := filepath.Clean(caseDir)
	return filepath.Join(filepath.Dir(clean), filepath.Base(clean)+"_csv")
}

// Run exports every configured field of every time directory under caseDir.
//
// A missing field file is a skip; a failed parse or write is logged and the
// run continues with the next field. Run returns a non-nil *ExportError when
// any conversion failed, but only after all remaining conversions were
// attempted. Setup problems (unreadable case dir, locked output root,
// cancelled context) abort the run with a plain error.
func (e *Exporter) Run(ctx context.Context, caseDir string) (*models.ExportResult, error) {
	startedAt := time.Now()

	info, err := os.Stat(caseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access case directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", caseDir)
	}

	outRoot := OutputRoot(caseDir, e.cfg.OutDir)
	if err := os.MkdirAll(outRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := filelock.NewRunLock(filepath.Join(outRoot, lockFileName))
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, outRoot)
	}
	defer lock.Unlock()

	timeDirs, err := foam.ListTimeDirs(caseDir)
	if err != nil {
		return nil, err
	}

	e.logger.LogInfo(fmt.Sprintf("Starting CSV export for case: %s", caseDir))
	e.logger.LogInfo(fmt.Sprintf("Output folder: %s", outRoot))
	e.logger.LogInfo(fmt.Sprintf("Found %d time directories in %s", len(timeDirs), caseDir))

	result := &models.ExportResult{
		RunID:    e.runID,
		CaseDir:  caseDir,
		OutDir:   outRoot,
		TimeDirs: len(timeDirs),
	}

	var conversions []models.ConversionResult
	for _, timeDir := range timeDirs {
		if err := ctx.Err(); err != nil {
			e.finish(result, conversions, startedAt)
			return result, fmt.Errorf("export cancelled: %w", err)
		}

		e.logger.LogTimeDirStart(timeDir.Name)
		batch := e.convertTimeDir(ctx, timeDir, outRoot)
		conversions = append(conversions, batch...)
	}

	exportErr := e.finish(result, conversions, startedAt)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("export cancelled: %w", ctxErr)
	}
	if exportErr != nil {
		return result, exportErr
	}
	return result, nil
}

// tasksFor builds the conversion units for one time directory.
func (e *Exporter) tasksFor(timeDir foam.TimeDir, outRoot string) []models.FieldTask {
	tasks := make([]models.FieldTask, 0, len(e.cfg.Fields))
	for _, field := range e.cfg.Fields {
		arity := foam.ArityScalar
		if e.cfg.IsVectorField(field) {
			arity = foam.ArityVector
		}
		tasks = append(tasks, models.FieldTask{
			TimeDir:   timeDir.Name,
			Field:     field,
			Arity:     arity,
			FieldPath: filepath.Join(timeDir.Path, field),
			OutPath:   filepath.Join(outRoot, timeDir.Name, field+".csv"),
		})
	}
	return tasks
}

// convertTimeDir converts all configured fields of one time directory,
// fanning out across a semaphore-bounded worker pool. Results come back in
// field order regardless of completion order.
func (e *Exporter) convertTimeDir(ctx context.Context, timeDir foam.TimeDir, outRoot string) []models.ConversionResult {
	tasks := e.tasksFor(timeDir, outRoot)

	maxConcurrency := e.cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	semaphore := make(chan struct{}, maxConcurrency)
	results := make([]models.ConversionResult, len(tasks))

	var wg sync.WaitGroup
	launched := 0
	for i, task := range tasks {
		// Check the context before acquiring a slot so a cancelled run
		// never blocks on a full semaphore.
		select {
		case <-ctx.Done():
		case semaphore <- struct{}{}:
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		launched++
		go func(i int, task models.FieldTask) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[i] = e.convertField(task)
		}(i, task)
	}
	wg.Wait()

	out := results[:launched]
	for _, r := range out {
		e.logger.LogConversion(r)
	}
	return out
}

// convertField converts a single field file to CSV.
func (e *Exporter) convertField(task models.FieldTask) models.ConversionResult {
	start := time.Now()

	if _, err := os.Stat(task.FieldPath); os.IsNotExist(err) {
		return models.ConversionResult{Task: task, Status: models.StatusSkipped}
	}

	values, err := foam.ParseFile(task.FieldPath, task.Arity)
	if err != nil {
		return models.ConversionResult{
			Task:     task,
			Status:   models.StatusFailed,
			Error:    err,
			Duration: time.Since(start),
		}
	}

	// The CSV is only written after a fully successful extraction, and the
	// write itself is atomic: a failed field leaves no partial output.
	if err := csvout.WriteFieldCSV(values, task.OutPath); err != nil {
		return models.ConversionResult{
			Task:     task,
			Status:   models.StatusFailed,
			Error:    err,
			Duration: time.Since(start),
		}
	}

	return models.ConversionResult{
		Task:          task,
		Status:        models.StatusConverted,
		Rows:          values.Len(),
		DeclaredCount: values.DeclaredCount,
		CountAnomaly:  values.CountAnomaly(),
		Duration:      time.Since(start),
	}
}

// finish aggregates the conversion outcomes into the result, logs the
// summary, records history, and returns the aggregated *ExportError when
// any conversion failed.
func (e *Exporter) finish(result *models.ExportResult, conversions []models.ConversionResult, startedAt time.Time) error {
	exportErr := &ExportError{CaseDir: result.CaseDir, Total: len(conversions)}

	for _, c := range conversions {
		result.Total++
		switch c.Status {
		case models.StatusConverted:
			result.Converted++
			if c.CountAnomaly {
				result.Anomalies++
				e.logger.LogWarn(fmt.Sprintf(
					"count anomaly in %s/%s: declared %d entries, parsed %d",
					c.Task.TimeDir, c.Task.Field, c.DeclaredCount, c.Rows))
			}
		case models.StatusSkipped:
			result.Skipped++
		case models.StatusFailed:
			result.Failed++
			result.FailedConversions = append(result.FailedConversions, c)
			exportErr.AddField(&FieldError{TimeDir: c.Task.TimeDir, Field: c.Task.Field, Err: c.Error})
		}
	}

	result.Duration = time.Since(startedAt)
	e.logger.LogSummary(*result)

	if e.store != nil {
		if err := e.store.RecordRun(*result, conversions, startedAt, time.Now()); err != nil {
			e.logger.LogWarn(fmt.Sprintf("failed to record run history: %v", err))
		}
	}

	if len(exportErr.FieldErrors) > 0 {
		return exportErr
	}
	return nil
}
