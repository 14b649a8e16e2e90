package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/foamcsv/internal/models"
)

// logFileName is the persisted run trace inside the export output root.
const logFileName = "log.txt"

// FileLogger persists export events to log.txt inside the output root, so
// the trace lives next to the CSVs it describes. Runs append; each run
// starts with a header carrying its run ID. It is thread-safe and supports
// log level filtering.
type FileLogger struct {
	logPath  string
	file     *os.File
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to <outRoot>/log.txt, creating
// the directory if needed, and writes the run header for runID.
func NewFileLogger(outRoot, runID, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(outRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logPath := filepath.Join(outRoot, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fl := &FileLogger{
		logPath:  logPath,
		file:     file,
		logLevel: normalizeLogLevel(logLevel),
		mu:       sync.Mutex{},
	}

	fl.write(fmt.Sprintf("=== foamcsv export run %s ===\n", runID))
	fl.write(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// Path returns the log file path.
func (fl *FileLogger) Path() string {
	return fl.logPath
}

// shouldLog checks if a message at the given level should be logged.
func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

// logWithLevel logs a message at the specified level if filtering allows it.
func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.write(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message))
}

// LogTimeDirStart logs the start of a time directory at INFO level.
func (fl *FileLogger) LogTimeDirStart(timeDir string) {
	if !fl.shouldLog("info") {
		return
	}
	fl.write(fmt.Sprintf("[%s] === Time %s ===\n", time.Now().Format("15:04:05"), timeDir))
}

// LogConversion logs the outcome of a single field conversion. Failures log
// at ERROR level, everything else at INFO.
func (fl *FileLogger) LogConversion(result models.ConversionResult) {
	switch result.Status {
	case models.StatusFailed:
		if !fl.shouldLog("error") {
			return
		}
	default:
		if !fl.shouldLog("info") {
			return
		}
	}

	ts := time.Now().Format("15:04:05")
	switch result.Status {
	case models.StatusSkipped:
		fl.write(fmt.Sprintf("[%s]   [skip] %s not found in %s\n", ts, result.Task.Field, result.Task.TimeDir))
	case models.StatusFailed:
		fl.write(fmt.Sprintf("[%s]   [error] Failed to convert %s: %v\n", ts, result.Task.FieldPath, result.Error))
	default:
		anomaly := ""
		if result.CountAnomaly {
			anomaly = fmt.Sprintf(" (declared %d)", result.DeclaredCount)
		}
		fl.write(fmt.Sprintf("[%s]   [%s] %s: %d rows -> %s%s\n",
			ts, result.Task.Arity, result.Task.Field, result.Rows, result.Task.OutPath, anomaly))
	}
}

// LogSummary logs the export summary at INFO level.
func (fl *FileLogger) LogSummary(result models.ExportResult) {
	if !fl.shouldLog("info") {
		return
	}

	ts := time.Now().Format("15:04:05")
	message := fmt.Sprintf(
		"\n[%s] === EXPORT SUMMARY ===\n"+
			"[%s] Time directories: %d\n"+
			"[%s] Converted:        %d\n"+
			"[%s] Skipped:          %d\n"+
			"[%s] Failed:           %d\n"+
			"[%s] Count anomalies:  %d\n"+
			"[%s] Duration:         %.1fs\n"+
			"[%s] Status:           %s (%d/%d conversions)\n"+
			"[%s] Completed at:     %s\n",
		ts,
		ts, result.TimeDirs,
		ts, result.Converted,
		ts, result.Skipped,
		ts, result.Failed,
		ts, result.Anomalies,
		ts, result.Duration.Seconds(),
		ts, result.Status(), result.Converted, result.Converted+result.Failed,
		ts, time.Now().Format(time.RFC3339),
	)
	fl.write(message)
}

// Close flushes and closes the log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file != nil {
		if err := fl.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync log file: %w", err)
		}
		if err := fl.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		fl.file = nil
	}
	return nil
}

// write is a thread-safe helper that appends to the log file and flushes,
// so the trace is readable while a long export is still running.
func (fl *FileLogger) write(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.file != nil {
		fl.file.WriteString(message)
		fl.file.Sync()
	}
}
