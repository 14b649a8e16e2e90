// Package logger provides the logging implementations for foamcsv export
// runs: a colored console logger for live progress and a file logger that
// persists the run trace next to the CSV output. Both are thread-safe and
// support log level filtering.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/foamcsv/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs export progress to a writer with timestamps and thread
// safety. All output is prefixed with [HH:MM:SS] timestamps. Color output is
// enabled automatically when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided
// io.Writer. If writer is nil, messages are silently discarded.
// logLevel determines the minimum level for messages to be output
// (trace, debug, info, warn, error; empty or invalid defaults to "info").
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		mutex:       sync.Mutex{},
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Respects NO_COLOR via the color library's global flag.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) && !color.NoColor
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// timestamp returns the current time formatted as HH:MM:SS.
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	var formatted string
	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", timestamp(), coloredLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message)
	}
	cl.writer.Write([]byte(formatted))
}

// coloredLevel renders a level tag with its ANSI color.
func coloredLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogTimeDirStart logs the start of a time directory at INFO level.
// Format: "[HH:MM:SS] === Time <name> ==="
func (cl *ConsoleLogger) LogTimeDirStart(timeDir string) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	name := timeDir
	if cl.colorOutput {
		name = color.New(color.Bold).Sprint(timeDir)
	}
	fmt.Fprintf(cl.writer, "[%s] === Time %s ===\n", timestamp(), name)
}

// LogConversion logs the outcome of a single field conversion.
// Conversions and skips log at INFO, failures at ERROR so they survive
// stricter filtering. Format mirrors the log file:
//
//	[HH:MM:SS]   [vector] U: 1024 rows -> out/0.1/U.csv
//	[HH:MM:SS]   [skip] nut not found in 0.1
//	[HH:MM:SS]   [error] Failed to convert case/0.1/p: <reason>
func (cl *ConsoleLogger) LogConversion(result models.ConversionResult) {
	if cl.writer == nil {
		return
	}

	switch result.Status {
	case models.StatusFailed:
		if !cl.shouldLog("error") {
			return
		}
	default:
		if !cl.shouldLog("info") {
			return
		}
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	switch result.Status {
	case models.StatusSkipped:
		fmt.Fprintf(cl.writer, "[%s]   [skip] %s not found in %s\n", ts, result.Task.Field, result.Task.TimeDir)
	case models.StatusFailed:
		tag := "[error]"
		if cl.colorOutput {
			tag = color.New(color.FgRed).Sprint("[error]")
		}
		fmt.Fprintf(cl.writer, "[%s]   %s Failed to convert %s: %v\n", ts, tag, result.Task.FieldPath, result.Error)
	default:
		anomaly := ""
		if result.CountAnomaly {
			anomaly = fmt.Sprintf(" (declared %d)", result.DeclaredCount)
		}
		fmt.Fprintf(cl.writer, "[%s]   [%s] %s: %d rows -> %s%s\n",
			ts, result.Task.Arity, result.Task.Field, result.Rows, result.Task.OutPath, anomaly)
	}
}

// LogSummary logs the export summary with completion statistics at INFO level.
func (cl *ConsoleLogger) LogSummary(result models.ExportResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	status := result.Status()
	if cl.colorOutput {
		switch status {
		case "SUCCESS":
			status = color.New(color.FgGreen).Sprint(status)
		case "PARTIAL":
			status = color.New(color.FgYellow).Sprint(status)
		case "FAILED":
			status = color.New(color.FgRed).Sprint(status)
		}
	}

	fmt.Fprintf(cl.writer, "\n[%s] === Export Summary ===\n", ts)
	fmt.Fprintf(cl.writer, "[%s] Time directories: %d\n", ts, result.TimeDirs)
	fmt.Fprintf(cl.writer, "[%s] Converted:        %d\n", ts, result.Converted)
	fmt.Fprintf(cl.writer, "[%s] Skipped:          %d\n", ts, result.Skipped)
	fmt.Fprintf(cl.writer, "[%s] Failed:           %d\n", ts, result.Failed)
	if result.Anomalies > 0 {
		fmt.Fprintf(cl.writer, "[%s] Count anomalies:  %d\n", ts, result.Anomalies)
	}
	fmt.Fprintf(cl.writer, "[%s] Duration:         %.1fs\n", ts, result.Duration.Seconds())
	fmt.Fprintf(cl.writer, "[%s] Status:           %s\n", ts, status)
}
