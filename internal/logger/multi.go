package logger

import "github.com/harrison/foamcsv/internal/models"

// EventLogger is the set of events both logger implementations emit.
// It matches exporter.Logger so a MultiLogger can stand in anywhere a single
// logger is expected.
type EventLogger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogTimeDirStart(timeDir string)
	LogConversion(result models.ConversionResult)
	LogSummary(result models.ExportResult)
}

// MultiLogger forwards every event to multiple loggers, typically the
// console logger plus the file logger.
type MultiLogger struct {
	loggers []EventLogger
}

// NewMultiLogger creates a MultiLogger over the given loggers.
// Nil entries are skipped.
func NewMultiLogger(loggers ...EventLogger) *MultiLogger {
	var out []EventLogger
	for _, l := range loggers {
		if l != nil {
			out = append(out, l)
		}
	}
	return &MultiLogger{loggers: out}
}

// LogDebug forwards to all loggers.
func (ml *MultiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

// LogInfo forwards to all loggers.
func (ml *MultiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

// LogWarn forwards to all loggers.
func (ml *MultiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

// LogError forwards to all loggers.
func (ml *MultiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

// LogTimeDirStart forwards to all loggers.
func (ml *MultiLogger) LogTimeDirStart(timeDir string) {
	for _, l := range ml.loggers {
		l.LogTimeDirStart(timeDir)
	}
}

// LogConversion forwards to all loggers.
func (ml *MultiLogger) LogConversion(result models.ConversionResult) {
	for _, l := range ml.loggers {
		l.LogConversion(result)
	}
}

// LogSummary forwards to all loggers.
func (ml *MultiLogger) LogSummary(result models.ExportResult) {
	for _, l := range ml.loggers {
		l.LogSummary(result)
	}
}
