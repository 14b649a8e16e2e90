// Package history persists a record of past export runs to a SQLite
// database, typically history.db inside the export output root. The record
// answers "what was converted, when, and did anything fail" without digging
// through log files.
package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/foamcsv/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// RunRecord is one stored export run.
type RunRecord struct {
	RunID      string
	CaseDir    string
	OutDir     string
	StartedAt  time.Time
	FinishedAt time.Time
	TimeDirs   int
	Converted  int
	Skipped    int
	Failed     int
	Anomalies  int
	Status     string
}

// ConversionRecord is one stored field conversion belonging to a run.
type ConversionRecord struct {
	RunID         string
	TimeDir       string
	Field         string
	Arity         string
	Rows          int
	DeclaredCount int
	CountAnomaly  bool
	Status        string
	Error         string
	Duration      time.Duration
}

// Store manages the SQLite run-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if necessary) the history database at dbPath and
// initializes its schema. Parent directories are created for file-based
// databases; ":memory:" is accepted for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so the remaining pragmas wait on locks held by a
	// concurrent export writing to the same output root.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// RecordRun stores one export run and all of its conversions in a single
// transaction.
func (s *Store) RecordRun(result models.ExportResult, conversions []models.ConversionResult, startedAt, finishedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, case_dir, out_dir, started_at, finished_at,
			time_dirs, converted, skipped, failed, anomalies, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.CaseDir, result.OutDir, startedAt, finishedAt,
		result.TimeDirs, result.Converted, result.Skipped, result.Failed,
		result.Anomalies, result.Status(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO conversions (run_id, time_dir, field, arity, row_count,
			declared_count, count_anomaly, status, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare conversion insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range conversions {
		errText := ""
		if c.Error != nil {
			errText = c.Error.Error()
		}
		_, err := stmt.Exec(
			result.RunID, c.Task.TimeDir, c.Task.Field, c.Task.Arity.String(),
			c.Rows, c.DeclaredCount, c.CountAnomaly, c.Status, errText,
			c.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert conversion %s/%s: %w", c.Task.TimeDir, c.Task.Field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run record: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, most recent first.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT run_id, case_dir, out_dir, started_at, finished_at,
			time_dirs, converted, skipped, failed, anomalies, status
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.CaseDir, &r.OutDir, &r.StartedAt, &r.FinishedAt,
			&r.TimeDirs, &r.Converted, &r.Skipped, &r.Failed, &r.Anomalies, &r.Status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// RunConversions returns the conversions recorded for one run, in insertion
// order.
func (s *Store) RunConversions(runID string) ([]ConversionRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, time_dir, field, arity, row_count, declared_count,
			count_anomaly, status, error, duration_ms
		FROM conversions
		WHERE run_id = ?
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	var records []ConversionRecord
	for rows.Next() {
		var (
			c          ConversionRecord
			durationMS int64
		)
		if err := rows.Scan(&c.RunID, &c.TimeDir, &c.Field, &c.Arity, &c.Rows,
			&c.DeclaredCount, &c.CountAnomaly, &c.Status, &c.Error, &durationMS); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		c.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, c)
	}
	return records, rows.Err()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
