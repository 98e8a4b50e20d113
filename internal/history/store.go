// Package history persists run and step outcomes in a SQLite database so
// repeated guide runs can be compared and flaky steps surfaced.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    guide_url TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    duration_ms INTEGER NOT NULL,
    total_steps INTEGER NOT NULL,
    passed INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    mandatory_failed INTEGER NOT NULL,
    skippable_failed INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    not_reached INTEGER NOT NULL,
    success BOOLEAN NOT NULL,
    abort_reason TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS step_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    step_id TEXT NOT NULL,
    status TEXT NOT NULL,
    classification TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    skip_reason TEXT NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs (run_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_guide_url ON runs (guide_url);
CREATE INDEX IF NOT EXISTS idx_step_results_run_id ON step_results (run_id);
CREATE INDEX IF NOT EXISTS idx_step_results_step_id ON step_results (step_id);
`

// RunRecord is one persisted run summary.
type RunRecord struct {
	ID              int64
	RunID           string
	GuideURL        string
	StartedAt       time.Time
	Duration        time.Duration
	TotalSteps      int
	Passed          int
	Failed          int
	MandatoryFailed int
	SkippableFailed int
	Skipped         int
	NotReached      int
	Success         bool
	AbortReason     string
}

// StepRecord is one persisted step outcome within a run.
type StepRecord struct {
	ID             int64
	RunID          string
	StepID         string
	Status         string
	Classification string
	Error          string
	SkipReason     string
	Duration       time.Duration
}

// FlakyStep aggregates a step that both passed and failed across recorded
// runs.
type FlakyStep struct {
	StepID   string
	Runs     int
	Passes   int
	Failures int
}

// Store manages the SQLite history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath and
// initializes the schema. Use ":memory:" for an ephemeral store.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so the remaining pragmas wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
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

// execWithRetry executes a SQL statement with exponential backoff retry on
// lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun persists a run summary and its per-step outcomes in one
// transaction. The RunRecord's ID is filled on success.
func (s *Store) RecordRun(ctx context.Context, run *RunRecord, steps []StepRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs
			(run_id, guide_url, started_at, duration_ms, total_steps, passed, failed, mandatory_failed, skippable_failed, skipped, not_reached, success, abort_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.GuideURL,
		run.StartedAt.UTC(),
		run.Duration.Milliseconds(),
		run.TotalSteps,
		run.Passed,
		run.Failed,
		run.MandatoryFailed,
		run.SkippableFailed,
		run.Skipped,
		run.NotReached,
		run.Success,
		run.AbortReason,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if run.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	for i := range steps {
		steps[i].RunID = run.RunID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO step_results
				(run_id, step_id, status, classification, error, skip_reason, duration_ms)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
			steps[i].RunID,
			steps[i].StepID,
			steps[i].Status,
			steps[i].Classification,
			steps[i].Error,
			steps[i].SkipReason,
			steps[i].Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert step result %s: %w", steps[i].StepID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Runs retrieves recorded runs, most recent first. guideURL filters when
// non-empty; limit caps the result when positive.
func (s *Store) Runs(ctx context.Context, guideURL string, limit int) ([]*RunRecord, error) {
	query := `SELECT id, run_id, guide_url, started_at, duration_ms, total_steps, passed, failed, mandatory_failed, skippable_failed, skipped, not_reached, success, abort_reason
		FROM runs`
	args := []interface{}{}
	if guideURL != "" {
		query += ` WHERE guide_url = ?`
		args = append(args, guideURL)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		run := &RunRecord{}
		var durationMs int64
		if err := rows.Scan(
			&run.ID,
			&run.RunID,
			&run.GuideURL,
			&run.StartedAt,
			&durationMs,
			&run.TotalSteps,
			&run.Passed,
			&run.Failed,
			&run.MandatoryFailed,
			&run.SkippableFailed,
			&run.Skipped,
			&run.NotReached,
			&run.Success,
			&run.AbortReason,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// StepResults retrieves the per-step outcomes of one run in insertion order.
func (s *Store) StepResults(ctx context.Context, runID string) ([]*StepRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, step_id, status, classification, error, skip_reason, duration_ms
			FROM step_results WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query step results: %w", err)
	}
	defer rows.Close()

	var steps []*StepRecord
	for rows.Next() {
		step := &StepRecord{}
		var durationMs int64
		if err := rows.Scan(
			&step.ID,
			&step.RunID,
			&step.StepID,
			&step.Status,
			&step.Classification,
			&step.Error,
			&step.SkipReason,
			&durationMs,
		); err != nil {
			return nil, fmt.Errorf("scan step result: %w", err)
		}
		step.Duration = time.Duration(durationMs) * time.Millisecond
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// FlakySteps returns steps that both passed and failed across recorded runs,
// ordered by failure count descending.
func (s *Store) FlakySteps(ctx context.Context) ([]*FlakyStep, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step_id,
			COUNT(*) AS runs,
			SUM(CASE WHEN status = 'passed' THEN 1 ELSE 0 END) AS passes,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) AS failures
		FROM step_results
		GROUP BY step_id
		HAVING passes > 0 AND failures > 0
		ORDER BY failures DESC, step_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query flaky steps: %w", err)
	}
	defer rows.Close()

	var flaky []*FlakyStep
	for rows.Next() {
		f := &FlakyStep{}
		if err := rows.Scan(&f.StepID, &f.Runs, &f.Passes, &f.Failures); err != nil {
			return nil, fmt.Errorf("scan flaky step: %w", err)
		}
		flaky = append(flaky, f)
	}
	return flaky, rows.Err()
}

// Prune deletes runs older than keepDays and their step results. A keepDays
// of zero or less is a no-op.
func (s *Store) Prune(ctx context.Context, keepDays int) error {
	if keepDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -keepDays).UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM step_results WHERE run_id IN (SELECT run_id FROM runs WHERE started_at < ?)`, cutoff); err != nil {
		return fmt.Errorf("prune step results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff); err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return tx.Commit()
}
