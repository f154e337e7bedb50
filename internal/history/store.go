package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mediaflow/internal/fileutil"
)

// Store is the run ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	timeLayout              = time.RFC3339Nano
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Open initializes or connects to the ledger at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := fileutil.EnsureParentDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// StartRun inserts run with status running.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, project_title, project_path, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ProjectTitle, run.ProjectPath, string(StatusRunning), run.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the final status and counts of run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	err := s.exec(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, executed = ?, skipped = ?, failed = ?, error_message = ? WHERE id = ?`,
		string(run.Status), run.FinishedAt.UTC().Format(timeLayout), run.Executed, run.Skipped, run.Failed, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RecordActivity appends one activity result to its run.
func (s *Store) RecordActivity(ctx context.Context, activity Activity) error {
	if activity.RecordedAt.IsZero() {
		activity.RecordedAt = time.Now()
	}
	err := s.exec(ctx,
		`INSERT INTO activity_results (run_id, pipeline, activity, type, executed, skipped, failed, duration_ms, error_message, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.RunID, activity.Pipeline, activity.Name, activity.Type,
		activity.Executed, activity.Skipped, activity.Failed,
		activity.Duration.Milliseconds(), activity.ErrorMessage,
		activity.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert activity result: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_title, project_path, status, started_at, finished_at, executed, skipped, failed, error_message
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			status     string
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.ProjectTitle, &run.ProjectPath, &status, &startedAt, &finishedAt,
			&run.Executed, &run.Skipped, &run.Failed, &run.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = Status(status)
		run.StartedAt = parseTime(startedAt)
		if finishedAt.Valid {
			run.FinishedAt = parseTime(finishedAt.String)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Activities returns the activity results of runID in insertion order.
func (s *Store) Activities(ctx context.Context, runID string) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, pipeline, activity, type, executed, skipped, failed, duration_ms, error_message, recorded_at
		 FROM activity_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query activity results: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var (
			activity   Activity
			durationMS int64
			recordedAt string
		)
		if err := rows.Scan(&activity.RunID, &activity.Pipeline, &activity.Name, &activity.Type,
			&activity.Executed, &activity.Skipped, &activity.Failed, &durationMS, &activity.ErrorMessage, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan activity result: %w", err)
		}
		activity.Duration = time.Duration(durationMS) * time.Millisecond
		activity.RecordedAt = parseTime(recordedAt)
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
