package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StartRun records the start of a run and returns its id.
func (s *Storage) StartRun(ctx context.Context, kind string, dryRun bool) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, kind, started_at, dry_run, status)
		VALUES (?, ?, ?, ?, ?)
	`, id, kind, time.Now().UTC(), dryRun, RunStatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to start %s run: %w", kind, err)
	}
	return id, nil
}

// CompleteRun records the counts and final status of a run.
func (s *Storage) CompleteRun(ctx context.Context, id string, counts RunCounts, runErr error) error {
	status := runStatus(counts, runErr)
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sync_runs
		SET completed_at = ?, processed = ?, created = ?, updated = ?, skipped = ?,
		    duplicates = ?, failed = ?, status = ?, error = ?
		WHERE id = ?
	`, time.Now().UTC(), counts.Processed, counts.Created, counts.Updated, counts.Skipped,
		counts.Duplicates, counts.Failed, status, message, id)
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

func runStatus(counts RunCounts, runErr error) string {
	switch {
	case runErr != nil:
		return RunStatusFailed
	case counts.Failed > 0:
		return RunStatusCompletedWithErrors
	default:
		return RunStatusCompleted
	}
}

const runColumns = `id, kind, started_at, completed_at, dry_run, processed, created, updated,
	skipped, duplicates, failed, status, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*SyncRun, error) {
	var run SyncRun
	var completedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Kind, &run.StartedAt, &completedAt, &run.DryRun,
		&run.Processed, &run.Created, &run.Updated, &run.Skipped, &run.Duplicates,
		&run.Failed, &run.Status, &run.Error)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []SyncRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by id.
func (s *Storage) GetRun(ctx context.Context, id string) (*SyncRun, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}
