package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finstack-labs/finsight/pkg/core"
)

// CreateRun creates a new pipeline run in the running state.
func (s *SQLiteStore) CreateRun(env string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:          generateID(),
		Environment: env,
		Status:      core.RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}

	s.logger.Debug("creating run",
		slog.String("id", run.ID), slog.String("environment", env))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, environment, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Environment, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRow(
		`SELECT id, environment, status, started_at, completed_at, error
		 FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as completed with the given status.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}

	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC(), errPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetLatestRun retrieves the most recent run for an environment.
// Returns nil without error when no runs exist yet.
func (s *SQLiteStore) GetLatestRun(env string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRow(
		`SELECT id, environment, status, started_at, completed_at, error
		 FROM runs WHERE environment = ? ORDER BY started_at DESC LIMIT 1`, env))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, environment, status, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	run := &core.Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	if err := row.Scan(&run.ID, &run.Environment, &run.Status,
		&run.StartedAt, &completedAt, &errMsg); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}
