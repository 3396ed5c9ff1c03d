package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finstack-labs/finsight/pkg/core"
)

// SaveSnapshot stores the JSON payload of a completed run's metrics.
func (s *SQLiteStore) SaveSnapshot(runID string, takenAt time.Time, payload []byte) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(
		`INSERT INTO snapshots (run_id, taken_at, payload) VALUES (?, ?, ?)`,
		runID, takenAt.UTC(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetLatestSnapshot returns the newest snapshot for an environment, or
// nil without error when none exists.
func (s *SQLiteStore) GetLatestSnapshot(env string) (*core.SnapshotRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rec := &core.SnapshotRecord{}
	err := s.db.QueryRow(
		`SELECT sn.id, sn.run_id, sn.taken_at, sn.payload
		 FROM snapshots sn
		 JOIN runs r ON r.id = sn.run_id
		 WHERE r.environment = ?
		 ORDER BY sn.taken_at DESC, sn.id DESC
		 LIMIT 1`, env,
	).Scan(&rec.ID, &rec.RunID, &rec.TakenAt, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return rec, nil
}
