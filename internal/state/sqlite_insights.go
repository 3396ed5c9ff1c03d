package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finstack-labs/finsight/pkg/core"
)

// SaveInsight stores a generated insight, replacing any previous one
// with the same kind and input hash.
func (s *SQLiteStore) SaveInsight(rec *core.InsightRecord) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(
		`INSERT INTO insights (kind, input_hash, content, model, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (kind, input_hash) DO UPDATE SET
		   content = excluded.content,
		   model = excluded.model,
		   created_at = excluded.created_at`,
		rec.Kind, rec.InputHash, rec.Content, rec.Model, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// GetInsight returns the cached insight for a kind and input hash, or
// nil without error on a cache miss.
func (s *SQLiteStore) GetInsight(kind, inputHash string) (*core.InsightRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rec := &core.InsightRecord{}
	err := s.db.QueryRow(
		`SELECT id, kind, input_hash, content, model, created_at
		 FROM insights WHERE kind = ? AND input_hash = ?`, kind, inputHash,
	).Scan(&rec.ID, &rec.Kind, &rec.InputHash, &rec.Content, &rec.Model, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight: %w", err)
	}
	return rec, nil
}

// ListInsights returns the most recent insights up to the given limit.
func (s *SQLiteStore) ListInsights(limit int) ([]*core.InsightRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, kind, input_hash, content, model, created_at
		 FROM insights ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []*core.InsightRecord
	for rows.Next() {
		rec := &core.InsightRecord{}
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.InputHash,
			&rec.Content, &rec.Model, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
