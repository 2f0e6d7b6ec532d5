package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
)

// This file contains the PostgreSQL-backed store for service checks. Every
// statement the store issues is counted, and the counter backs the query
// total reported in debug output.

// storeQuerier abstracts the check store so handlers and the scheduler can be
// tested against a mock.
type storeQuerier interface {
	ListChecks(ctx context.Context) ([]Check, error)
	CountChecksByState(ctx context.Context) ([]StateCount, error)
	DeleteAllChecks(ctx context.Context) error
}

type checkStore struct {
	db      *sql.DB
	queries atomic.Int64
}

func newCheckStore(db *sql.DB) *checkStore {
	return &checkStore{db: db}
}

func (s *checkStore) QueryCount() int64 {
	return s.queries.Load()
}

func (s *checkStore) ListChecks(ctx context.Context) ([]Check, error) {
	s.queries.Add(1)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, state, latency_ms, checked_at FROM checks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing checks: %w", err)
	}
	defer rows.Close()

	var checks []Check
	for rows.Next() {
		var c Check
		if err := rows.Scan(&c.ID, &c.Name, &c.State, &c.LatencyMS, &c.CheckedAt); err != nil {
			return nil, fmt.Errorf("scanning check row: %w", err)
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating check rows: %w", err)
	}
	return checks, nil
}

func (s *checkStore) CountChecksByState(ctx context.Context) ([]StateCount, error) {
	s.queries.Add(1)
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, COUNT(*) FROM checks GROUP BY state ORDER BY state`)
	if err != nil {
		return nil, fmt.Errorf("counting checks by state: %w", err)
	}
	defer rows.Close()

	var counts []StateCount
	for rows.Next() {
		var sc StateCount
		if err := rows.Scan(&sc.State, &sc.Count); err != nil {
			return nil, fmt.Errorf("scanning state count row: %w", err)
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state count rows: %w", err)
	}
	return counts, nil
}

func (s *checkStore) DeleteAllChecks(ctx context.Context) error {
	s.queries.Add(1)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checks`); err != nil {
		return fmt.Errorf("deleting checks: %w", err)
	}
	return nil
}
