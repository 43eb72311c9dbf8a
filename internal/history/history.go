// Package history records training runs and their per-step losses in a
// SQLite file, so finished runs can be compared after the fact.
package history

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed run-history recorder.
type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{path: path, db: db}, nil
}

// StartRun registers a run before its first step.
func (s *Store) StartRun(ctx context.Context, runID, note string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, note)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			note = excluded.note
	`, runID, time.Now().UTC().Format(time.RFC3339), note)
	return err
}

// RecordStep stores the losses of one training step.
func (s *Store) RecordStep(ctx context.Context, runID string, step int, dLoss, dAcc, gLoss float64) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO steps (run_id, step, d_loss, d_acc, g_loss)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, step) DO UPDATE SET
			d_loss = excluded.d_loss,
			d_acc = excluded.d_acc,
			g_loss = excluded.g_loss
	`, runID, step, dLoss, dAcc, gLoss)
	return err
}

// StepRecord is one row of a run's loss history.
type StepRecord struct {
	Step  int
	DLoss float64
	DAcc  float64
	GLoss float64
}

// Steps returns a run's recorded steps in order.
func (s *Store) Steps(ctx context.Context, runID string) ([]StepRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT step, d_loss, d_acc, g_loss
		FROM steps
		WHERE run_id = ?
		ORDER BY step
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var rec StepRecord
		if err := rows.Scan(&rec.Step, &rec.DLoss, &rec.DAcc, &rec.GLoss); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, errors.New("history: store is closed")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			note TEXT
		);
		CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			d_loss REAL NOT NULL,
			d_acc REAL NOT NULL,
			g_loss REAL NOT NULL,
			PRIMARY KEY (run_id, step)
		);
	`)
	return err
}
