// Package sqlite persists evaluation runs in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/autoeval"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Compile-time interface verification.
var _ autoeval.RunStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    revision TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS scenario_results (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    scenario_id INTEGER NOT NULL,
    data TEXT NOT NULL,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

// timeFormat is fixed width so that started_at sorts chronologically as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements autoeval.RunStore on top of SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its results, replacing any run with the same id.
// A run without an id is assigned a new UUID.
func (s *Store) SaveRun(ctx context.Context, run *autoeval.Run) (err error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM scenario_results WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("sqlite: clear results: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, revision) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET started_at = excluded.started_at, revision = excluded.revision`,
		run.ID, run.StartedAt.UTC().Format(timeFormat), run.Revision,
	); err != nil {
		return fmt.Errorf("sqlite: save run: %w", err)
	}

	for i, result := range run.Results {
		data, merr := json.Marshal(result)
		if merr != nil {
			err = fmt.Errorf("sqlite: encode scenario %d: %w", result.ScenarioID, merr)
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO scenario_results (run_id, position, scenario_id, data) VALUES (?, ?, ?, ?)`,
			run.ID, i, result.ScenarioID, string(data),
		); err != nil {
			return fmt.Errorf("sqlite: save scenario %d: %w", result.ScenarioID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// FindRun returns the run with the given id, or autoeval.ErrRunNotFound.
func (s *Store) FindRun(ctx context.Context, id string) (*autoeval.Run, error) {
	run := &autoeval.Run{ID: id}
	var startedAt string
	err := s.db.QueryRowContext(ctx, `SELECT started_at, revision FROM runs WHERE id = ?`, id).Scan(&startedAt, &run.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, autoeval.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find run: %w", err)
	}

	if run.StartedAt, err = time.Parse(timeFormat, startedAt); err != nil {
		return nil, fmt.Errorf("sqlite: parse started_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM scenario_results WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: find results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlite: scan result: %w", err)
		}
		var result autoeval.ScenarioResult
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			return nil, fmt.Errorf("sqlite: decode result: %w", err)
		}
		run.Results = append(run.Results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: find results: %w", err)
	}
	return run, nil
}

// LatestRunID returns the id of the most recently started run, or
// autoeval.ErrRunNotFound when the store is empty.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", autoeval.ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: latest run: %w", err)
	}
	return id, nil
}
