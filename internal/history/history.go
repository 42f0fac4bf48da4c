// Package history records export and split runs in a SQLite journal so the
// CLI can answer "what did I write, from what, and did it work" after the
// fact. The pipelines themselves never touch it; the CLI records runs as
// they finish.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Kind classifies a recorded run.
const (
	KindExport = "export"
	KindSplit  = "split"
)

// Run is one recorded export or split.
type Run struct {
	ID        int64
	Kind      string // KindExport or KindSplit
	Input     string
	Output    string // output file (export) or directory (split)
	Format    string // chapter format or encoding profile name
	Chapters  int
	Failed    int // chapters that failed (split only)
	Succeeded bool
	Detail    string // failure detail when not succeeded
	CreatedAt time.Time
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    input TEXT NOT NULL,
    output TEXT NOT NULL,
    format TEXT NOT NULL,
    chapters INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    succeeded INTEGER NOT NULL DEFAULT 0,
    detail TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a finished run and returns it with its assigned id.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (kind, input, output, format, chapters, failed, succeeded, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Kind,
		run.Input,
		run.Output,
		run.Format,
		run.Chapters,
		run.Failed,
		boolInt(run.Succeeded),
		run.Detail,
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	run.ID, err = res.LastInsertId()
	if err != nil {
		return Run{}, fmt.Errorf("last insert id: %w", err)
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, kind, input, output, format, chapters, failed, succeeded, detail, created_at
         FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var succeeded int
		var createdAt string
		if err := rows.Scan(&run.ID, &run.Kind, &run.Input, &run.Output, &run.Format,
			&run.Chapters, &run.Failed, &succeeded, &run.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Succeeded = succeeded != 0
		if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			run.CreatedAt = parsed
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
