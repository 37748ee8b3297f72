// Package store persists finished extraction runs to SQLite. It is a
// consumer of the pipeline's output, not part of the extraction core: the
// pipeline hands over a finished Result and never reads anything back.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/revpull/pipeline"
	"github.com/hazyhaar/revpull/review"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	url          TEXT NOT NULL,
	status       TEXT NOT NULL,
	error_class  TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	iterations   INTEGER NOT NULL,
	record_count INTEGER NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	id            TEXT NOT NULL,
	author        TEXT NOT NULL DEFAULT '',
	rating        INTEGER NOT NULL DEFAULT 0,
	published_at  INTEGER,
	published_raw TEXT NOT NULL DEFAULT '',
	body          TEXT NOT NULL DEFAULT '',
	body_html     TEXT NOT NULL DEFAULT '',
	reply         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_reviews_run ON reviews(run_id);
`

// Store wraps the runs database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the runs database at path with the
// production pragmas applied.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveResult persists a finished run and its records in one transaction.
func (s *Store) SaveResult(ctx context.Context, res *pipeline.Result) error {
	return runTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, url, status, error_class, error,
				iterations, record_count, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, res.URL, string(res.Status), string(res.Class),
			res.Error, res.Iterations, len(res.Records),
			res.StartedAt.UnixMilli(), res.FinishedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("store: insert run: %w", err)
		}

		for i, rec := range res.Records {
			var published any
			if !rec.PublishedAt.IsZero() {
				published = rec.PublishedAt.UnixMilli()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO reviews (run_id, position, id, author, rating,
					published_at, published_raw, body, body_html, reply)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				res.RunID, i, rec.ID, rec.Author, rec.Rating,
				published, rec.PublishedRaw, rec.Body, rec.BodyHTML, rec.Reply)
			if err != nil {
				return fmt.Errorf("store: insert review %d: %w", i, err)
			}
		}
		return nil
	})
}

// RunSummary is one row of the runs listing.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	URL         string    `json:"url"`
	Status      string    `json:"status"`
	Class       string    `json:"error_class,omitempty"`
	Error       string    `json:"error,omitempty"`
	Iterations  int       `json:"iterations"`
	RecordCount int       `json:"record_count"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// ListRuns returns run summaries, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, status, error_class, error,
		       iterations, record_count, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished int64
		if err := rows.Scan(&r.RunID, &r.URL, &r.Status, &r.Class, &r.Error,
			&r.Iterations, &r.RecordCount, &started, &finished); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one run summary, or nil when the id is unknown.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, status, error_class, error,
		       iterations, record_count, started_at, finished_at
		FROM runs WHERE id = ?`, runID)

	var r RunSummary
	var started, finished int64
	err := row.Scan(&r.RunID, &r.URL, &r.Status, &r.Class, &r.Error,
		&r.Iterations, &r.RecordCount, &started, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	r.StartedAt = time.UnixMilli(started).UTC()
	r.FinishedAt = time.UnixMilli(finished).UTC()
	return &r, nil
}

// GetRecords returns a run's records in emit order.
func (s *Store) GetRecords(ctx context.Context, runID string) ([]review.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author, rating, published_at, published_raw,
		       body, body_html, reply
		FROM reviews WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: get records: %w", err)
	}
	defer rows.Close()

	var out []review.Record
	for rows.Next() {
		var rec review.Record
		var published sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.Author, &rec.Rating, &published,
			&rec.PublishedRaw, &rec.Body, &rec.BodyHTML, &rec.Reply); err != nil {
			return nil, err
		}
		if published.Valid {
			rec.PublishedAt = time.UnixMilli(published.Int64).UTC()
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
