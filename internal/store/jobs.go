package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"frontoffice-engine/internal/domain"
)

const (
	// inChunk keeps IN-clauses under the store's practical cardinality limit.
	inChunk = 500
	// insertChunk bounds one multi-row insert statement.
	insertChunk = 100
)

var jobColumns = []string{
	"source_id", "title", "firm", "location", "description", "apply_url",
	"source", "function", "level", "is_front_office", "is_approved",
	"is_featured", "posted_at",
}

// Migrate creates the jobs table. Idempotent; the DDL is kept to the
// subset both dialects accept.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.Pool.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS jobs (
  source_id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  firm TEXT NOT NULL,
  location TEXT,
  description TEXT NOT NULL DEFAULT '',
  apply_url TEXT NOT NULL,
  source TEXT NOT NULL,
  function TEXT,
  level TEXT,
  is_front_office BOOLEAN NOT NULL DEFAULT FALSE,
  is_approved BOOLEAN NOT NULL DEFAULT FALSE,
  is_featured BOOLEAN NOT NULL DEFAULT FALSE,
  posted_at TEXT NOT NULL
);`); err != nil {
		return fmt.Errorf("migrate jobs: %w", err)
	}

	if _, err := d.Pool.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_jobs_posted_at ON jobs(posted_at);`); err != nil {
		return fmt.Errorf("migrate jobs index: %w", err)
	}
	return nil
}

// ExistingIDs returns the subset of ids already present, querying in
// chunks so a large batch never exceeds the IN-clause limit.
func (d *DB) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	known := make(map[string]bool)
	for start := 0; start < len(ids); start += inChunk {
		end := start + inChunk
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		query := fmt.Sprintf(
			`SELECT source_id FROM jobs WHERE source_id IN (%s);`,
			d.placeholders(1, len(chunk)),
		)
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := d.Pool.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("existing ids: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			known[id] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return known, nil
}

// InsertBatch writes postings in bounded multi-row statements, ignoring
// source_id conflicts so a race with an overlapping run is a no-op
// rather than an error. A failed chunk is reported through failed and
// does not abort later chunks. Returns rows actually inserted.
func (d *DB) InsertBatch(ctx context.Context, postings []domain.Posting) (inserted int, failed int, err error) {
	var lastErr error
	for start := 0; start < len(postings); start += insertChunk {
		end := start + insertChunk
		if end > len(postings) {
			end = len(postings)
		}
		chunk := postings[start:end]

		n, cerr := d.insertRows(ctx, chunk)
		if cerr != nil {
			failed += len(chunk)
			lastErr = cerr
			continue
		}
		inserted += n
	}
	return inserted, failed, lastErr
}

func (d *DB) insertRows(ctx context.Context, chunk []domain.Posting) (int, error) {
	cols := len(jobColumns)
	values := make([]string, 0, len(chunk))
	args := make([]any, 0, len(chunk)*cols)
	for i, p := range chunk {
		values = append(values, "("+d.placeholders(i*cols+1, cols)+")")
		args = append(args,
			p.SourceID,
			p.Title,
			p.Firm,
			nullable(p.Location),
			p.Description,
			p.ApplyURL,
			p.Source,
			nullable(string(p.Function)),
			nullable(string(p.Level)),
			p.FrontOffice,
			p.Approved,
			p.Featured,
			timeText(p.PostedAt),
		)
	}

	query := fmt.Sprintf(
		`INSERT %s INTO jobs (%s) VALUES %s%s;`,
		orIgnore(d.dialect),
		strings.Join(jobColumns, ", "),
		strings.Join(values, ", "),
		onConflict(d.dialect),
	)

	res, err := d.Pool.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeleteExpired removes rows at or past the retention boundary unless
// they are featured. Returns the number of rows removed.
func (d *DB) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	query := fmt.Sprintf(
		`DELETE FROM jobs WHERE posted_at <= %s AND is_featured = FALSE;`,
		d.placeholders(1, 1),
	)
	res, err := d.Pool.ExecContext(ctx, query, timeText(olderThan))
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return res.RowsAffected()
}

// CountJobs reports the table size, used for the end-of-run summary.
func (d *DB) CountJobs(ctx context.Context) (int64, error) {
	var n int64
	err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&n)
	return n, err
}

func orIgnore(dialect string) string {
	if dialect == "sqlite" {
		return "OR IGNORE"
	}
	return ""
}

func onConflict(dialect string) string {
	if dialect == "pgx" {
		return " ON CONFLICT (source_id) DO NOTHING"
	}
	return ""
}

func nullable(s string) any {
	if s == "" {
		return sql.NullString{}
	}
	return s
}

// timeText renders timestamps as RFC3339 UTC text so range comparisons
// are lexicographic in both dialects.
func timeText(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}
