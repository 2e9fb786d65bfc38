package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB wraps the jobs store. The hosted table lives in Postgres; a local
// sqlite file (or :memory:) serves development and tests.
type DB struct {
	Pool    *sql.DB
	dialect string // "pgx" or "sqlite"
}

// Open connects using the DATABASE_URL convention: postgres:// URLs go
// through pgx, anything else is treated as a sqlite path.
func Open(databaseURL string) (*DB, error) {
	var (
		pool *sql.DB
		err  error
		d    string
	)
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		d = "pgx"
		pool, err = sql.Open("pgx", databaseURL)
	default:
		d = "sqlite"
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
		pool, err = sql.Open("sqlite", dsn)
		if err == nil {
			pool.SetMaxOpenConns(1) // sqlite wants a single writer
		}
	}
	if err != nil {
		return nil, err
	}
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("store unreachable: %w", err)
	}

	return &DB{Pool: pool, dialect: d}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

// placeholders renders n bind markers starting at position start (1-based),
// in the dialect's syntax.
func (d *DB) placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if d.dialect == "pgx" {
			fmt.Fprintf(&b, "$%d", start+i)
		} else {
			b.WriteString("?")
		}
	}
	return b.String()
}
