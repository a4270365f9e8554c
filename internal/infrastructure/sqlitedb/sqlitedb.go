// Package sqlitedb opens the shell's origin-scoped SQLite database (media
// blobs and settings) with the pragmas every store relies on, and classifies
// driver errors into quota and contention failures.
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PageSize is SQLite's default page size, used to turn byte quotas into pages
const PageSize = 4096

type options struct {
	busyTimeout time.Duration
	synchronous string
	maxPages    int64
	schemas     []string
}

// Option customises Open
type Option func(*options)

// WithBusyTimeout sets PRAGMA busy_timeout. Default 5s.
func WithBusyTimeout(d time.Duration) Option { return func(o *options) { o.busyTimeout = d } }

// WithSynchronous sets PRAGMA synchronous. Default NORMAL.
func WithSynchronous(mode string) Option { return func(o *options) { o.synchronous = mode } }

// WithMaxPages caps the database size (PRAGMA max_page_count). Writes past the
// cap fail with SQLITE_FULL, which stores report as a quota failure.
func WithMaxPages(n int64) Option { return func(o *options) { o.maxPages = n } }

// WithMaxBytes caps the database size in bytes, rounded down to whole pages
func WithMaxBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPages = max(n/PageSize, 1)
		}
	}
}

// WithSchema queues DDL to run after the pragmas
func WithSchema(ddl string) Option { return func(o *options) { o.schemas = append(o.schemas, ddl) } }

// Open opens (creating if needed) the database at path
func Open(path string, opts ...Option) (*sql.DB, error) {
	cfg := options{busyTimeout: 5 * time.Second, synchronous: "NORMAL"}
	for _, o := range opts {
		o(&cfg)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlitedb: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: open: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	for _, ddl := range cfg.schemas {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitedb: schema: %w", err)
		}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitedb: ping: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory database closed on test cleanup
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("sqlitedb.OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// dsn puts the pragmas in the connection string so every pooled connection
// gets them, not only the first
func dsn(path string, cfg options) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.busyTimeout.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	q.Add("_pragma", fmt.Sprintf("synchronous(%s)", cfg.synchronous))
	if cfg.maxPages > 0 {
		q.Add("_pragma", fmt.Sprintf("max_page_count(%d)", cfg.maxPages))
	}
	return "file:" + path + "?" + q.Encode()
}

// RunTx runs fn inside a transaction, rolling back on error
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitedb: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitedb: commit: %w", err)
	}
	return nil
}

func code(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() & 0xff
	}
	return 0
}

// IsFull reports a quota failure (disk or max_page_count exhausted)
func IsFull(err error) bool {
	return code(err) == sqlite3.SQLITE_FULL
}

// IsBusy reports that another connection holds the database
func IsBusy(err error) bool {
	c := code(err)
	return c == sqlite3.SQLITE_BUSY || c == sqlite3.SQLITE_LOCKED
}
