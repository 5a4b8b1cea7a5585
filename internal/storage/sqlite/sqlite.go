// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

const (
	defaultMaxRetries  = 5
	defaultBusyTimeout = 5 * time.Second
)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	maxRetries  int
	busyTimeout time.Duration
	onRetry     func(attempt int, err error)
	now         func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithMaxRetries bounds how many times a conflicting transaction is retried.
func WithMaxRetries(n int) Option {
	return func(s *SQLiteStore) { s.maxRetries = n }
}

// WithBusyTimeout sets how long a statement waits on a locked database before
// reporting SQLITE_BUSY.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *SQLiteStore) { s.busyTimeout = d }
}

// WithRetryHook registers a callback invoked before each retry.
func WithRetryHook(fn func(attempt int, err error)) Option {
	return func(s *SQLiteStore) { s.onRetry = fn }
}

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		maxRetries:  defaultMaxRetries,
		busyTimeout: defaultBusyTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	// Write transactions take the write lock up front (BEGIN IMMEDIATE), which
	// serializes read-modify-write of balance rows across connections.
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_txlock=immediate",
		dbPath, s.busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = db
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InTx runs fn in a write transaction, retrying on lock conflicts with
// exponential backoff. When the retry budget is exhausted the conflict is
// reported as storage.ErrTransient.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isConflict(err) {
			return backoff.Permanent(err)
		}
		slog.Warn("Transaction conflict", "attempt", attempt, "error", err)
		if s.onRetry != nil && attempt <= s.maxRetries {
			s.onRetry(attempt, err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 0 // bounded by attempts instead

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxRetries)), ctx))
	if err != nil && isConflict(err) {
		return fmt.Errorf("%w: gave up after %d attempts: %v", storage.ErrTransient, attempt, err)
	}
	return err
}

func (s *SQLiteStore) runTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx, now: s.now}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isConflict reports whether err is a lock conflict worth retrying.
func isConflict(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txStore implements storage.Tx on top of an open transaction.
type txStore struct {
	q   querier
	now func() time.Time
}

var _ storage.Tx = (*txStore)(nil)
