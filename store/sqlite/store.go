package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver

	"github.com/xraph/runbook/checkpoint"
	"github.com/xraph/runbook/lease"
	"github.com/xraph/runbook/ledger"
)

// Compile-time interface checks.
var (
	_ ledger.Store     = (*Store)(nil)
	_ checkpoint.Store = (*Store)(nil)
	_ lease.Store      = (*Store)(nil)
)

// Store is a SQLite implementation of store.Store.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New opens (or creates) the SQLite database at path. WAL mode keeps
// readers unblocked during ledger writes; the busy timeout rides out
// writer contention instead of surfacing SQLITE_BUSY.
func New(path string, opts ...Option) (*Store, error) {
	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_fk=1"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("runbook/sqlite: open %s: %w", path, err)
	}
	// SQLite allows one writer at a time; extra connections just queue.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromDB wraps an existing *sql.DB. The caller owns the db lifecycle;
// Close becomes a no-op.
func NewFromDB(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
