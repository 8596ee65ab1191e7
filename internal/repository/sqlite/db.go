// Package sqlite is the embedded document store backend. It runs on
// modernc.org/sqlite, so single-binary deployments need no cgo.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config tunes the connection. The pragmas are applied to every pooled
// connection.
type Config struct {
	Path            string
	JournalMode     string
	BusyTimeout     int // milliseconds
	CacheSize       int // negative means KiB, positive means pages
	SynchronousMode string
	ConnMaxLifetime time.Duration
}

// DefaultConfig uses WAL with NORMAL sync, a 5s busy timeout and a 2 MiB
// page cache.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		JournalMode:     "WAL",
		BusyTimeout:     5000,
		CacheSize:       -2000,
		SynchronousMode: "NORMAL",
		ConnMaxLifetime: time.Hour,
	}
}

func (c Config) dsn() string {
	q := url.Values{}
	for _, p := range []string{
		fmt.Sprintf("journal_mode(%s)", c.JournalMode),
		fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout),
		fmt.Sprintf("cache_size(%d)", c.CacheSize),
		fmt.Sprintf("synchronous(%s)", c.SynchronousMode),
	} {
		q.Add("_pragma", p)
	}
	return "file:" + c.Path + "?" + q.Encode()
}

// DB is the single-writer connection behind DocumentStore.
type DB struct {
	*sql.DB
	path   string
	logger zerolog.Logger
}

// NewDB creates the parent directory of the file if needed, opens it and
// pings it.
func NewDB(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	if cfg.Path != MemoryPath {
		if dir := filepath.Dir(cfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	// One writer at a time; every statement queues on the single connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Path, err)
	}

	logger = logger.With().Str("component", "sqlite").Str("path", cfg.Path).Logger()
	logger.Info().
		Str("journal_mode", cfg.JournalMode).
		Str("synchronous", cfg.SynchronousMode).
		Msg("document database opened")

	return &DB{DB: conn, path: cfg.Path, logger: logger}, nil
}

func (db *DB) Close() error {
	db.logger.Info().Msg("document database closed")
	return db.DB.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Health reports the database as unhealthy when a trivial query fails,
// which also catches a file removed underneath the process.
func (db *DB) Health(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("sqlite %s unhealthy: %w", db.path, err)
	}
	return nil
}

// WithTx commits when fn succeeds and rolls back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// isUniqueViolation matches a document id or unique field conflict.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
