// Package postgres is the shared document store backend: every collection
// lives in one jsonb table on a pgx pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/config"
)

const connectTimeout = 10 * time.Second

// DB owns the connection pool of the document store.
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Querier runs statements on the pool or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// NewDB sizes the pool from cfg and pings the server once. Statements are
// traced at debug level.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pc.MaxConns = int32(cfg.MaxOpenConns)
	pc.MinConns = int32(cfg.MaxIdleConns)
	pc.MaxConnLifetime = cfg.ConnMaxLifetime
	pc.MaxConnIdleTime = cfg.ConnMaxIdleTime
	pc.ConnConfig.ConnectTimeout = connectTimeout

	logger = logger.With().Str("component", "postgres").Logger()
	if logger.GetLevel() <= zerolog.DebugLevel {
		pc.ConnConfig.Tracer = statementTracer{logger: logger}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int32("max_conns", pc.MaxConns).
		Msg("document database connected")
	return &DB{Pool: pool, logger: logger}, nil
}

func (db *DB) Close() error {
	db.Pool.Close()
	db.logger.Info().Msg("document database pool closed")
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Health fails when no connection can be acquired or the pool is exhausted
// with callers still waiting.
func (db *DB) Health(ctx context.Context) error {
	if err := db.Pool.Ping(ctx); err != nil {
		return err
	}
	st := db.Pool.Stat()
	if st.AcquiredConns() == st.MaxConns() && st.EmptyAcquireCount() > 0 {
		db.logger.Warn().
			Int32("acquired", st.AcquiredConns()).
			Int64("empty_acquires", st.EmptyAcquireCount()).
			Msg("connection pool saturated")
	}
	return nil
}

// WithTx commits when fn succeeds and rolls back otherwise.
func (db *DB) WithTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, db.Pool, opts, fn)
}

type statementStart struct{}

// statementTracer logs each statement with its duration.
type statementTracer struct {
	logger zerolog.Logger
}

func (t statementTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, statementStart{}, time.Now())
}

func (t statementTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(statementStart{}).(time.Time)
	if !ok {
		return
	}
	ev := t.logger.Debug()
	if data.Err != nil {
		ev = t.logger.Warn().Err(data.Err)
	}
	ev.Str("tag", data.CommandTag.String()).
		Dur("elapsed", time.Since(start)).
		Msg("statement")
}
