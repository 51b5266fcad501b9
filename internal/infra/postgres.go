package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// PoolConfig sizes the connection pool for the FAQ corpus database. Values
// come from DB_MAX_CONNS / DB_MIN_CONNS; zero falls back to the defaults
// below.
type PoolConfig struct {
	MaxConns int
	MinConns int
}

const (
	defaultMaxConns = 10
	defaultMinConns = 2
)

// NewPostgresDB opens a pgxpool against the corpus database. Every
// connection registers the pgvector types so embedding columns scan
// natively. The pool is pinged once up front: a bad DSN fails at startup,
// not on the first search.
func NewPostgresDB(ctx context.Context, dsn string, pc PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if pc.MaxConns <= 0 {
		pc.MaxConns = defaultMaxConns
	}
	if pc.MinConns <= 0 {
		pc.MinConns = defaultMinConns
	}
	config.MaxConns = int32(pc.MaxConns)
	config.MinConns = int32(pc.MinConns)
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return pool, nil
}
