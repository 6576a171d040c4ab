package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// DB wraps a pgx connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a DB handle.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{pool: pool}, nil
}

// Connect is New with up to retries extra attempts, backing off
// exponentially from base. Used at startup when the database container may
// still be coming up.
func Connect(ctx context.Context, dsn string, retries int, base time.Duration) (*DB, error) {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(max(retries, 0)), retry.NewExponential(base))

	var (
		database *DB
		attempt  int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		d, err := New(ctx, dsn)
		if err != nil {
			slog.Warn("database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		database = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("after %d attempts: %w", attempt, err)
	}
	return database, nil
}

// Close closes the database connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

// Pool returns the underlying pgx pool.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}
