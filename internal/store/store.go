// Package store implements every repository interface declared by
// characters/worldsim/mapstore/users/eventbus against PostgreSQL, one file
// per aggregate, grounded on the teacher's internal/db one-repo-per-table
// split.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool shared by every per-aggregate repository.
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

// Close closes the underlying connection pool.
func (d *DB) Close() { d.pool.Close() }

// Pool returns the underlying pgx pool, for statements outside the
// repositories (the store tests truncate tables through it). RunMigrations
// does not use it; it opens its own connection from the DSN.
func (d *DB) Pool() *pgxpool.Pool { return d.pool }
