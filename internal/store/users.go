package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/validate"
)

// UserRepository implements users.Repository against PostgreSQL.
type UserRepository struct {
	db *DB
}

// NewUserRepository builds a UserRepository backed by db.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts a new User with CreatedAt=now or, if one already exists
// for identity, touches LastActiveAt.
func (r *UserRepository) Upsert(ctx context.Context, identity validate.Identity, now time.Time) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO users (identity, created_at, last_active_at)
		 VALUES ($1, $2, $2)
		 ON CONFLICT (identity) DO UPDATE SET last_active_at = $2`,
		identity[:], now,
	)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

// Touch updates LastActiveAt for an existing User.
func (r *UserRepository) Touch(ctx context.Context, identity validate.Identity, now time.Time) error {
	_, err := r.db.pool.Exec(ctx,
		`UPDATE users SET last_active_at = $1 WHERE identity = $2`,
		now, identity[:],
	)
	if err != nil {
		return fmt.Errorf("touching user: %w", err)
	}
	return nil
}
