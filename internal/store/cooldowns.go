package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rafaelGuerreiro/ikaria/internal/worldsim"
)

// CooldownRepository implements worldsim.CooldownRepository against
// PostgreSQL, 1:1 with a character.
type CooldownRepository struct {
	db *DB
}

// NewCooldownRepository builds a CooldownRepository backed by db.
func NewCooldownRepository(db *DB) *CooldownRepository {
	return &CooldownRepository{db: db}
}

// Get returns characterID's cooldown row, or nil if it has never moved.
func (r *CooldownRepository) Get(ctx context.Context, characterID uint64) (*worldsim.Cooldown, error) {
	var c worldsim.Cooldown
	err := r.db.pool.QueryRow(ctx,
		`SELECT character_id, can_move_at FROM movement_cooldowns WHERE character_id = $1`, characterID,
	).Scan(&c.CharacterID, &c.CanMoveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying cooldown for character %d: %w", characterID, err)
	}
	return &c, nil
}

// Upsert writes c, replacing any prior cooldown for the same character.
func (r *CooldownRepository) Upsert(ctx context.Context, c worldsim.Cooldown) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO movement_cooldowns (character_id, can_move_at)
		 VALUES ($1, $2)
		 ON CONFLICT (character_id) DO UPDATE SET can_move_at = $2`,
		c.CharacterID, c.CanMoveAt,
	)
	if err != nil {
		return fmt.Errorf("upserting cooldown for character %d: %w", c.CharacterID, err)
	}
	return nil
}

// Delete removes characterID's cooldown row (done on despawn).
func (r *CooldownRepository) Delete(ctx context.Context, characterID uint64) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM movement_cooldowns WHERE character_id = $1`, characterID)
	if err != nil {
		return fmt.Errorf("deleting cooldown for character %d: %w", characterID, err)
	}
	return nil
}
