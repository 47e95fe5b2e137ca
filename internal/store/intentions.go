package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
	"github.com/rafaelGuerreiro/ikaria/internal/worldsim"
)

// IntentionRepository implements worldsim.IntentionRepository against
// PostgreSQL: a single-slot queued move per character.
type IntentionRepository struct {
	db *DB
}

// NewIntentionRepository builds an IntentionRepository backed by db.
func NewIntentionRepository(db *DB) *IntentionRepository {
	return &IntentionRepository{db: db}
}

// Upsert replaces characterID's queued intention, per spec §5's
// single-slot rule ("a second intention replaces the first").
func (r *IntentionRepository) Upsert(ctx context.Context, i worldsim.Intention) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO oneshot_movement_intentions (character_id, movement, scheduled_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (character_id) DO UPDATE SET movement = $2, scheduled_at = $3`,
		i.CharacterID, int16(i.Movement), i.ScheduledAt,
	)
	if err != nil {
		return fmt.Errorf("upserting movement intention for character %d: %w", i.CharacterID, err)
	}
	return nil
}

// Get returns characterID's queued intention, or nil if none is pending.
func (r *IntentionRepository) Get(ctx context.Context, characterID uint64) (*worldsim.Intention, error) {
	var i worldsim.Intention
	var movement int16
	err := r.db.pool.QueryRow(ctx,
		`SELECT character_id, movement, scheduled_at FROM oneshot_movement_intentions WHERE character_id = $1`,
		characterID,
	).Scan(&i.CharacterID, &movement, &i.ScheduledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying movement intention for character %d: %w", characterID, err)
	}
	i.Movement = geometry.MovementV1(movement)
	return &i, nil
}

// Delete clears characterID's queued intention (fired or despawned).
func (r *IntentionRepository) Delete(ctx context.Context, characterID uint64) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM oneshot_movement_intentions WHERE character_id = $1`, characterID)
	if err != nil {
		return fmt.Errorf("deleting movement intention for character %d: %w", characterID, err)
	}
	return nil
}

// DueIntention is one queued movement intention ready for re-dispatch.
type DueIntention struct {
	CharacterID uint64
	Movement    geometry.MovementV1
	ScheduledAt time.Time
}

// PollDue returns every queued intention whose scheduled_at has elapsed as
// of now, for the external scheduler loop described in spec §5.
func (r *IntentionRepository) PollDue(ctx context.Context, now time.Time, limit int) ([]DueIntention, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT character_id, movement, scheduled_at FROM oneshot_movement_intentions
		 WHERE scheduled_at <= $1 ORDER BY scheduled_at ASC LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("polling due movement intentions: %w", err)
	}
	defer rows.Close()

	out := make([]DueIntention, 0, limit)
	for rows.Next() {
		var d DueIntention
		var movement int16
		if err := rows.Scan(&d.CharacterID, &movement, &d.ScheduledAt); err != nil {
			return nil, fmt.Errorf("scanning movement intention row: %w", err)
		}
		d.Movement = geometry.MovementV1(movement)
		out = append(out, d)
	}
	return out, rows.Err()
}
