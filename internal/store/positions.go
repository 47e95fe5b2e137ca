package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
	"github.com/rafaelGuerreiro/ikaria/internal/worldsim"
)

// PositionRepository implements worldsim.PositionRepository against
// PostgreSQL's two disjoint online/offline tables.
type PositionRepository struct {
	db *DB
}

// NewPositionRepository builds a PositionRepository backed by db.
func NewPositionRepository(db *DB) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) get(ctx context.Context, table string, characterID uint64) (*worldsim.Position, error) {
	var p worldsim.Position
	var x, y int32
	var z int16
	var movement, direction int16
	err := r.db.pool.QueryRow(ctx,
		`SELECT character_id, x, y, z, movement, direction, arrives_at FROM `+table+` WHERE character_id = $1`,
		characterID,
	).Scan(&p.CharacterID, &x, &y, &z, &movement, &direction, &p.ArrivesAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s for character %d: %w", table, characterID, err)
	}
	p.Pos = geometry.Vec3{X: uint16(x), Y: uint16(y), Z: uint8(z)}
	p.Movement = geometry.MovementV1(movement)
	p.Direction = geometry.DirectionV1(direction)
	return &p, nil
}

func (r *PositionRepository) upsert(ctx context.Context, table string, p worldsim.Position) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO `+table+` (character_id, x, y, z, movement, direction, arrives_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (character_id) DO UPDATE SET
		   x = $2, y = $3, z = $4, movement = $5, direction = $6, arrives_at = $7`,
		p.CharacterID, int32(p.Pos.X), int32(p.Pos.Y), int16(p.Pos.Z), int16(p.Movement), int16(p.Direction), p.ArrivesAt,
	)
	if err != nil {
		return fmt.Errorf("upserting %s for character %d: %w", table, p.CharacterID, err)
	}
	return nil
}

func (r *PositionRepository) delete(ctx context.Context, table string, characterID uint64) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM `+table+` WHERE character_id = $1`, characterID)
	if err != nil {
		return fmt.Errorf("deleting %s for character %d: %w", table, characterID, err)
	}
	return nil
}

func (r *PositionRepository) GetOnline(ctx context.Context, characterID uint64) (*worldsim.Position, error) {
	return r.get(ctx, "character_positions_online", characterID)
}

func (r *PositionRepository) GetOffline(ctx context.Context, characterID uint64) (*worldsim.Position, error) {
	return r.get(ctx, "character_positions_offline", characterID)
}

func (r *PositionRepository) UpsertOnline(ctx context.Context, p worldsim.Position) error {
	return r.upsert(ctx, "character_positions_online", p)
}

func (r *PositionRepository) UpsertOffline(ctx context.Context, p worldsim.Position) error {
	return r.upsert(ctx, "character_positions_offline", p)
}

func (r *PositionRepository) DeleteOnline(ctx context.Context, characterID uint64) error {
	return r.delete(ctx, "character_positions_online", characterID)
}

func (r *PositionRepository) DeleteOffline(ctx context.Context, characterID uint64) error {
	return r.delete(ctx, "character_positions_offline", characterID)
}
