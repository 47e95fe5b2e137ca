package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rafaelGuerreiro/ikaria/internal/worldsim"
)

// OccupancyRepository implements worldsim.OccupancyRepository against
// PostgreSQL, keyed by MapID with character ids packed into a BIGINT[].
type OccupancyRepository struct {
	db *DB
}

// NewOccupancyRepository builds an OccupancyRepository backed by db.
func NewOccupancyRepository(db *DB) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

// Get returns the OccupiedTile for mapID, or nil if no character is there.
func (r *OccupancyRepository) Get(ctx context.Context, mapID uint64) (*worldsim.OccupiedTile, error) {
	var t worldsim.OccupiedTile
	var ids []int64
	err := r.db.pool.QueryRow(ctx,
		`SELECT map_id, sector_key, character_ids FROM occupied_tiles WHERE map_id = $1`, mapID,
	).Scan(&t.MapID, &t.SectorKey, &ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying occupied tile %d: %w", mapID, err)
	}
	t.CharacterIDs = make([]uint64, len(ids))
	for i, id := range ids {
		t.CharacterIDs[i] = uint64(id)
	}
	return &t, nil
}

// Upsert writes tile, replacing any prior row for the same MapID.
func (r *OccupancyRepository) Upsert(ctx context.Context, tile worldsim.OccupiedTile) error {
	ids := make([]int64, len(tile.CharacterIDs))
	for i, id := range tile.CharacterIDs {
		ids[i] = int64(id)
	}
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO occupied_tiles (map_id, sector_key, character_ids)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (map_id) DO UPDATE SET sector_key = $2, character_ids = $3`,
		tile.MapID, tile.SectorKey, ids,
	)
	if err != nil {
		return fmt.Errorf("upserting occupied tile %d: %w", tile.MapID, err)
	}
	return nil
}

// Delete removes the OccupiedTile row for mapID (spec §3 invariant 7: empty
// rows are deleted, never kept with an empty character_ids).
func (r *OccupancyRepository) Delete(ctx context.Context, mapID uint64) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM occupied_tiles WHERE map_id = $1`, mapID)
	if err != nil {
		return fmt.Errorf("deleting occupied tile %d: %w", mapID, err)
	}
	return nil
}
