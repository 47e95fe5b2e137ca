package worldsim

import (
	"context"
	"fmt"

	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
)

// occupy implements the OccupiedTile insert path (spec §4.5): if a row for
// pos's map-id exists and characterID is not already present, append it;
// otherwise insert a fresh single-id row.
func (s *Service) occupy(ctx context.Context, pos geometry.Vec3, characterID uint64) error {
	mapID := pos.MapID()
	tile, err := s.occupancy.Get(ctx, mapID)
	if err != nil {
		return fmt.Errorf("looking up occupied tile %d: %w", mapID, err)
	}
	if tile == nil {
		return s.occupancy.Upsert(ctx, OccupiedTile{
			MapID:        mapID,
			SectorKey:    pos.SectorKey(s.sectorSize),
			CharacterIDs: []uint64{characterID},
		})
	}
	for _, id := range tile.CharacterIDs {
		if id == characterID {
			return nil
		}
	}
	tile.CharacterIDs = append(tile.CharacterIDs, characterID)
	return s.occupancy.Upsert(ctx, *tile)
}

// vacate implements the OccupiedTile remove path: retain-filters
// characterID out of the row; deletes the row if it becomes empty.
func (s *Service) vacate(ctx context.Context, pos geometry.Vec3, characterID uint64) error {
	mapID := pos.MapID()
	tile, err := s.occupancy.Get(ctx, mapID)
	if err != nil {
		return fmt.Errorf("looking up occupied tile %d: %w", mapID, err)
	}
	if tile == nil {
		return nil
	}

	remaining := make([]uint64, 0, len(tile.CharacterIDs))
	for _, id := range tile.CharacterIDs {
		if id != characterID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		return s.occupancy.Delete(ctx, mapID)
	}
	tile.CharacterIDs = remaining
	return s.occupancy.Upsert(ctx, *tile)
}

// isOccupied reports whether any character currently stands on pos's tile.
func (s *Service) isOccupied(ctx context.Context, pos geometry.Vec3) (bool, error) {
	tile, err := s.occupancy.Get(ctx, pos.MapID())
	if err != nil {
		return false, fmt.Errorf("looking up occupied tile: %w", err)
	}
	return tile != nil && len(tile.CharacterIDs) > 0, nil
}
