package worldsim

import (
	"context"

	"github.com/rafaelGuerreiro/ikaria/internal/mapstore"
)

// GetOnlinePosition returns characterID's online Position, or nil if the
// character is not currently online. Used by the views package; it never
// fails with NotFound because absence is a legitimate view result, not an
// error (the caller decides how to present "offline").
func (s *Service) GetOnlinePosition(ctx context.Context, characterID uint64) (*Position, error) {
	return s.positions.GetOnline(ctx, characterID)
}

// OccupantsAt returns the character ids standing on mapID's tile, or nil if
// none. Used by the "nearby characters" view to resolve the occupancy cube.
func (s *Service) OccupantsAt(ctx context.Context, mapID uint64) ([]uint64, error) {
	tile, err := s.occupancy.Get(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if tile == nil {
		return nil, nil
	}
	return tile.CharacterIDs, nil
}

// MapStore exposes the underlying map store for read-only view queries
// (world map projection) that don't belong on the mutation-facing Service.
func (s *Service) MapStore() *mapstore.Store { return s.mapStore }
