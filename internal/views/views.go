// Package views implements the read-side projections of spec §4.7: pure,
// side-effect-free queries scoped to a sender identity. Every view re-reads
// the services' current state on each call; nothing here is cached.
package views

import (
	"context"

	"github.com/rafaelGuerreiro/ikaria/internal/characters"
	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
	"github.com/rafaelGuerreiro/ikaria/internal/ikerr"
	"github.com/rafaelGuerreiro/ikaria/internal/mapstore"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
	"github.com/rafaelGuerreiro/ikaria/internal/worldsim"
)

// nearbyPreallocate is the "pre-size to 12" hot-path hint from spec §4.7.
const nearbyPreallocate = 12

// Service answers every view query over the character/world state.
type Service struct {
	chars      *characters.Service
	world      *worldsim.Service
	mapRadius  uint16
}

// New builds a views.Service. mapRadius is MAP_VIEW_RADIUS (spec §6).
func New(chars *characters.Service, world *worldsim.Service, mapRadius uint16) *Service {
	return &Service{chars: chars, world: world, mapRadius: mapRadius}
}

// CharacterMe is vw_character_me_v1.
func (s *Service) CharacterMe(ctx context.Context, sender validate.Identity) (*characters.Character, *ikerr.Error) {
	return s.chars.GetCurrent(ctx, sender)
}

// CharacterMeStats is vw_character_me_stats_v1.
func (s *Service) CharacterMeStats(ctx context.Context, sender validate.Identity) (*characters.Stats, *ikerr.Error) {
	return s.chars.GetCurrentStats(ctx, sender)
}

// CharacterAllMine is vw_character_all_mine_v1.
func (s *Service) CharacterAllMine(ctx context.Context, sender validate.Identity) ([]*characters.Character, *ikerr.Error) {
	return s.chars.AllMine(ctx, sender)
}

// CharacterAllMineStats is vw_character_all_mine_stats_v1.
func (s *Service) CharacterAllMineStats(ctx context.Context, sender validate.Identity) ([]*characters.Stats, *ikerr.Error) {
	return s.chars.AllMineStats(ctx, sender)
}

// WorldMyCharacterPosition is vw_world_my_character_position_v1.
func (s *Service) WorldMyCharacterPosition(ctx context.Context, sender validate.Identity) (*worldsim.Position, *ikerr.Error) {
	return s.myPosition(ctx, sender)
}

// myPosition resolves sender's currently selected character to its online
// Position, or a typed error if either step is missing.
func (s *Service) myPosition(ctx context.Context, sender validate.Identity) (*worldsim.Position, *ikerr.Error) {
	c, verr := s.chars.GetCurrent(ctx, sender)
	if verr != nil {
		return nil, verr
	}
	pos, err := s.world.GetOnlinePosition(ctx, c.CharacterID)
	if err != nil {
		return nil, ikerr.Internal("looking up online position", err)
	}
	if pos == nil {
		return nil, ikerr.NotFound(ikerr.ReasonCharacterPositionNotFound, "character has no online position")
	}
	return pos, nil
}

// WorldMap is vw_world_map_v1: every MapChunk overlapping the expanded view
// rect around sender's current position, for z in [z-1, z+1].
func (s *Service) WorldMap(ctx context.Context, sender validate.Identity) ([]mapstore.MapChunk, *ikerr.Error) {
	pos, verr := s.myPosition(ctx, sender)
	if verr != nil {
		return nil, verr
	}
	chunks, err := s.world.MapStore().ChunksAround(ctx, pos.Pos, s.mapRadius)
	if err != nil {
		return nil, ikerr.Internal("querying map chunks", err)
	}
	return chunks, nil
}

// nearbyOccupants walks every tile in the view cube around sender's
// position and collects the distinct occupant character ids (spec §4.7:
// "iterate every (x,y,z) in the view cube; look up OccupiedTile by
// map_id"). Sender's own character is a normal occupant of its own tile
// like any other and is included.
func (s *Service) nearbyOccupants(ctx context.Context, sender validate.Identity) ([]uint64, *ikerr.Error) {
	pos, verr := s.myPosition(ctx, sender)
	if verr != nil {
		return nil, verr
	}

	ids := make([]uint64, 0, nearbyPreallocate)
	seen := make(map[uint64]bool, nearbyPreallocate)

	for _, z := range zRange(pos.Pos.Z) {
		for x := saturateSub(pos.Pos.X, s.mapRadius); ; x++ {
			for y := saturateSub(pos.Pos.Y, s.mapRadius); ; y++ {
				tile := geometry.Vec3{X: x, Y: y, Z: z}
				occupants, err := s.world.OccupantsAt(ctx, tile.MapID())
				if err != nil {
					return nil, ikerr.Internal("looking up tile occupants", err)
				}
				for _, id := range occupants {
					if seen[id] {
						continue
					}
					seen[id] = true
					ids = append(ids, id)
				}
				if y == saturateAdd(pos.Pos.Y, s.mapRadius) {
					break
				}
			}
			if x == saturateAdd(pos.Pos.X, s.mapRadius) {
				break
			}
		}
	}
	return ids, nil
}

// NearbyCharacters is vw_nearby_characters_v1.
func (s *Service) NearbyCharacters(ctx context.Context, sender validate.Identity) ([]*characters.Character, *ikerr.Error) {
	ids, verr := s.nearbyOccupants(ctx, sender)
	if verr != nil {
		return nil, verr
	}
	out := make([]*characters.Character, 0, len(ids))
	for _, id := range ids {
		c, verr := s.chars.GetOffline(ctx, id)
		if verr != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// NearbyCharacterPositions is vw_nearby_character_positions_v1.
func (s *Service) NearbyCharacterPositions(ctx context.Context, sender validate.Identity) ([]*worldsim.Position, *ikerr.Error) {
	ids, verr := s.nearbyOccupants(ctx, sender)
	if verr != nil {
		return nil, verr
	}
	out := make([]*worldsim.Position, 0, len(ids))
	for _, id := range ids {
		pos, err := s.world.GetOnlinePosition(ctx, id)
		if err != nil || pos == nil {
			continue
		}
		out = append(out, pos)
	}
	return out, nil
}

func zRange(z uint8) []uint8 {
	lo, hi := z, z
	if z > 0 {
		lo = z - 1
	}
	if z < 255 {
		hi = z + 1
	}
	out := make([]uint8, 0, 3)
	for v := lo; ; v++ {
		out = append(out, v)
		if v == hi {
			break
		}
	}
	return out
}

func saturateSub(v, d uint16) uint16 {
	if v < d {
		return 0
	}
	return v - d
}

func saturateAdd(v, d uint16) uint16 {
	if uint32(v)+uint32(d) > 65535 {
		return 65535
	}
	return v + d
}
