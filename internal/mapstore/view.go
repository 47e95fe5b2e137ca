package mapstore

import (
	"context"

	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
)

// ChunksAround implements the "world map around me" view (spec §4.7): every
// MapChunk overlapping the square [x-radius,y-radius]..[x+radius,y+radius]
// at z in [center.Z-1, center.Z+1], deduped by MapID.
func (s *Store) ChunksAround(ctx context.Context, center geometry.Vec3, radius uint16) ([]MapChunk, error) {
	view := geometry.NewRect(
		saturateSub16(center.X, radius), saturateSub16(center.Y, radius),
		saturateAdd16(center.X, radius), saturateAdd16(center.Y, radius),
		center.Z,
	)

	seen := make(map[uint64]bool)
	var out []MapChunk
	for _, z := range zNeighborhood(center.Z) {
		for _, sectorKey := range sectorsCovering(view, z, s.sectorSize) {
			chunks, err := s.repo.FindBySector(ctx, sectorKey)
			if err != nil {
				return nil, err
			}
			for _, c := range chunks {
				if c.Rect.Z != z || seen[c.MapID] {
					continue
				}
				if !c.Rect.Overlaps(geometry.Rect{X1: view.X1, Y1: view.Y1, X2: view.X2, Y2: view.Y2, Z: z}) {
					continue
				}
				seen[c.MapID] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// zNeighborhood returns [z-1, z, z+1], clamped so it never wraps the u8
// range (the ground level is conventionally far from either boundary).
func zNeighborhood(z uint8) []uint8 {
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

// sectorsCovering enumerates every sector key the view rect touches at z.
func sectorsCovering(view geometry.Rect, z uint8, sectorSize uint16) []uint64 {
	var keys []uint64
	sx1, sx2 := view.X1/sectorSize, view.X2/sectorSize
	sy1, sy2 := view.Y1/sectorSize, view.Y2/sectorSize
	for sx := sx1; ; sx++ {
		for sy := sy1; ; sy++ {
			keys = append(keys, uint64(z)<<32|uint64(sx)<<16|uint64(sy))
			if sy == sy2 {
				break
			}
		}
		if sx == sx2 {
			break
		}
	}
	return keys
}

func saturateSub16(v, d uint16) uint16 {
	if v < d {
		return 0
	}
	return v - d
}

func saturateAdd16(v, d uint16) uint16 {
	if uint32(v)+uint32(d) > 65535 {
		return 65535
	}
	return v + d
}
