package mapstore

import "github.com/rafaelGuerreiro/ikaria/internal/geometry"

// seedRects returns the Grass square and its surrounding Water frame (spec
// §4.2): a 1024,1024-1280,1280 Grass square with a 16-wide Water margin.
func seedRects(z uint8) []struct {
	rect geometry.Rect
	tile Tile
} {
	const (
		grassMin  = 1024
		grassMax  = 1280
		margin    = 16
	)
	outerMin := uint16(grassMin - margin)
	outerMax := uint16(grassMax + margin)

	return []struct {
		rect geometry.Rect
		tile Tile
	}{
		{geometry.NewRect(grassMin, grassMin, grassMax, grassMax, z), TileGrass},
		{geometry.NewRect(outerMin, outerMin, outerMax, grassMin-1, z), TileWater},   // top margin
		{geometry.NewRect(outerMin, grassMax+1, outerMax, outerMax, z), TileWater},   // bottom margin
		{geometry.NewRect(outerMin, grassMin, grassMin-1, grassMax, z), TileWater},   // left margin
		{geometry.NewRect(grassMax+1, grassMin, outerMax, grassMax, z), TileWater},   // right margin
	}
}

// splitRect splits rect into chunks that never cross a sectorSize boundary,
// clamping each chunk to sector_end = ((cur/sectorSize)+1)*sectorSize-1 and
// to rect itself, per spec §4.2.
func splitRect(rect geometry.Rect, tile Tile, sectorSize uint16) []MapChunk {
	var chunks []MapChunk

	y := uint32(rect.Y1)
	maxY := uint32(rect.Y2)
	for y <= maxY {
		sectorYEnd := (y/uint32(sectorSize)+1)*uint32(sectorSize) - 1
		yEnd := min(sectorYEnd, maxY)

		x := uint32(rect.X1)
		maxX := uint32(rect.X2)
		for x <= maxX {
			sectorXEnd := (x/uint32(sectorSize)+1)*uint32(sectorSize) - 1
			xEnd := min(sectorXEnd, maxX)

			r := geometry.NewRect(uint16(x), uint16(y), uint16(xEnd), uint16(yEnd), rect.Z)
			origin := geometry.Vec3{X: r.X1, Y: r.Y1, Z: r.Z}
			chunks = append(chunks, MapChunk{
				MapID:     origin.MapID(),
				SectorKey: origin.SectorKey(sectorSize),
				Rect:      r,
				Tile:      tile,
			})

			x = xEnd + 1
		}
		y = yEnd + 1
	}

	return chunks
}

// seedChunks builds the full chunk set for the initial map at ground level,
// split on sector boundaries.
func seedChunks(groundLevel uint8, sectorSize uint16) []MapChunk {
	var chunks []MapChunk
	for _, sr := range seedRects(groundLevel) {
		chunks = append(chunks, splitRect(sr.rect, sr.tile, sectorSize)...)
	}
	return chunks
}
