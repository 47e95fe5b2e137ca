// Package mapstore implements the chunk-based tiled map: seeding, point
// lookup by sector, and the per-character walkability cache (spec §4.2).
package mapstore

import "github.com/rafaelGuerreiro/ikaria/internal/geometry"

// Tile is the terrain type a MapChunk covers.
type Tile uint8

const (
	TileWater Tile = iota
	TileGrass
)

// Walkable reports whether a character can stand on this tile type.
func (t Tile) Walkable() bool {
	return t == TileGrass
}

// MapChunk is a single tile type over an axis-aligned rectangle at a fixed
// Z, keyed by its origin cell's map-id and sector-key for index locality.
type MapChunk struct {
	MapID     uint64
	SectorKey uint64
	Rect      geometry.Rect
	Tile      Tile
}

// WalkedMapChunk is a per-character cache of the last chunk rectangle proved
// walkable, so repeat moves within it skip the chunk lookup.
type WalkedMapChunk struct {
	CharacterID uint64
	MapID       uint64
	Rect        geometry.Rect
}
