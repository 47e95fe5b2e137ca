package mapstore

import (
	"context"
	"fmt"

	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
)

// Repository persists MapChunks, indexed by sector for point lookups.
type Repository interface {
	// ExistsAny reports whether any chunk has ever been inserted, used to
	// make SeedInitialMap idempotent.
	ExistsAny(ctx context.Context) (bool, error)
	// InsertAll inserts chunks in one batch.
	InsertAll(ctx context.Context, chunks []MapChunk) error
	// FindBySector returns every chunk sharing sectorKey.
	FindBySector(ctx context.Context, sectorKey uint64) ([]MapChunk, error)
}

// Store implements the map-store component of spec §4.2: idempotent
// seeding, point lookup, and the per-character walkability cache.
type Store struct {
	repo        Repository
	sectorSize  uint16
	groundLevel uint8

	// walked is the per-character walkability cache. The core is a
	// single-writer state machine (spec §5) so no lock is needed here —
	// one action runs to completion before the next begins.
	walked map[uint64]WalkedMapChunk
}

// New builds a Store backed by repo.
func New(repo Repository, sectorSize uint16, groundLevel uint8) *Store {
	return &Store{
		repo:        repo,
		sectorSize:  sectorSize,
		groundLevel: groundLevel,
		walked:      make(map[uint64]WalkedMapChunk),
	}
}

// SeedInitialMap inserts the initial map once; a no-op if any chunk exists.
func (s *Store) SeedInitialMap(ctx context.Context) error {
	exists, err := s.repo.ExistsAny(ctx)
	if err != nil {
		return fmt.Errorf("checking for existing map chunks: %w", err)
	}
	if exists {
		return nil
	}

	chunks := seedChunks(s.groundLevel, s.sectorSize)
	if err := s.repo.InsertAll(ctx, chunks); err != nil {
		return fmt.Errorf("inserting seed chunks: %w", err)
	}
	return nil
}

// FindMapAt looks up the chunk containing pos: filters chunks sharing
// pos's sector key, then linear-scans for one matching Z whose rect
// contains (pos.X, pos.Y). Returns nil, nil if no chunk covers pos.
func (s *Store) FindMapAt(ctx context.Context, pos geometry.Vec3) (*MapChunk, error) {
	sectorKey := pos.SectorKey(s.sectorSize)
	chunks, err := s.repo.FindBySector(ctx, sectorKey)
	if err != nil {
		return nil, fmt.Errorf("finding chunks in sector %d: %w", sectorKey, err)
	}
	for i := range chunks {
		c := &chunks[i]
		if c.Rect.Z == pos.Z && c.Rect.Contains(pos.X, pos.Y) {
			return c, nil
		}
	}
	return nil, nil
}

// IsWalkable reports whether target is walkable, consulting and updating
// the per-character cache keyed by characterID. A cached rect at target's Z
// that contains target answers true directly; otherwise the chunk at target
// is looked up, and a Grass chunk replaces the cache entry.
func (s *Store) IsWalkable(ctx context.Context, characterID uint64, target geometry.Vec3) (bool, error) {
	if cached, ok := s.walked[characterID]; ok {
		if cached.Rect.Z == target.Z && cached.Rect.Contains(target.X, target.Y) {
			return true, nil
		}
	}

	chunk, err := s.FindMapAt(ctx, target)
	if err != nil {
		return false, err
	}
	if chunk == nil || !chunk.Tile.Walkable() {
		return false, nil
	}

	s.walked[characterID] = WalkedMapChunk{
		CharacterID: characterID,
		MapID:       chunk.MapID,
		Rect:        chunk.Rect,
	}
	return true, nil
}

// ClearWalkCache deletes the walkability cache entry for characterID,
// called on despawn (spec §4.5).
func (s *Store) ClearWalkCache(characterID uint64) {
	delete(s.walked, characterID)
}
