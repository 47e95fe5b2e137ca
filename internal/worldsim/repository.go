package worldsim

import (
	"context"
)

// PositionRepository persists CharacterPosition rows in the two disjoint
// online/offline tables described in spec §3.
type PositionRepository interface {
	GetOnline(ctx context.Context, characterID uint64) (*Position, error)
	GetOffline(ctx context.Context, characterID uint64) (*Position, error)
	UpsertOnline(ctx context.Context, p Position) error
	UpsertOffline(ctx context.Context, p Position) error
	DeleteOnline(ctx context.Context, characterID uint64) error
	DeleteOffline(ctx context.Context, characterID uint64) error
}

// OccupancyRepository persists OccupiedTile rows, keyed by MapID.
type OccupancyRepository interface {
	Get(ctx context.Context, mapID uint64) (*OccupiedTile, error)
	Upsert(ctx context.Context, tile OccupiedTile) error
	Delete(ctx context.Context, mapID uint64) error
}

// CooldownRepository persists MovementCooldown rows, 1:1 with a character.
type CooldownRepository interface {
	Get(ctx context.Context, characterID uint64) (*Cooldown, error)
	Upsert(ctx context.Context, c Cooldown) error
	Delete(ctx context.Context, characterID uint64) error
}

// IntentionRepository persists the single-slot OneshotMovementIntention
// per character.
type IntentionRepository interface {
	Upsert(ctx context.Context, i Intention) error
	Get(ctx context.Context, characterID uint64) (*Intention, error)
	Delete(ctx context.Context, characterID uint64) error
}
