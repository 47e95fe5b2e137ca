// Package worldsim implements the world service: spawn/despawn, movement
// with cooldown/intent, tile occupancy, and map seeding (spec §4.5). This
// is the heart of the core.
package worldsim

import (
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
)

// Position is 1:1 with a Character, stored in exactly one of the online or
// offline tables at a time (spec §3 invariant 2).
type Position struct {
	CharacterID uint64
	Pos         geometry.Vec3
	Movement    geometry.MovementV1
	Direction   geometry.DirectionV1
	ArrivesAt   time.Time
}

// OccupiedTile lists every online character currently standing on one tile.
type OccupiedTile struct {
	MapID        uint64
	SectorKey    uint64
	CharacterIDs []uint64
}

// Cooldown is 1:1 with a Character: the earliest time it may accept
// another move.
type Cooldown struct {
	CharacterID uint64
	CanMoveAt   time.Time
}

// Intention is a one-shot future move queued when a request arrives within
// the late-intent window of cooldown expiry. Single slot per character.
type Intention struct {
	CharacterID uint64
	Movement    geometry.MovementV1
	ScheduledAt time.Time
}
