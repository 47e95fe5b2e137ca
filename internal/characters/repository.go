package characters

import (
	"context"
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/validate"
)

// Repository persists Characters and enforces the global name-uniqueness
// invariant (spec §3 invariant 4).
type Repository interface {
	// InsertUnique assigns c.CharacterID and inserts c, or returns
	// ErrNameTaken (the implementation maps the underlying unique
	// violation to it) if c.Name already exists.
	InsertUnique(ctx context.Context, c *Character) error
	GetByID(ctx context.Context, id uint64) (*Character, error)
	GetAllByUserID(ctx context.Context, userID validate.Identity) ([]*Character, error)
}

// StatsRepository persists CharacterStats, 1:1 with Character.
type StatsRepository interface {
	InsertDefaults(ctx context.Context, s *Stats) error
	GetByCharacterID(ctx context.Context, id uint64) (*Stats, error)
	GetAllByUserID(ctx context.Context, userID validate.Identity) ([]*Stats, error)
}

// OnlineRepository persists the Online table: at most one row per UserID.
type OnlineRepository interface {
	Upsert(ctx context.Context, userID validate.Identity, characterID uint64, signedInAt time.Time) error
	Get(ctx context.Context, userID validate.Identity) (*Online, error)
	Delete(ctx context.Context, userID validate.Identity) error
}

// ErrNameTaken is a sentinel a Repository.InsertUnique implementation
// returns (wrapped) when the unique-name constraint is violated, so Service
// can map it to ikerr.Conflict without depending on a specific driver's
// error type.
type ErrNameTaken struct{ Name string }

func (e *ErrNameTaken) Error() string { return "character name already taken: " + e.Name }

// ErrStatsConflict is returned by StatsRepository.InsertDefaults when a
// stats row for the character already exists.
type ErrStatsConflict struct{ CharacterID uint64 }

func (e *ErrStatsConflict) Error() string { return "character stats already exist" }
