// Package characters implements character creation/selection, name
// canonicalization, and stats bootstrap (spec §4.4).
package characters

import (
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/validate"
)

// Race is the playable race of a Character.
type Race uint8

const (
	RaceHuman Race = iota
	RaceElf
)

// Gender is the playable gender of a Character.
type Gender uint8

const (
	GenderMale Gender = iota
	GenderFemale
)

// Class is the playable class of a Character. A freshly created character
// has ClassNone until a class-selection flow outside this spec's scope
// assigns one.
type Class uint8

const (
	ClassNone Class = iota
	ClassWarrior
	ClassRogue
	ClassWizard
	ClassBerserker
	ClassKnight
	ClassHunter
	ClassArcher
	ClassWarlock
	ClassDruid
)

// Character is owned by a User, identified by an auto-assigned,
// monotonically increasing CharacterID.
type Character struct {
	CharacterID uint64
	UserID      validate.Identity
	Name        string // canonical form, globally unique
	DisplayName string
	Race        Race
	Class       Class
	Gender      Gender
	CreatedAt   time.Time
}

// Stats is 1:1 with Character by CharacterID; also indexed by UserID.
type Stats struct {
	CharacterID uint64
	UserID      validate.Identity
	Level       int32
	Experience  int64
	Health      int32
	Mana        int32
	Capacity    int32
	Speed       int32
	AttackSpeed int32
}

// Online is at most one per UserID, pointing at the currently selected
// character. Its presence is the definition of "character is online".
type Online struct {
	UserID      validate.Identity
	CharacterID uint64
	SignedInAt  time.Time
}
