package characters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/eventbus"
	"github.com/rafaelGuerreiro/ikaria/internal/ikerr"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
)

// StatDefaults seeds a freshly created character's CharacterStats.
type StatDefaults struct {
	Level       int32
	Experience  int64
	Health      int32
	Mana        int32
	Capacity    int32
	Speed       int32
	AttackSpeed int32
}

// Service implements character creation/selection per spec §4.4.
type Service struct {
	chars  Repository
	stats  StatsRepository
	online OnlineRepository
	bus    *eventbus.Bus

	nameMinLen, nameMaxLen int
	defaults               StatDefaults
}

// New builds a Service.
func New(chars Repository, stats StatsRepository, online OnlineRepository, bus *eventbus.Bus, nameMinLen, nameMaxLen int, defaults StatDefaults) *Service {
	return &Service{
		chars: chars, stats: stats, online: online, bus: bus,
		nameMinLen: nameMinLen, nameMaxLen: nameMaxLen, defaults: defaults,
	}
}

// CreateCharacter canonicalizes displayName, inserts the Character and then
// its default Stats, fires CharacterCreated, then selects the new character
// (spec §4.4). The two inserts are separate repository calls, not one
// transaction: if the Stats insert fails, the Character row stays in place.
func (s *Service) CreateCharacter(ctx context.Context, sender validate.Identity, displayName string, gender Gender, race Race, now time.Time) (*Character, *ikerr.Error) {
	display, canonical, verr := PrepareCharacterNames(displayName, s.nameMinLen, s.nameMaxLen)
	if verr != nil {
		return nil, verr
	}

	c := &Character{
		UserID:      sender,
		Name:        canonical,
		DisplayName: display,
		Race:        race,
		Gender:      gender,
		Class:       ClassNone,
		CreatedAt:   now,
	}

	if err := s.chars.InsertUnique(ctx, c); err != nil {
		var taken *ErrNameTaken
		if errors.As(err, &taken) {
			return nil, ikerr.Conflict(ikerr.ReasonNameTaken, fmt.Sprintf("character name %q is taken", canonical))
		}
		return nil, ikerr.Internal("inserting character", err)
	}

	st := &Stats{
		CharacterID: c.CharacterID,
		UserID:      sender,
		Level:       s.defaults.Level,
		Experience:  s.defaults.Experience,
		Health:      s.defaults.Health,
		Mana:        s.defaults.Mana,
		Capacity:    s.defaults.Capacity,
		Speed:       s.defaults.Speed,
		AttackSpeed: s.defaults.AttackSpeed,
	}
	if err := s.stats.InsertDefaults(ctx, st); err != nil {
		var conflict *ErrStatsConflict
		if errors.As(err, &conflict) {
			return nil, ikerr.Conflict(ikerr.ReasonStatsConflict, "character stats already exist")
		}
		return nil, ikerr.Internal("inserting character stats", err)
	}

	if err := s.bus.Fire(ctx, now, eventbus.CharacterCreated(sender, c.CharacterID)); err != nil {
		return nil, ikerr.Internal("firing CharacterCreated", err)
	}

	if verr := s.SelectCharacter(ctx, sender, c.CharacterID, now); verr != nil {
		return nil, verr
	}

	return c, nil
}

// SelectCharacter verifies ownership, upserts Online, and fires
// CharacterSelected.
func (s *Service) SelectCharacter(ctx context.Context, sender validate.Identity, characterID uint64, now time.Time) *ikerr.Error {
	c, err := s.chars.GetByID(ctx, characterID)
	if err != nil {
		return ikerr.Internal("looking up character", err)
	}
	if c == nil {
		return ikerr.NotFound(ikerr.ReasonCharacterNotFound, "character not found")
	}
	if c.UserID != sender {
		return ikerr.Forbidden(ikerr.ReasonOwnershipMismatch, "character is not owned by sender")
	}

	if err := s.online.Upsert(ctx, sender, characterID, now); err != nil {
		return ikerr.Internal("upserting online character", err)
	}

	if err := s.bus.Fire(ctx, now, eventbus.CharacterSelected(sender, characterID)); err != nil {
		return ikerr.Internal("firing CharacterSelected", err)
	}
	return nil
}

// UnselectCharacter fires CharacterUnselected if a character is currently
// selected for sender; otherwise it is a no-op.
func (s *Service) UnselectCharacter(ctx context.Context, sender validate.Identity, now time.Time) *ikerr.Error {
	oc, err := s.online.Get(ctx, sender)
	if err != nil {
		return ikerr.Internal("looking up online character", err)
	}
	if oc == nil {
		return nil
	}
	if err := s.bus.Fire(ctx, now, eventbus.CharacterUnselected(sender)); err != nil {
		return ikerr.Internal("firing CharacterUnselected", err)
	}
	return nil
}

// ClearOnline removes the Online row for userID, if any. Called by the
// event handlers for UserSignedIn (stale-state cleanup), UserSignedOut, and
// CharacterUnselected.
func (s *Service) ClearOnline(ctx context.Context, userID validate.Identity) error {
	return s.online.Delete(ctx, userID)
}

// GetOffline is a total lookup by CharacterID, independent of online state.
func (s *Service) GetOffline(ctx context.Context, id uint64) (*Character, *ikerr.Error) {
	c, err := s.chars.GetByID(ctx, id)
	if err != nil {
		return nil, ikerr.Internal("looking up character", err)
	}
	if c == nil {
		return nil, ikerr.NotFound(ikerr.ReasonCharacterNotFound, "character not found")
	}
	return c, nil
}

// GetOnline returns the character only if it is also sender's currently
// selected character.
func (s *Service) GetOnline(ctx context.Context, sender validate.Identity, id uint64) (*Character, *ikerr.Error) {
	oc, err := s.online.Get(ctx, sender)
	if err != nil {
		return nil, ikerr.Internal("looking up online character", err)
	}
	if oc == nil || oc.CharacterID != id {
		return nil, ikerr.NotFound(ikerr.ReasonCharacterNotFound, "character is not online for sender")
	}
	return s.GetOffline(ctx, id)
}

// GetCurrent returns sender's currently selected character.
func (s *Service) GetCurrent(ctx context.Context, sender validate.Identity) (*Character, *ikerr.Error) {
	oc, err := s.online.Get(ctx, sender)
	if err != nil {
		return nil, ikerr.Internal("looking up online character", err)
	}
	if oc == nil {
		return nil, ikerr.Forbidden(ikerr.ReasonCharacterNotSelected, "no character selected")
	}
	return s.GetOffline(ctx, oc.CharacterID)
}

// GetStats returns the Stats row for an arbitrary CharacterID.
func (s *Service) GetStats(ctx context.Context, characterID uint64) (*Stats, *ikerr.Error) {
	st, err := s.stats.GetByCharacterID(ctx, characterID)
	if err != nil {
		return nil, ikerr.Internal("looking up character stats", err)
	}
	if st == nil {
		return nil, ikerr.NotFound(ikerr.ReasonCharacterNotFound, "character stats not found")
	}
	return st, nil
}

// GetCurrentStats returns the Stats for sender's currently selected
// character.
func (s *Service) GetCurrentStats(ctx context.Context, sender validate.Identity) (*Stats, *ikerr.Error) {
	c, verr := s.GetCurrent(ctx, sender)
	if verr != nil {
		return nil, verr
	}
	st, err := s.stats.GetByCharacterID(ctx, c.CharacterID)
	if err != nil {
		return nil, ikerr.Internal("looking up character stats", err)
	}
	if st == nil {
		return nil, ikerr.NotFound(ikerr.ReasonCharacterNotFound, "character stats not found")
	}
	return st, nil
}

// AllMine returns every Character owned by sender.
func (s *Service) AllMine(ctx context.Context, sender validate.Identity) ([]*Character, *ikerr.Error) {
	cs, err := s.chars.GetAllByUserID(ctx, sender)
	if err != nil {
		return nil, ikerr.Internal("listing characters", err)
	}
	return cs, nil
}

// AllMineStats returns every Stats row owned by sender.
func (s *Service) AllMineStats(ctx context.Context, sender validate.Identity) ([]*Stats, *ikerr.Error) {
	st, err := s.stats.GetAllByUserID(ctx, sender)
	if err != nil {
		return nil, ikerr.Internal("listing character stats", err)
	}
	return st, nil
}
