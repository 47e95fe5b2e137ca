package worldsim

import (
	"context"
	"log/slog"
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/characters"
	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
	"github.com/rafaelGuerreiro/ikaria/internal/ikerr"
	"github.com/rafaelGuerreiro/ikaria/internal/mapstore"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
)

// sqrt2Numerator / sqrt2Denominator is 1_414_213 / 1_000_000, the fixed-point
// approximation of sqrt(2) diagonal moves are multiplied by. Truncating
// integer division is required (spec §4.5) — tests depend on deterministic
// arithmetic.
const (
	sqrt2Numerator   = 1_414_213
	sqrt2Denominator = 1_000_000
)

// Service implements the world service: spawn/despawn, movement, occupancy,
// walkability, and map seeding (spec §4.5 — the heart of the core).
type Service struct {
	positions   PositionRepository
	occupancy   OccupancyRepository
	cooldowns   CooldownRepository
	intentions  IntentionRepository
	mapStore    *mapstore.Store
	chars       *characters.Service

	spawnX, spawnY    uint16
	groundLevel       uint8
	sectorSize        uint16
	cooldownFactor    int64
	intentionWindow   time.Duration
	defaultSpeed      int32
}

// Config groups the tunables the world service needs at construction time.
type Config struct {
	SpawnX, SpawnY            uint16
	GroundLevel               uint8
	SectorSize                uint16
	CooldownFactor            int64
	IntentionWindowMs         int64
	DefaultSpeed              int32
}

// New builds a Service.
func New(
	positions PositionRepository,
	occupancy OccupancyRepository,
	cooldowns CooldownRepository,
	intentions IntentionRepository,
	mapStore *mapstore.Store,
	chars *characters.Service,
	cfg Config,
) *Service {
	return &Service{
		positions:  positions,
		occupancy:  occupancy,
		cooldowns:  cooldowns,
		intentions: intentions,
		mapStore:   mapStore,
		chars:      chars,

		spawnX: cfg.SpawnX, spawnY: cfg.SpawnY,
		groundLevel:     cfg.GroundLevel,
		sectorSize:      cfg.SectorSize,
		cooldownFactor:  cfg.CooldownFactor,
		intentionWindow: time.Duration(cfg.IntentionWindowMs) * time.Millisecond,
		defaultSpeed:    cfg.DefaultSpeed,
	}
}

// SeedInitialMap delegates to the map store's idempotent seeding.
func (s *Service) SeedInitialMap(ctx context.Context) error {
	return s.mapStore.SeedInitialMap(ctx)
}

// SpawnCharacter brings sender's currently selected character online, per
// spec §4.5. It despawns first to enforce "at most one online character
// per user". A no-op if sender has no selected character.
func (s *Service) SpawnCharacter(ctx context.Context, sender validate.Identity, now time.Time) *ikerr.Error {
	if verr := s.DespawnCharacter(ctx, sender, now); verr != nil {
		return verr
	}

	c, verr := s.chars.GetCurrent(ctx, sender)
	if verr != nil {
		if verr.Kind == ikerr.KindForbidden && verr.Reason == ikerr.ReasonCharacterNotSelected {
			return nil
		}
		return verr
	}

	pos, err := s.recoverPosition(ctx, c.CharacterID)
	if err != nil {
		return ikerr.Internal("recovering character position", err)
	}

	if err := s.positions.DeleteOffline(ctx, c.CharacterID); err != nil {
		return ikerr.Internal("deleting offline position", err)
	}
	if err := s.positions.UpsertOnline(ctx, *pos); err != nil {
		return ikerr.Internal("upserting online position", err)
	}
	if err := s.occupy(ctx, pos.Pos, c.CharacterID); err != nil {
		return ikerr.Internal("occupying spawn tile", err)
	}
	return nil
}

// recoverPosition returns the character's last known position (offline
// preferred, then online), or a freshly synthesized spawn position.
func (s *Service) recoverPosition(ctx context.Context, characterID uint64) (*Position, error) {
	if pos, err := s.positions.GetOffline(ctx, characterID); err != nil {
		return nil, err
	} else if pos != nil {
		return pos, nil
	}
	if pos, err := s.positions.GetOnline(ctx, characterID); err != nil {
		return nil, err
	} else if pos != nil {
		return pos, nil
	}
	return &Position{
		CharacterID: characterID,
		Pos:         geometry.Vec3{X: s.spawnX, Y: s.spawnY, Z: s.groundLevel},
		Movement:    geometry.MovementSouth,
		Direction:   geometry.DirectionSouth,
		ArrivesAt:   time.Unix(0, 0).UTC(),
	}, nil
}

// DespawnCharacter migrates every online position belonging to sender's
// characters to the offline table, vacates their tiles, and clears
// cooldown/intention/walk-cache state (spec §4.5).
func (s *Service) DespawnCharacter(ctx context.Context, sender validate.Identity, now time.Time) *ikerr.Error {
	owned, verr := s.chars.AllMine(ctx, sender)
	if verr != nil {
		return verr
	}

	for _, c := range owned {
		pos, err := s.positions.GetOnline(ctx, c.CharacterID)
		if err != nil {
			return ikerr.Internal("looking up online position", err)
		}
		if pos != nil {
			if err := s.positions.UpsertOffline(ctx, *pos); err != nil {
				return ikerr.Internal("migrating position to offline", err)
			}
			if err := s.vacate(ctx, pos.Pos, c.CharacterID); err != nil {
				return ikerr.Internal("vacating tile on despawn", err)
			}
			if err := s.positions.DeleteOnline(ctx, c.CharacterID); err != nil {
				return ikerr.Internal("deleting online position", err)
			}
		}
		if err := s.cooldowns.Delete(ctx, c.CharacterID); err != nil {
			return ikerr.Internal("deleting movement cooldown", err)
		}
		if err := s.intentions.Delete(ctx, c.CharacterID); err != nil {
			return ikerr.Internal("deleting movement intention", err)
		}
		s.mapStore.ClearWalkCache(c.CharacterID)
	}
	return nil
}

// MoveCharacter is the only public movement entry point (spec §4.5). If a
// cooldown forbids an immediate move but the remainder falls within the
// late-intent window, the move is queued as a one-shot intention instead of
// being rejected outright.
func (s *Service) MoveCharacter(ctx context.Context, characterID uint64, movement geometry.MovementV1, now time.Time) *ikerr.Error {
	cooldown, err := s.cooldowns.Get(ctx, characterID)
	if err != nil {
		return ikerr.Internal("looking up movement cooldown", err)
	}
	if cooldown != nil && now.Before(cooldown.CanMoveAt) {
		remaining := cooldown.CanMoveAt.Sub(now)
		if remaining <= s.intentionWindow {
			if err := s.intentions.Upsert(ctx, Intention{
				CharacterID: characterID,
				Movement:    movement,
				ScheduledAt: cooldown.CanMoveAt,
			}); err != nil {
				return ikerr.Internal("upserting movement intention", err)
			}
			return nil
		}
		return ikerr.Validation(ikerr.ReasonMovementOnCooldown, "character is on movement cooldown")
	}

	return s.executeMovement(ctx, characterID, movement, now)
}

// ExecuteMovementIntention fires a previously queued intention. It is a
// no-op if the cooldown still forbids the move (e.g. despawn cleared the
// cooldown and a later action re-established a longer one). The consumed
// intention row is deleted regardless of outcome — it is single-shot.
func (s *Service) ExecuteMovementIntention(ctx context.Context, characterID uint64, movement geometry.MovementV1, now time.Time) *ikerr.Error {
	defer func() {
		if err := s.intentions.Delete(ctx, characterID); err != nil {
			slog.Error("deleting consumed movement intention", "character_id", characterID, "err", err)
		}
	}()

	cooldown, err := s.cooldowns.Get(ctx, characterID)
	if err != nil {
		return ikerr.Internal("looking up movement cooldown", err)
	}
	if cooldown != nil && now.Before(cooldown.CanMoveAt) {
		return nil
	}
	return s.executeMovement(ctx, characterID, movement, now)
}

// executeMovement resolves the online character, validates the target
// tile, and applies the move (spec §4.5 "Movement — execute").
func (s *Service) executeMovement(ctx context.Context, characterID uint64, movement geometry.MovementV1, now time.Time) *ikerr.Error {
	pos, err := s.positions.GetOnline(ctx, characterID)
	if err != nil {
		return ikerr.Internal("looking up online position", err)
	}
	if pos == nil {
		return ikerr.NotFound(ikerr.ReasonCharacterPositionNotFound, "character has no online position")
	}

	target := movement.Translate(pos.Pos)
	if target == pos.Pos {
		return ikerr.Validation(ikerr.ReasonMovementOutOfBounds, "movement saturated at a map edge")
	}

	occupied, err := s.isOccupied(ctx, target)
	if err != nil {
		return ikerr.Internal("checking tile occupancy", err)
	}
	if occupied {
		return ikerr.Validation(ikerr.ReasonTileOccupied, "target tile is occupied")
	}

	walkable, err := s.mapStore.IsWalkable(ctx, characterID, target)
	if err != nil {
		return ikerr.Internal("checking tile walkability", err)
	}
	if !walkable {
		return ikerr.Validation(ikerr.ReasonTileNotWalkable, "target tile is not walkable")
	}

	arrivesAt := now.Add(s.moveCooldown(ctx, characterID, movement))

	if err := s.vacate(ctx, pos.Pos, characterID); err != nil {
		return ikerr.Internal("vacating source tile", err)
	}
	if err := s.occupy(ctx, target, characterID); err != nil {
		return ikerr.Internal("occupying target tile", err)
	}

	newPos := Position{
		CharacterID: characterID,
		Pos:         target,
		Movement:    movement,
		Direction:   movement.Into(),
		ArrivesAt:   arrivesAt,
	}
	if err := s.positions.UpsertOnline(ctx, newPos); err != nil {
		return ikerr.Internal("upserting moved position", err)
	}
	if err := s.cooldowns.Upsert(ctx, Cooldown{CharacterID: characterID, CanMoveAt: arrivesAt}); err != nil {
		return ikerr.Internal("upserting movement cooldown", err)
	}
	return nil
}

// moveCooldown computes the cooldown duration for one step of movement,
// per spec §4.5 "Cooldown model". speed defaults to defaultSpeed if the
// character has no stats row yet.
func (s *Service) moveCooldown(ctx context.Context, characterID uint64, movement geometry.MovementV1) time.Duration {
	speed := s.defaultSpeed
	if st, verr := s.chars.GetStats(ctx, characterID); verr == nil {
		speed = st.Speed
	}
	if speed <= 0 {
		speed = s.defaultSpeed
	}

	cooldownMs := s.cooldownFactor / int64(speed)
	if movement.IsDiagonal() {
		cooldownMs = cooldownMs * sqrt2Numerator / sqrt2Denominator
	}
	return time.Duration(cooldownMs) * time.Millisecond
}
