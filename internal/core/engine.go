// Package core wires the event bus, character/world/user services, and the
// action-reducer surface of spec §6 into a single Engine — the thing a
// transport layer calls into. Engine is not internally synchronized: per
// spec §5 ("single-writer state machine"), callers must serialize their own
// calls to it (cmd/ikariadb does this with one goroutine reading off a
// channel).
package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/characters"
	"github.com/rafaelGuerreiro/ikaria/internal/eventbus"
	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
	"github.com/rafaelGuerreiro/ikaria/internal/ikerr"
	"github.com/rafaelGuerreiro/ikaria/internal/mapstore"
	"github.com/rafaelGuerreiro/ikaria/internal/users"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
	"github.com/rafaelGuerreiro/ikaria/internal/views"
	"github.com/rafaelGuerreiro/ikaria/internal/worldsim"
)

// Deps are every repository and tunable Engine needs to construct its
// component services. It mirrors the per-aggregate repository split of
// internal/store one-for-one.
type Deps struct {
	Users      users.Repository
	Characters characters.Repository
	Stats      characters.StatsRepository
	Online     characters.OnlineRepository
	Positions  worldsim.PositionRepository
	Occupancy  worldsim.OccupancyRepository
	Cooldowns  worldsim.CooldownRepository
	Intentions worldsim.IntentionRepository
	MapChunks  mapstore.Repository
	Deferred   eventbus.DeferredRepository

	JobIDs func() uint64

	NameMinLen, NameMaxLen int
	StatDefaults           characters.StatDefaults
	WorldConfig            worldsim.Config
	MapViewRadius          uint16

	// Internal lists the sender identities permitted to invoke the
	// internal-only reducers (scheduled intention/deferred-event
	// callbacks, and init).
	Internal []validate.Identity
}

// Engine implements eventbus.Handler and exposes the full §6 action-reducer
// and view surface.
type Engine struct {
	chars *characters.Service
	world *worldsim.Service
	users *users.Service
	views *views.Service
	bus   *eventbus.Bus

	internal map[validate.Identity]bool
}

// New builds an Engine. The Handler/service wiring is circular (the bus
// dispatches to the engine, the engine's services publish through the bus),
// so construction happens in two steps: the bus is built first against a
// not-yet-populated Engine, then the services are built against the bus and
// assigned onto it.
func New(deps Deps) *Engine {
	e := &Engine{internal: make(map[validate.Identity]bool, len(deps.Internal))}
	for _, id := range deps.Internal {
		e.internal[id] = true
	}

	bus := eventbus.New(e, deps.Deferred, deps.JobIDs)

	mapStore := mapstore.New(deps.MapChunks, deps.WorldConfig.SectorSize, deps.WorldConfig.GroundLevel)
	e.chars = characters.New(deps.Characters, deps.Stats, deps.Online, bus, deps.NameMinLen, deps.NameMaxLen, deps.StatDefaults)
	e.world = worldsim.New(deps.Positions, deps.Occupancy, deps.Cooldowns, deps.Intentions, mapStore, e.chars, deps.WorldConfig)
	e.users = users.New(deps.Users)
	e.views = views.New(e.chars, e.world, deps.MapViewRadius)
	e.bus = bus

	return e
}

// Views exposes the read-side projections wired against this Engine's
// services.
func (e *Engine) Views() *views.Service { return e.views }

// IsInternal implements validate.InternalChecker.
func (e *Engine) IsInternal(sender validate.Identity) bool { return e.internal[sender] }

// Handle implements eventbus.Handler — the single switch spec §4.6
// describes, routing each event kind to its wired effects.
func (e *Engine) Handle(ctx context.Context, now time.Time, ev eventbus.Event) error {
	switch ev.Kind {
	case eventbus.KindSystemInit:
		return e.world.SeedInitialMap(ctx)

	case eventbus.KindUserSignedIn:
		if err := e.users.SignedIn(ctx, ev.Sender, now); err != nil {
			return err
		}
		if err := e.chars.ClearOnline(ctx, ev.Sender); err != nil {
			return err
		}
		if verr := e.world.DespawnCharacter(ctx, ev.Sender, now); verr != nil {
			return verr
		}
		return nil

	case eventbus.KindUserSignedOut:
		if verr := e.world.DespawnCharacter(ctx, ev.Sender, now); verr != nil {
			return verr
		}
		if err := e.chars.ClearOnline(ctx, ev.Sender); err != nil {
			return err
		}
		return e.users.SignedOut(ctx, ev.Sender, now)

	case eventbus.KindCharacterSelected:
		if verr := e.world.SpawnCharacter(ctx, ev.Sender, now); verr != nil {
			return verr
		}
		return nil

	case eventbus.KindCharacterUnselected:
		if verr := e.world.DespawnCharacter(ctx, ev.Sender, now); verr != nil {
			return verr
		}
		return e.chars.ClearOnline(ctx, ev.Sender)

	default:
		// UserCreated, CharacterCreated: no downstream effect wired today
		// (spec §4.6 "Others → no-op").
		return nil
	}
}

// Init is the `init` action: internal, once at boot.
func (e *Engine) Init(ctx context.Context, sender validate.Identity, now time.Time) *ikerr.Error {
	if verr := validate.RequireInternalAccess(e, sender); verr != nil {
		return verr
	}
	if err := e.bus.Fire(ctx, now, eventbus.SystemInit()); err != nil {
		return ikerr.Internal("firing SystemInit", err)
	}
	return nil
}

// IdentityConnected is the `identity_connected` server hook.
func (e *Engine) IdentityConnected(ctx context.Context, sender validate.Identity, now time.Time) *ikerr.Error {
	if err := e.bus.Fire(ctx, now, eventbus.UserSignedIn(sender)); err != nil {
		return ikerr.Internal("firing UserSignedIn", err)
	}
	return nil
}

// IdentityDisconnected is the `identity_disconnected` server hook.
func (e *Engine) IdentityDisconnected(ctx context.Context, sender validate.Identity, now time.Time) *ikerr.Error {
	if err := e.bus.Fire(ctx, now, eventbus.UserSignedOut(sender)); err != nil {
		return ikerr.Internal("firing UserSignedOut", err)
	}
	return nil
}

// CreateCharacterV1 is `create_character_v1`.
func (e *Engine) CreateCharacterV1(ctx context.Context, sender validate.Identity, displayName string, gender characters.Gender, race characters.Race, now time.Time) (*characters.Character, *ikerr.Error) {
	return e.chars.CreateCharacter(ctx, sender, displayName, gender, race, now)
}

// SelectCharacterV1 is `select_character_v1`.
func (e *Engine) SelectCharacterV1(ctx context.Context, sender validate.Identity, characterID uint64, now time.Time) *ikerr.Error {
	return e.chars.SelectCharacter(ctx, sender, characterID, now)
}

// UnselectCharacterV1 is `unselect_character_v1`.
func (e *Engine) UnselectCharacterV1(ctx context.Context, sender validate.Identity, now time.Time) *ikerr.Error {
	return e.chars.UnselectCharacter(ctx, sender, now)
}

// MoveCharacterV1 is `move_character_v1`: the sender must have a currently
// selected (and therefore online) character.
func (e *Engine) MoveCharacterV1(ctx context.Context, sender validate.Identity, movement geometry.MovementV1, now time.Time) *ikerr.Error {
	c, verr := e.chars.GetCurrent(ctx, sender)
	if verr != nil {
		return verr
	}
	return e.world.MoveCharacter(ctx, c.CharacterID, movement, now)
}

// OneshotMovementIntentionScheduledV1 is the internal-only scheduled
// callback that fires a queued movement intention.
func (e *Engine) OneshotMovementIntentionScheduledV1(ctx context.Context, sender validate.Identity, characterID uint64, movement geometry.MovementV1, now time.Time) *ikerr.Error {
	if verr := validate.RequireInternalAccess(e, sender); verr != nil {
		return verr
	}
	return e.world.ExecuteMovementIntention(ctx, characterID, movement, now)
}

// OneshotDeferredEventScheduledV1 is the internal-only scheduled callback
// that dispatches a previously enqueued deferred event. It calls Handle
// directly rather than Bus.Fire, since the deferred lane is itself how
// Bus.Fire's enqueue is drained — re-entering Fire would re-enqueue.
func (e *Engine) OneshotDeferredEventScheduledV1(ctx context.Context, sender validate.Identity, ev eventbus.Event, now time.Time) *ikerr.Error {
	if verr := validate.RequireInternalAccess(e, sender); verr != nil {
		return verr
	}
	if err := e.Handle(ctx, now, ev); err != nil {
		slog.Error("dispatching deferred event", "kind", ev.Kind, "err", err)
		return ikerr.Internal("dispatching deferred event", err)
	}
	return nil
}
