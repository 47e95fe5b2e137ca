// Command ikariadb is the process entrypoint for the world-simulation core:
// it loads configuration, runs migrations, builds the core.Engine, and runs
// the single-writer action loop plus the deferred-event/intention scheduler
// poll loop described in spec §5 and §9.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rafaelGuerreiro/ikaria/internal/characters"
	"github.com/rafaelGuerreiro/ikaria/internal/config"
	"github.com/rafaelGuerreiro/ikaria/internal/core"
	"github.com/rafaelGuerreiro/ikaria/internal/ikerr"
	"github.com/rafaelGuerreiro/ikaria/internal/store"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
	"github.com/rafaelGuerreiro/ikaria/internal/worldsim"
)

const configPathDefault = "config/ikariadb.yaml"

// schedulerIdentity is the internal sender stamped on every action the
// poller loops feed back into the engine; it is never presented by a real
// client, so it is excluded from every access path except the internal-only
// reducers: init and the two scheduled callbacks (spec §4.3
// require_internal_access).
var schedulerIdentity = validate.Identity{0xFF}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := configPathDefault
	if p := os.Getenv("IKARIADB_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("ikariadb starting", "log_level", cfg.LogLevel)

	db, err := store.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	deferredRepo := store.NewDeferredRepository(db)
	intentionRepo := store.NewIntentionRepository(db)

	var jobSeq atomic.Uint64
	engine := core.New(core.Deps{
		Users:      store.NewUserRepository(db),
		Characters: store.NewCharacterRepository(db),
		Stats:      store.NewStatsRepository(db),
		Online:     store.NewOnlineRepository(db),
		Positions:  store.NewPositionRepository(db),
		Occupancy:  store.NewOccupancyRepository(db),
		Cooldowns:  store.NewCooldownRepository(db),
		Intentions: intentionRepo,
		MapChunks:  store.NewMapChunkRepository(db),
		Deferred:   deferredRepo,

		JobIDs: func() uint64 { return jobSeq.Add(1) },

		NameMinLen: cfg.CharacterNameMinLen,
		NameMaxLen: cfg.CharacterNameMaxLen,
		StatDefaults: characters.StatDefaults{
			Level:       cfg.DefaultCharacterLevel,
			Experience:  cfg.DefaultCharacterExperience,
			Health:      cfg.DefaultCharacterHealth,
			Mana:        cfg.DefaultCharacterMana,
			Capacity:    cfg.DefaultCharacterCapacity,
			Speed:       cfg.DefaultCharacterSpeed,
			AttackSpeed: cfg.DefaultCharacterAttackSpeed,
		},
		WorldConfig: worldsim.Config{
			SpawnX:            cfg.DefaultSpawnX,
			SpawnY:            cfg.DefaultSpawnY,
			GroundLevel:       cfg.GroundLevel,
			SectorSize:        cfg.SectorSize,
			CooldownFactor:    cfg.MovementCooldownFactor,
			IntentionWindowMs: cfg.MovementIntentionWindowMs,
			DefaultSpeed:      cfg.DefaultCharacterSpeed,
		},
		MapViewRadius: cfg.MapViewRadius,

		Internal: []validate.Identity{schedulerIdentity},
	})

	actions := make(chan func(ctx context.Context, now time.Time), 256)
	defer close(actions)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting engine action loop")
		return runActionLoop(gctx, actions)
	})

	g.Go(func() error {
		done := make(chan *ikerr.Error, 1)
		select {
		case actions <- func(actionCtx context.Context, now time.Time) {
			done <- engine.Init(actionCtx, schedulerIdentity, now)
		}:
		case <-gctx.Done():
			return nil
		}
		select {
		case verr := <-done:
			if verr != nil {
				return fmt.Errorf("running init action: %w", verr)
			}
			slog.Info("initial map seeded")
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	g.Go(func() error {
		slog.Info("starting deferred-event scheduler", "tick", "50ms")
		return pollDeferredEvents(gctx, deferredRepo, engine, actions)
	})

	g.Go(func() error {
		slog.Info("starting movement-intention scheduler", "tick", "50ms")
		return pollMovementIntentions(gctx, intentionRepo, engine, actions)
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runActionLoop is the single writer: every action the server accepts,
// whether from the (out-of-scope) transport layer or the scheduler below,
// funnels through this one goroutine so the core never sees concurrent
// calls (spec §5 "single-writer state machine").
func runActionLoop(ctx context.Context, actions <-chan func(ctx context.Context, now time.Time)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case action, ok := <-actions:
			if !ok {
				return nil
			}
			action(ctx, time.Now())
		}
	}
}

const schedulerPollInterval = 50 * time.Millisecond

// pollDeferredEvents re-submits OneshotDeferredEvent rows whose
// scheduled_at has elapsed, acking each once the engine has dispatched it.
func pollDeferredEvents(ctx context.Context, repo *store.DeferredRepository, engine *core.Engine, actions chan<- func(ctx context.Context, now time.Time)) error {
	ticker := time.NewTicker(schedulerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			due, err := repo.PollDue(ctx, time.Now(), 64)
			if err != nil {
				slog.Error("polling deferred events", "err", err)
				continue
			}
			for _, d := range due {
				d := d
				select {
				case actions <- func(actionCtx context.Context, now time.Time) {
					if verr := engine.OneshotDeferredEventScheduledV1(actionCtx, schedulerIdentity, d.Event, now); verr != nil {
						slog.Error("dispatching deferred event", "jobID", d.JobID, "err", verr)
						return
					}
					if err := repo.Ack(actionCtx, d.JobID); err != nil {
						slog.Error("acking deferred event", "jobID", d.JobID, "err", err)
					}
				}:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// pollMovementIntentions re-submits OneshotMovementIntention rows whose
// scheduled_at has elapsed; the intention row is deleted by the engine
// itself once the queued move executes (spec §4.5).
func pollMovementIntentions(ctx context.Context, repo *store.IntentionRepository, engine *core.Engine, actions chan<- func(ctx context.Context, now time.Time)) error {
	ticker := time.NewTicker(schedulerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			due, err := repo.PollDue(ctx, time.Now(), 64)
			if err != nil {
				slog.Error("polling movement intentions", "err", err)
				continue
			}
			for _, d := range due {
				d := d
				select {
				case actions <- func(actionCtx context.Context, now time.Time) {
					if verr := engine.OneshotMovementIntentionScheduledV1(actionCtx, schedulerIdentity, d.CharacterID, d.Movement, now); verr != nil {
						slog.Error("dispatching movement intention", "characterID", d.CharacterID, "err", verr)
					}
				}:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}

// parseLogLevel converts a string log level to slog.Level, defaulting to
// Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
