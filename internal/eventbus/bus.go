// Package eventbus implements the synchronous in-process publish step that
// wires user/character lifecycle actions to their downstream effects (spawn,
// despawn, user upkeep), plus the deferred-event lane those effects can
// enqueue onto for a second, externally-scheduled dispatch.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Handler dispatches a single Event. The concrete implementation lives one
// layer up (internal/core), where all of users/characters/worldsim are in
// scope — eventbus itself never imports those packages, so there is no
// import cycle between "service publishes an event" and "bus dispatches to
// services".
type Handler interface {
	Handle(ctx context.Context, now time.Time, ev Event) error
}

// DeferredRepository persists the OneshotDeferredEvent queue.
type DeferredRepository interface {
	Enqueue(ctx context.Context, jobID uint64, scheduledAt time.Time, ev Event, createdAt time.Time) error
}

// Bus fires events synchronously against Handler, and optionally enqueues a
// deferred twin.
type Bus struct {
	handler  Handler
	deferred DeferredRepository
	jobIDs   func() uint64
}

// New builds a Bus. jobIDs supplies monotonically increasing job ids for
// deferred-event rows.
func New(handler Handler, deferred DeferredRepository, jobIDs func() uint64) *Bus {
	return &Bus{handler: handler, deferred: deferred, jobIDs: jobIDs}
}

// deferredTickMs is the scheduler tick the deferred lane is quantized to —
// a 250 Hz tick, matching spec §4.6.
const deferredTickMs = 4

// Fire dispatches ev synchronously, bubbling any handler error to the
// caller so the whole action aborts. If ev has a deferred twin, it is
// enqueued after the sync handler succeeds.
func (b *Bus) Fire(ctx context.Context, now time.Time, ev Event) error {
	if err := b.handler.Handle(ctx, now, ev); err != nil {
		return fmt.Errorf("handling event %s: %w", ev.Kind, err)
	}
	if ev.hasDeferredTwin() && b.deferred != nil {
		jobID := b.jobIDs()
		scheduledAt := now.Add(deferredTickMs * time.Millisecond)
		if err := b.deferred.Enqueue(ctx, jobID, scheduledAt, ev, now); err != nil {
			return fmt.Errorf("enqueueing deferred twin of %s: %w", ev.Kind, err)
		}
	}
	return nil
}

// FireAndForget fires ev, logging and swallowing any error instead of
// propagating it.
func (b *Bus) FireAndForget(ctx context.Context, now time.Time, ev Event) {
	if err := b.Fire(ctx, now, ev); err != nil {
		slog.Error("event handler failed", "kind", ev.Kind, "err", err)
	}
}
