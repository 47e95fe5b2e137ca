package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/eventbus"
)

// DeferredRepository implements eventbus.DeferredRepository against
// PostgreSQL: the FIFO OneshotDeferredEvent queue an external scheduler
// polls and re-submits at or after scheduled_at.
type DeferredRepository struct {
	db *DB
}

// NewDeferredRepository builds a DeferredRepository backed by db.
func NewDeferredRepository(db *DB) *DeferredRepository {
	return &DeferredRepository{db: db}
}

// Enqueue inserts a new OneshotDeferredEvent row.
func (r *DeferredRepository) Enqueue(ctx context.Context, jobID uint64, scheduledAt time.Time, ev eventbus.Event, createdAt time.Time) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO oneshot_deferred_events (job_id, scheduled_at, kind, sender, character_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		jobID, scheduledAt, string(ev.Kind), ev.Sender[:], ev.CharacterID, createdAt,
	)
	if err != nil {
		return fmt.Errorf("enqueueing deferred event job %d: %w", jobID, err)
	}
	return nil
}

// DueEvent is one row of the deferred queue ready for re-dispatch.
type DueEvent struct {
	JobID       uint64
	ScheduledAt time.Time
	Event       eventbus.Event
}

// PollDue returns every deferred event whose scheduled_at has elapsed as of
// now, oldest first, for the external scheduler loop described in spec §5.
func (r *DeferredRepository) PollDue(ctx context.Context, now time.Time, limit int) ([]DueEvent, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT job_id, scheduled_at, kind, sender, character_id
		 FROM oneshot_deferred_events
		 WHERE scheduled_at <= $1
		 ORDER BY scheduled_at ASC, job_id ASC
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("polling due deferred events: %w", err)
	}
	defer rows.Close()

	out := make([]DueEvent, 0, limit)
	for rows.Next() {
		var d DueEvent
		var kind string
		var sender []byte
		if err := rows.Scan(&d.JobID, &d.ScheduledAt, &kind, &sender, &d.Event.CharacterID); err != nil {
			return nil, fmt.Errorf("scanning deferred event row: %w", err)
		}
		d.Event.Kind = eventbus.Kind(kind)
		copy(d.Event.Sender[:], sender)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Ack deletes a deferred event row once it has been dispatched, so the
// scheduler never re-fires it.
func (r *DeferredRepository) Ack(ctx context.Context, jobID uint64) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM oneshot_deferred_events WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("acking deferred event job %d: %w", jobID, err)
	}
	return nil
}
