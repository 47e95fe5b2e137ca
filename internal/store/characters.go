package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rafaelGuerreiro/ikaria/internal/characters"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
)

const uniqueViolation = "23505"

// CharacterRepository implements characters.Repository against PostgreSQL.
type CharacterRepository struct {
	db *DB
}

// NewCharacterRepository builds a CharacterRepository backed by db.
func NewCharacterRepository(db *DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// InsertUnique assigns c.CharacterID and inserts c, or returns
// characters.ErrNameTaken if c.Name already exists.
func (r *CharacterRepository) InsertUnique(ctx context.Context, c *characters.Character) error {
	err := r.db.pool.QueryRow(ctx,
		`INSERT INTO characters (user_id, name, display_name, race, class, gender, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING character_id`,
		c.UserID[:], c.Name, c.DisplayName, int16(c.Race), int16(c.Class), int16(c.Gender), c.CreatedAt,
	).Scan(&c.CharacterID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &characters.ErrNameTaken{Name: c.Name}
		}
		return fmt.Errorf("inserting character %q: %w", c.Name, err)
	}
	return nil
}

// GetByID loads a character by id, or nil if absent.
func (r *CharacterRepository) GetByID(ctx context.Context, id uint64) (*characters.Character, error) {
	var c characters.Character
	var userID []byte
	var race, class, gender int16
	err := r.db.pool.QueryRow(ctx,
		`SELECT character_id, user_id, name, display_name, race, class, gender, created_at
		 FROM characters WHERE character_id = $1`, id,
	).Scan(&c.CharacterID, &userID, &c.Name, &c.DisplayName, &race, &class, &gender, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying character %d: %w", id, err)
	}
	copy(c.UserID[:], userID)
	c.Race, c.Class, c.Gender = characters.Race(race), characters.Class(class), characters.Gender(gender)
	return &c, nil
}

// GetAllByUserID loads every character owned by userID.
func (r *CharacterRepository) GetAllByUserID(ctx context.Context, userID validate.Identity) ([]*characters.Character, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT character_id, user_id, name, display_name, race, class, gender, created_at
		 FROM characters WHERE user_id = $1 ORDER BY created_at ASC`, userID[:],
	)
	if err != nil {
		return nil, fmt.Errorf("querying characters for user: %w", err)
	}
	defer rows.Close()

	out := make([]*characters.Character, 0, 8)
	for rows.Next() {
		var c characters.Character
		var uid []byte
		var race, class, gender int16
		if err := rows.Scan(&c.CharacterID, &uid, &c.Name, &c.DisplayName, &race, &class, &gender, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		copy(c.UserID[:], uid)
		c.Race, c.Class, c.Gender = characters.Race(race), characters.Class(class), characters.Gender(gender)
		out = append(out, &c)
	}
	return out, rows.Err()
}

// StatsRepository implements characters.StatsRepository against PostgreSQL.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository builds a StatsRepository backed by db.
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// InsertDefaults inserts s, or returns characters.ErrStatsConflict if a row
// for s.CharacterID already exists.
func (r *StatsRepository) InsertDefaults(ctx context.Context, s *characters.Stats) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO character_stats
		   (character_id, user_id, level, experience, health, mana, capacity, speed, attack_speed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.CharacterID, s.UserID[:], s.Level, s.Experience, s.Health, s.Mana, s.Capacity, s.Speed, s.AttackSpeed,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &characters.ErrStatsConflict{CharacterID: s.CharacterID}
		}
		return fmt.Errorf("inserting stats for character %d: %w", s.CharacterID, err)
	}
	return nil
}

// GetByCharacterID loads stats by character id, or nil if absent.
func (r *StatsRepository) GetByCharacterID(ctx context.Context, id uint64) (*characters.Stats, error) {
	var s characters.Stats
	var userID []byte
	err := r.db.pool.QueryRow(ctx,
		`SELECT character_id, user_id, level, experience, health, mana, capacity, speed, attack_speed
		 FROM character_stats WHERE character_id = $1`, id,
	).Scan(&s.CharacterID, &userID, &s.Level, &s.Experience, &s.Health, &s.Mana, &s.Capacity, &s.Speed, &s.AttackSpeed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying stats for character %d: %w", id, err)
	}
	copy(s.UserID[:], userID)
	return &s, nil
}

// GetAllByUserID loads stats for every character owned by userID.
func (r *StatsRepository) GetAllByUserID(ctx context.Context, userID validate.Identity) ([]*characters.Stats, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT character_id, user_id, level, experience, health, mana, capacity, speed, attack_speed
		 FROM character_stats WHERE user_id = $1`, userID[:],
	)
	if err != nil {
		return nil, fmt.Errorf("querying stats for user: %w", err)
	}
	defer rows.Close()

	out := make([]*characters.Stats, 0, 8)
	for rows.Next() {
		var s characters.Stats
		var uid []byte
		if err := rows.Scan(&s.CharacterID, &uid, &s.Level, &s.Experience, &s.Health, &s.Mana, &s.Capacity, &s.Speed, &s.AttackSpeed); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		copy(s.UserID[:], uid)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// OnlineRepository implements characters.OnlineRepository against
// PostgreSQL: at most one row per UserID.
type OnlineRepository struct {
	db *DB
}

// NewOnlineRepository builds an OnlineRepository backed by db.
func NewOnlineRepository(db *DB) *OnlineRepository {
	return &OnlineRepository{db: db}
}

// Upsert sets userID's selected character.
func (r *OnlineRepository) Upsert(ctx context.Context, userID validate.Identity, characterID uint64, signedInAt time.Time) error {
	_, err := r.db.pool.Exec(ctx,
		`INSERT INTO online_characters (user_id, character_id, signed_in_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET character_id = $2, signed_in_at = $3`,
		userID[:], characterID, signedInAt,
	)
	if err != nil {
		return fmt.Errorf("upserting online character: %w", err)
	}
	return nil
}

// Get returns userID's online character row, or nil if signed out.
func (r *OnlineRepository) Get(ctx context.Context, userID validate.Identity) (*characters.Online, error) {
	var o characters.Online
	var uid []byte
	err := r.db.pool.QueryRow(ctx,
		`SELECT user_id, character_id, signed_in_at FROM online_characters WHERE user_id = $1`,
		userID[:],
	).Scan(&uid, &o.CharacterID, &o.SignedInAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying online character: %w", err)
	}
	copy(o.UserID[:], uid)
	return &o, nil
}

// Delete clears userID's online row.
func (r *OnlineRepository) Delete(ctx context.Context, userID validate.Identity) error {
	_, err := r.db.pool.Exec(ctx, `DELETE FROM online_characters WHERE user_id = $1`, userID[:])
	if err != nil {
		return fmt.Errorf("deleting online character: %w", err)
	}
	return nil
}
