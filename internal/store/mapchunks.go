package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
	"github.com/rafaelGuerreiro/ikaria/internal/mapstore"
)

// MapChunkRepository implements mapstore.Repository against PostgreSQL,
// indexed by sector for the point-lookup hot path (spec §4.2).
type MapChunkRepository struct {
	db *DB
}

// NewMapChunkRepository builds a MapChunkRepository backed by db.
func NewMapChunkRepository(db *DB) *MapChunkRepository {
	return &MapChunkRepository{db: db}
}

// ExistsAny reports whether any chunk has ever been inserted.
func (r *MapChunkRepository) ExistsAny(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM map_chunks)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking for existing map chunks: %w", err)
	}
	return exists, nil
}

// InsertAll inserts chunks in one batch via pgx's pipelined Batch API.
func (r *MapChunkRepository) InsertAll(ctx context.Context, chunks []mapstore.MapChunk) error {
	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(
			`INSERT INTO map_chunks (map_id, sector_key, x1, y1, x2, y2, z, tile)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.MapID, c.SectorKey, int32(c.Rect.X1), int32(c.Rect.Y1), int32(c.Rect.X2), int32(c.Rect.Y2), int16(c.Rect.Z), int16(c.Tile),
		)
	}
	br := r.db.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range chunks {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("inserting seed chunk batch: %w", err)
		}
	}
	return nil
}

// FindBySector returns every chunk sharing sectorKey.
func (r *MapChunkRepository) FindBySector(ctx context.Context, sectorKey uint64) ([]mapstore.MapChunk, error) {
	rows, err := r.db.pool.Query(ctx,
		`SELECT map_id, sector_key, x1, y1, x2, y2, z, tile FROM map_chunks WHERE sector_key = $1`,
		sectorKey,
	)
	if err != nil {
		return nil, fmt.Errorf("querying chunks for sector %d: %w", sectorKey, err)
	}
	defer rows.Close()

	out := make([]mapstore.MapChunk, 0, 16)
	for rows.Next() {
		var c mapstore.MapChunk
		var x1, y1, x2, y2 int32
		var z, tile int16
		if err := rows.Scan(&c.MapID, &c.SectorKey, &x1, &y1, &x2, &y2, &z, &tile); err != nil {
			return nil, fmt.Errorf("scanning map chunk row: %w", err)
		}
		c.Rect = geometry.NewRect(uint16(x1), uint16(y1), uint16(x2), uint16(y2), uint8(z))
		c.Tile = mapstore.Tile(tile)
		out = append(out, c)
	}
	return out, rows.Err()
}
