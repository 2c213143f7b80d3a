package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"fleetconsole/backend/libs/telemetry/models"
)

// TxStarter is the part of pgxpool.Pool used for bulk inserts.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const stagingTable = "positions_staging"

var positionColumns = []string{
	"id",
	"device_id",
	"latitude",
	"longitude",
	"speed",
	"accel_x",
	"accel_y",
	"accel_z",
	"pitch",
	"roll",
	"created_at",
}

var (
	createStagingSQL = `CREATE TEMP TABLE ` + stagingTable + ` (LIKE vehicle_positions INCLUDING DEFAULTS) ON COMMIT DROP`
	mergeStagingSQL  = `INSERT INTO vehicle_positions (` + strings.Join(positionColumns, ", ") + `)
		SELECT ` + strings.Join(positionColumns, ", ") + ` FROM ` + stagingTable + `
		ON CONFLICT (id) DO NOTHING`
)

// PositionWriter bulk inserts samples. Rows are COPYed into a transaction
// scoped staging table and merged with ON CONFLICT DO NOTHING, so a
// redelivered sample id is skipped instead of failing the whole batch.
type PositionWriter struct {
	pool TxStarter
}

// NewPositionWriter returns writer.
func NewPositionWriter(pool TxStarter) *PositionWriter {
	return &PositionWriter{pool: pool}
}

// BatchInsert stores the batch in vehicle_positions and returns how many rows were new.
func (w *PositionWriter) BatchInsert(ctx context.Context, samples []models.PositionSample) (int64, error) {
	samples = uniqueByID(samples)
	if len(samples) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, len(samples))
	for i, s := range samples {
		rows[i] = []interface{}{
			s.ID,
			s.DeviceID,
			s.Latitude,
			s.Longitude,
			s.Speed,
			s.AccelX,
			s.AccelY,
			s.AccelZ,
			s.Pitch,
			s.Roll,
			s.CreatedAt,
		}
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("copy positions: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createStagingSQL); err != nil {
		return 0, fmt.Errorf("copy positions: staging table: %w", err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stagingTable}, positionColumns, pgx.CopyFromRows(rows)); err != nil {
		return 0, fmt.Errorf("copy positions (batch=%d): %w", len(samples), err)
	}
	tag, err := tx.Exec(ctx, mergeStagingSQL)
	if err != nil {
		return 0, fmt.Errorf("copy positions: merge: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("copy positions: commit: %w", err)
	}
	return tag.RowsAffected(), nil
}

// uniqueByID keeps the first sample for every id.
func uniqueByID(samples []models.PositionSample) []models.PositionSample {
	seen := make(map[string]struct{}, len(samples))
	out := samples[:0:0]
	for _, s := range samples {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}
