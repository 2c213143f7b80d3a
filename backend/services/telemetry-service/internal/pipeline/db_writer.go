package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fleetconsole/backend/libs/telemetry/models"
	"fleetconsole/backend/services/telemetry-service/internal/metrics"
)

// BatchInserter persists a batch of samples and reports how many were new.
type BatchInserter interface {
	BatchInsert(ctx context.Context, samples []models.PositionSample) (int64, error)
}

type DBWriter struct {
	ch         <-chan models.PositionSample
	db         BatchInserter
	batchSize  int
	flushEvery time.Duration
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewDBWriter(
	ch <-chan models.PositionSample,
	db BatchInserter,
	batchSize int,
	flushEvery time.Duration,
	logger *zap.Logger,
) *DBWriter {
	if batchSize <= 0 {
		batchSize = 500
	}
	if flushEvery <= 0 {
		flushEvery = time.Second
	}
	return &DBWriter{
		ch:         ch,
		db:         db,
		batchSize:  batchSize,
		flushEvery: flushEvery,
		retryDelay: 500 * time.Millisecond,
		logger:     logger,
	}
}

// Run batches samples until the channel closes or ctx is cancelled; pending
// samples are flushed on the way out.
func (w *DBWriter) Run(ctx context.Context) {
	batch := make([]models.PositionSample, 0, w.batchSize)
	ticker := time.NewTicker(w.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case sample, ok := <-w.ch:
			if !ok {
				if len(batch) > 0 {
					w.flush(context.WithoutCancel(ctx), batch)
				}
				return
			}
			batch = append(batch, sample)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			if len(batch) > 0 {
				w.flush(context.WithoutCancel(ctx), batch)
			}
			return
		}
	}
}

func (w *DBWriter) flush(ctx context.Context, batch []models.PositionSample) {
	inserted, err := w.db.BatchInsert(ctx, batch)
	if err != nil {
		w.logger.Warn("position write failed, retrying", zap.Int("batch", len(batch)), zap.Error(err))
		time.Sleep(w.retryDelay)
		inserted, err = w.db.BatchInsert(ctx, batch)
		if err != nil {
			w.logger.Error("position write permanently failed", zap.Int("batch", len(batch)), zap.Error(err))
			metrics.DBWriteFailures.Add(int64(len(batch)))
			return
		}
	}
	metrics.DBWriteSuccess.Add(inserted)
	if skipped := int64(len(batch)) - inserted; skipped > 0 {
		w.logger.Debug("duplicate positions skipped", zap.Int64("skipped", skipped))
		metrics.DBDuplicateSkips.Add(skipped)
	}
}
