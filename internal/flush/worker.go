package flush

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/models"
	"github.com/watchtowerhq/watchtower/internal/queue"
	"github.com/watchtowerhq/watchtower/internal/store"
)

// Broadcaster pushes persisted checks to connected dashboard clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Worker drains the check buffer on a fixed cadence and batch-inserts
// the records into the checks store with their resolved owners.
//
// Records are popped before the insert is confirmed, so a crash
// between pop and persist loses that batch: at-most-once, by contract.
type Worker struct {
	buffer      queue.CheckBuffer
	websites    store.WebsiteStore
	checks      store.CheckStore
	broadcaster Broadcaster
	interval    time.Duration
	batchSize   int
	logger      *zap.Logger
}

// NewWorker creates a flush Worker. broadcaster may be nil.
func NewWorker(buffer queue.CheckBuffer, websites store.WebsiteStore, checks store.CheckStore,
	broadcaster Broadcaster, interval time.Duration, batchSize int, logger *zap.Logger) *Worker {
	return &Worker{
		buffer:      buffer,
		websites:    websites,
		checks:      checks,
		broadcaster: broadcaster,
		interval:    interval,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// Run flushes on every tick until ctx is cancelled. A failed cycle is
// logged and the next cycle proceeds normally; no error ever
// propagates out of the loop.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("flush worker started",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("flush worker stopped")
			return
		case <-ticker.C:
			w.FlushOnce(ctx)
		}
	}
}

// FlushOnce performs a single flush cycle.
func (w *Worker) FlushOnce(ctx context.Context) {
	records, err := w.buffer.PopBatch(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("flush failed to drain buffer", zap.Error(err))
		return
	}

	if len(records) == 0 {
		return
	}

	checks := make([]models.Check, 0, len(records))
	dropped := 0

	for _, record := range records {
		userID, err := w.websites.OwnerOf(ctx, record.WebsiteID)
		if err != nil {
			// Unknown website: drop rather than persist orphaned data.
			// Not retried, the record is gone.
			dropped++
			if errors.Is(err, store.ErrNotFound) {
				w.logger.Warn("dropping check for unknown website",
					zap.String("website_id", record.WebsiteID))
			} else {
				w.logger.Error("dropping check after owner lookup failure",
					zap.String("website_id", record.WebsiteID),
					zap.Error(err))
			}
			continue
		}

		checks = append(checks, models.Check{
			WebsiteID:    record.WebsiteID,
			UserID:       userID,
			StatusCode:   record.StatusCode,
			ResponseTime: record.ResponseTime,
			Status:       record.Status,
			Reigon:       record.Reigon,
			CreatedAt:    record.CheckedAtTime(),
		})
	}

	if len(checks) == 0 {
		if dropped > 0 {
			w.logger.Warn("flush cycle dropped entire batch", zap.Int("dropped", dropped))
		}
		return
	}

	if err := w.checks.InsertBatch(ctx, checks); err != nil {
		// The whole batch is lost for this cycle; the next cycle is
		// unaffected.
		w.logger.Error("flush failed to persist batch",
			zap.Int("batch", len(checks)),
			zap.Error(err))
		return
	}

	if w.broadcaster != nil {
		if err := w.broadcaster.Broadcast("checks", checks); err != nil {
			w.logger.Warn("failed to broadcast persisted checks", zap.Error(err))
		}
	}

	w.logger.Info("flushed checks",
		zap.Int("persisted", len(checks)),
		zap.Int("dropped", dropped))
}
