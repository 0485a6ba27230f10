package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/store"
)

// Scheduler manages background maintenance jobs
type Scheduler struct {
	cron          *cron.Cron
	checks        store.CheckStore
	retentionDays int
	logger        *zap.Logger
}

// NewScheduler creates a new maintenance job scheduler
func NewScheduler(checks store.CheckStore, retentionDays int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		checks:        checks,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Start registers and starts the jobs
func (s *Scheduler) Start() {
	// Prune checks past the retention window daily at 3:14 AM
	s.cron.AddFunc("14 3 * * *", func() {
		s.pruneOldChecks()
	})

	s.cron.Start()
	s.logger.Info("maintenance scheduler started", zap.Int("retention_days", s.retentionDays))
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("maintenance scheduler stopped")
}

// pruneOldChecks removes checks older than the retention window
func (s *Scheduler) pruneOldChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)

	removed, err := s.checks.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to prune old checks", zap.Error(err))
		return
	}

	s.logger.Info("pruned old checks",
		zap.Int64("removed", removed),
		zap.Time("cutoff", cutoff))
}
