package alert

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/config"
	"github.com/watchtowerhq/watchtower/internal/queue"
	"github.com/watchtowerhq/watchtower/internal/store"
)

// Evaluator recomputes a website's cumulative error rate and uptime
// from persisted checks and enqueues a notification job when a
// threshold is breached. The metrics cover all retained history, not
// a sliding window.
type Evaluator struct {
	checks store.CheckStore
	emails queue.EmailQueue
	cfg    config.AlertConfig
	logger *zap.Logger

	mu        sync.Mutex
	lastAlert map[string]time.Time

	now func() time.Time
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(checks store.CheckStore, emails queue.EmailQueue, cfg config.AlertConfig, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		checks:    checks,
		emails:    emails,
		cfg:       cfg,
		logger:    logger,
		lastAlert: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Evaluate runs one evaluation cycle for a website. With zero
// persisted checks it returns without alerting. When both thresholds
// breach in the same cycle a single combined job is produced. A
// cooldown window suppresses repeat alerts for the same website; a
// zero cooldown alerts every breaching cycle.
func (e *Evaluator) Evaluate(ctx context.Context, websiteID, ownerEmail, websiteName string) {
	counts, err := e.checks.CountByWebsite(ctx, websiteID)
	if err != nil {
		e.logger.Error("alert evaluation failed to count checks",
			zap.String("website_id", websiteID),
			zap.Error(err))
		return
	}

	if counts.Total == 0 {
		return
	}

	errorRatePct := float64(counts.Total-counts.Up) / float64(counts.Total) * 100
	uptimePct := float64(counts.Up) / float64(counts.Total) * 100

	var conditions []Condition
	if errorRatePct > e.cfg.ErrorRateThreshold {
		conditions = append(conditions, NewHighErrorRateCondition(errorRatePct, e.cfg.ErrorRateThreshold))
	}
	if uptimePct < e.cfg.UptimeThreshold {
		conditions = append(conditions, NewLowUptimeCondition(uptimePct, e.cfg.UptimeThreshold))
	}

	if len(conditions) == 0 {
		e.clearCooldown(websiteID)
		return
	}

	if !e.cooled(websiteID) {
		e.logger.Debug("alert suppressed by cooldown",
			zap.String("website_id", websiteID),
			zap.Duration("cooldown", e.cfg.Cooldown))
		return
	}

	job := RenderAlertEmail(ownerEmail, websiteName, conditions)
	if err := e.emails.Enqueue(ctx, job); err != nil {
		e.logger.Error("failed to enqueue alert email",
			zap.String("website_id", websiteID),
			zap.Error(err))
		return
	}

	e.markAlerted(websiteID)

	e.logger.Info("alert enqueued",
		zap.String("website_id", websiteID),
		zap.String("website", websiteName),
		zap.Float64("error_rate_pct", errorRatePct),
		zap.Float64("uptime_pct", uptimePct),
		zap.Int("conditions", len(conditions)))
}

// cooled reports whether the cooldown window for a website has
// elapsed. A zero cooldown never suppresses.
func (e *Evaluator) cooled(websiteID string) bool {
	if e.cfg.Cooldown <= 0 {
		return true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	last, ok := e.lastAlert[websiteID]
	if !ok {
		return true
	}
	return e.now().Sub(last) >= e.cfg.Cooldown
}

func (e *Evaluator) markAlerted(websiteID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastAlert[websiteID] = e.now()
}

// clearCooldown resets suppression once a website is healthy again,
// so the next breach alerts immediately.
func (e *Evaluator) clearCooldown(websiteID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.lastAlert, websiteID)
}
