package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/queue"
)

// Prober performs one health check and buffers its result.
type Prober interface {
	Probe(ctx context.Context, websiteID, url, region string) queue.CheckRecord
}

// Evaluator recomputes alert metrics for one website and enqueues
// notification jobs when thresholds are breached.
type Evaluator interface {
	Evaluate(ctx context.Context, websiteID, ownerEmail, websiteName string)
}

// Scheduler owns one independent repeating probe timer per monitored
// website, plus a slower per-website evaluation timer. Jobs are keyed
// by website ID; starting a website that is already monitored replaces
// its job rather than spawning a duplicate.
type Scheduler struct {
	prober           Prober
	evaluator        Evaluator
	evaluateInterval time.Duration
	logger           *zap.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	websiteID   string
	url         string
	region      string
	ownerEmail  string
	websiteName string
	interval    time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Scheduler.
func New(prober Prober, evaluator Evaluator, evaluateInterval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		prober:           prober,
		evaluator:        evaluator,
		evaluateInterval: evaluateInterval,
		logger:           logger,
		jobs:             make(map[string]*job),
	}
}

// Start begins monitoring a website: an immediate probe, then one
// probe every interval, and an evaluation pass every evaluateInterval.
// Starting an already-monitored website cancels and replaces the
// existing job, so at most one timer ever runs per website.
func (s *Scheduler) Start(websiteID, url, region string, interval time.Duration, ownerEmail, websiteName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[websiteID]; ok {
		existing.cancel()
		<-existing.done
		delete(s.jobs, websiteID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		websiteID:   websiteID,
		url:         url,
		region:      region,
		ownerEmail:  ownerEmail,
		websiteName: websiteName,
		interval:    interval,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	s.jobs[websiteID] = j

	go s.run(ctx, j)

	s.logger.Info("started monitoring",
		zap.String("website_id", websiteID),
		zap.String("website", websiteName),
		zap.Duration("interval", interval))
}

// run drives one website's timers until cancellation. Probes are
// fired on their own goroutines so a hanging request never delays the
// next tick or any other website.
func (s *Scheduler) run(ctx context.Context, j *job) {
	defer close(j.done)

	probeTicker := time.NewTicker(j.interval)
	defer probeTicker.Stop()

	evalTicker := time.NewTicker(s.evaluateInterval)
	defer evalTicker.Stop()

	// First probe fires immediately.
	go s.prober.Probe(ctx, j.websiteID, j.url, j.region)

	for {
		select {
		case <-ctx.Done():
			return
		case <-probeTicker.C:
			go s.prober.Probe(ctx, j.websiteID, j.url, j.region)
		case <-evalTicker.C:
			go s.evaluator.Evaluate(ctx, j.websiteID, j.ownerEmail, j.websiteName)
		}
	}
}

// Stop cancels the monitoring job for a website. It is a no-op when
// the website is not monitored.
func (s *Scheduler) Stop(websiteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[websiteID]; ok {
		j.cancel()
		<-j.done
		delete(s.jobs, websiteID)
		s.logger.Info("stopped monitoring", zap.String("website_id", websiteID))
	}
}

// StopAll cancels every monitoring job.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, j := range s.jobs {
		j.cancel()
		<-j.done
		delete(s.jobs, id)
	}

	s.logger.Info("all monitoring jobs stopped")
}

// Monitoring reports whether a website currently has an active job.
func (s *Scheduler) Monitoring(websiteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[websiteID]
	return ok
}

// Count returns the number of active jobs.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
