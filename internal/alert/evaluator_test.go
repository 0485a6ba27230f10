package alert

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/config"
	"github.com/watchtowerhq/watchtower/internal/models"
	"github.com/watchtowerhq/watchtower/internal/queue"
	"github.com/watchtowerhq/watchtower/internal/store"
)

func defaultAlertConfig() config.AlertConfig {
	return config.AlertConfig{
		EvaluateInterval:   5 * time.Minute,
		ErrorRateThreshold: 5,
		UptimeThreshold:    90,
		Cooldown:           0,
	}
}

func seedChecks(t *testing.T, mem *store.Memory, websiteID string, up, down int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	var checks []models.Check
	for i := 0; i < up; i++ {
		checks = append(checks, models.Check{
			WebsiteID: websiteID,
			UserID:    "user-1",
			Status:    models.StatusUp,
			Reigon:    "US_EAST_1",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
	}
	for i := 0; i < down; i++ {
		checks = append(checks, models.Check{
			WebsiteID: websiteID,
			UserID:    "user-1",
			Status:    models.StatusDown,
			Reigon:    "US_EAST_1",
			CreatedAt: base.Add(time.Duration(up+i) * time.Second),
		})
	}
	if err := mem.Checks().InsertBatch(context.Background(), checks); err != nil {
		t.Fatalf("seed checks: %v", err)
	}
}

func TestEvaluate_NoChecksNoAlert(t *testing.T) {
	mem := store.NewMemory()
	q := queue.NewMemoryQueues()
	e := NewEvaluator(mem.Checks(), q, defaultAlertConfig(), zap.NewNop())

	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")

	if q.EmailLen() != 0 {
		t.Fatalf("want no alerts with zero checks, got %d", q.EmailLen())
	}
}

func TestEvaluate_HealthyNoAlert(t *testing.T) {
	mem := store.NewMemory()
	q := queue.NewMemoryQueues()
	seedChecks(t, mem, "w1", 100, 0)

	e := NewEvaluator(mem.Checks(), q, defaultAlertConfig(), zap.NewNop())
	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")

	if q.EmailLen() != 0 {
		t.Fatalf("want no alerts for healthy website, got %d", q.EmailLen())
	}
}

func TestEvaluate_HighErrorRateOnly(t *testing.T) {
	// 90 up / 100 total: errorRate=10 (>5), uptime=90 (not <90).
	mem := store.NewMemory()
	q := queue.NewMemoryQueues()
	seedChecks(t, mem, "w1", 90, 10)

	e := NewEvaluator(mem.Checks(), q, defaultAlertConfig(), zap.NewNop())
	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")

	if q.EmailLen() != 1 {
		t.Fatalf("want exactly 1 alert, got %d", q.EmailLen())
	}

	job, _ := q.Dequeue(context.Background())
	if !strings.Contains(job.Subject, "High Error Rate") {
		t.Fatalf("want high-error-rate subject, got %q", job.Subject)
	}
	if strings.Contains(job.Subject, "Low Uptime") {
		t.Fatalf("low-uptime must not fire at exactly 90%% uptime: %q", job.Subject)
	}
	if job.To != "owner@example.com" {
		t.Fatalf("want owner address, got %q", job.To)
	}
}

func TestEvaluate_CombinedAlert(t *testing.T) {
	// 80 up / 100 total breaches both thresholds; exactly one job.
	mem := store.NewMemory()
	q := queue.NewMemoryQueues()
	seedChecks(t, mem, "w1", 80, 20)

	e := NewEvaluator(mem.Checks(), q, defaultAlertConfig(), zap.NewNop())
	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")

	if q.EmailLen() != 1 {
		t.Fatalf("want exactly 1 combined alert, got %d", q.EmailLen())
	}

	job, _ := q.Dequeue(context.Background())
	if !strings.Contains(job.Subject, "High Error Rate") || !strings.Contains(job.Subject, "Low Uptime") {
		t.Fatalf("want combined subject naming both conditions, got %q", job.Subject)
	}
	if !strings.Contains(job.Text, "High Error Rate") || !strings.Contains(job.Text, "Low Uptime") {
		t.Fatalf("want body naming both conditions, got %q", job.Text)
	}
}

func TestEvaluate_ZeroCooldownAlertsEveryCycle(t *testing.T) {
	mem := store.NewMemory()
	q := queue.NewMemoryQueues()
	seedChecks(t, mem, "w1", 50, 50)

	e := NewEvaluator(mem.Checks(), q, defaultAlertConfig(), zap.NewNop())
	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")
	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")

	if q.EmailLen() != 2 {
		t.Fatalf("want 2 alerts with zero cooldown, got %d", q.EmailLen())
	}
}

func TestEvaluate_CooldownSuppressesRepeats(t *testing.T) {
	mem := store.NewMemory()
	q := queue.NewMemoryQueues()
	seedChecks(t, mem, "w1", 50, 50)

	cfg := defaultAlertConfig()
	cfg.Cooldown = 30 * time.Minute

	e := NewEvaluator(mem.Checks(), q, cfg, zap.NewNop())

	current := time.Now()
	e.now = func() time.Time { return current }

	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")
	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")

	if q.EmailLen() != 1 {
		t.Fatalf("want second alert suppressed by cooldown, got %d", q.EmailLen())
	}

	// After the window elapses the next breach alerts again.
	current = current.Add(31 * time.Minute)
	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")

	if q.EmailLen() != 2 {
		t.Fatalf("want alert after cooldown elapsed, got %d", q.EmailLen())
	}
}

func TestEvaluate_RecoveryResetsCooldown(t *testing.T) {
	mem := store.NewMemory()
	q := queue.NewMemoryQueues()
	seedChecks(t, mem, "w1", 0, 10)

	cfg := defaultAlertConfig()
	cfg.Cooldown = time.Hour

	e := NewEvaluator(mem.Checks(), q, cfg, zap.NewNop())

	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")
	if q.EmailLen() != 1 {
		t.Fatalf("want initial alert, got %d", q.EmailLen())
	}

	// Flood with healthy checks until both metrics recover.
	seedChecks(t, mem, "w1", 990, 0)
	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")
	if q.EmailLen() != 1 {
		t.Fatalf("healthy cycle must not alert, got %d", q.EmailLen())
	}

	// A fresh breach alerts immediately despite the hour-long cooldown,
	// because recovery cleared the suppression state.
	seedChecks(t, mem, "w1", 0, 5000)
	e.Evaluate(context.Background(), "w1", "owner@example.com", "example")
	if q.EmailLen() != 2 {
		t.Fatalf("want immediate alert after recovery, got %d", q.EmailLen())
	}
}
