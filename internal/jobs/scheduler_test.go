package jobs

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/models"
	"github.com/watchtowerhq/watchtower/internal/store"
)

func TestPruneOldChecks(t *testing.T) {
	mem := store.NewMemory()
	checks := mem.Checks()

	now := time.Now().UTC()
	err := checks.InsertBatch(context.Background(), []models.Check{
		{WebsiteID: "w1", Status: models.StatusUp, Reigon: "US_EAST_1", CreatedAt: now.AddDate(0, 0, -45)},
		{WebsiteID: "w1", Status: models.StatusUp, Reigon: "US_EAST_1", CreatedAt: now.AddDate(0, 0, -31)},
		{WebsiteID: "w1", Status: models.StatusUp, Reigon: "US_EAST_1", CreatedAt: now.AddDate(0, 0, -5)},
		{WebsiteID: "w1", Status: models.StatusDown, Reigon: "US_EAST_1", CreatedAt: now},
	})
	if err != nil {
		t.Fatalf("seed checks: %v", err)
	}

	s := NewScheduler(checks, 30, zap.NewNop())
	s.pruneOldChecks()

	counts, err := checks.CountByWebsite(context.Background(), "w1")
	if err != nil {
		t.Fatalf("count checks: %v", err)
	}
	if counts.Total != 2 {
		t.Errorf("expected 2 checks inside the retention window, got %d", counts.Total)
	}
}
