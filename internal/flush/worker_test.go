package flush

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/models"
	"github.com/watchtowerhq/watchtower/internal/queue"
	"github.com/watchtowerhq/watchtower/internal/store"
)

func record(websiteID string, status string, checkedAt time.Time) queue.CheckRecord {
	return queue.CheckRecord{
		WebsiteID:    websiteID,
		StatusCode:   200,
		ResponseTime: 42,
		Status:       status,
		CheckedAt:    checkedAt.UnixMilli(),
		Reigon:       "US_EAST_1",
	}
}

func newWorker(q *queue.MemoryQueues, mem *store.Memory) *Worker {
	return NewWorker(q, mem.Websites(), mem.Checks(), nil, time.Minute, 100, zap.NewNop())
}

func TestFlushOnce_EmptyBufferWritesNothing(t *testing.T) {
	q := queue.NewMemoryQueues()
	mem := store.NewMemory()

	newWorker(q, mem).FlushOnce(context.Background())

	counts, _ := mem.Checks().CountByWebsite(context.Background(), "w1")
	if counts.Total != 0 {
		t.Fatalf("want zero writes on empty buffer, got %d", counts.Total)
	}
}

func TestFlushOnce_PersistsResolvedRecords(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueues()
	mem := store.NewMemory()

	mem.AddWebsite(ctx, &models.Website{ID: "w1", UserID: "u1", Name: "example", URL: "http://example.com"})

	now := time.Now().Truncate(time.Millisecond)
	q.Push(ctx, record("w1", models.StatusUp, now))
	q.Push(ctx, record("w1", models.StatusDown, now.Add(time.Second)))

	newWorker(q, mem).FlushOnce(ctx)

	counts, err := mem.Checks().CountByWebsite(ctx, "w1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts.Total != 2 || counts.Up != 1 {
		t.Fatalf("want total=2 up=1, got total=%d up=%d", counts.Total, counts.Up)
	}

	latest, err := mem.Checks().Latest(ctx, "w1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.UserID != "u1" {
		t.Fatalf("want owner resolved to u1, got %q", latest.UserID)
	}
	if q.Len() != 0 {
		t.Fatalf("want buffer drained, got %d", q.Len())
	}
}

func TestFlushOnce_UnresolvableRecordDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueues()
	mem := store.NewMemory()

	mem.AddWebsite(ctx, &models.Website{ID: "known", UserID: "u1", Name: "known", URL: "http://example.com"})

	now := time.Now()
	q.Push(ctx, record("known", models.StatusUp, now))
	q.Push(ctx, record("ghost", models.StatusUp, now.Add(time.Second)))
	q.Push(ctx, record("known", models.StatusUp, now.Add(2*time.Second)))

	newWorker(q, mem).FlushOnce(ctx)

	known, _ := mem.Checks().CountByWebsite(ctx, "known")
	if known.Total != 2 {
		t.Fatalf("want 2 persisted for known website, got %d", known.Total)
	}
	ghost, _ := mem.Checks().CountByWebsite(ctx, "ghost")
	if ghost.Total != 0 {
		t.Fatalf("orphaned record must not be persisted, got %d", ghost.Total)
	}
}

func TestFlushOnce_RespectsBatchSize(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueues()
	mem := store.NewMemory()
	mem.AddWebsite(ctx, &models.Website{ID: "w1", UserID: "u1", Name: "example", URL: "http://example.com"})

	now := time.Now()
	for i := 0; i < 150; i++ {
		q.Push(ctx, record("w1", models.StatusUp, now.Add(time.Duration(i)*time.Second)))
	}

	w := NewWorker(q, mem.Websites(), mem.Checks(), nil, time.Minute, 100, zap.NewNop())

	w.FlushOnce(ctx)
	counts, _ := mem.Checks().CountByWebsite(ctx, "w1")
	if counts.Total != 100 {
		t.Fatalf("want first cycle capped at 100, got %d", counts.Total)
	}
	if q.Len() != 50 {
		t.Fatalf("want 50 left buffered, got %d", q.Len())
	}

	w.FlushOnce(ctx)
	counts, _ = mem.Checks().CountByWebsite(ctx, "w1")
	if counts.Total != 150 {
		t.Fatalf("want all persisted after second cycle, got %d", counts.Total)
	}
}

func TestFlushOnce_DuplicatesSkippedNotFatal(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueues()
	mem := store.NewMemory()
	mem.AddWebsite(ctx, &models.Website{ID: "w1", UserID: "u1", Name: "example", URL: "http://example.com"})

	at := time.Now().Truncate(time.Second)
	q.Push(ctx, record("w1", models.StatusUp, at))
	q.Push(ctx, record("w1", models.StatusUp, at)) // same (website, region, timestamp)
	q.Push(ctx, record("w1", models.StatusDown, at.Add(time.Second)))

	newWorker(q, mem).FlushOnce(ctx)

	counts, _ := mem.Checks().CountByWebsite(ctx, "w1")
	if counts.Total != 2 {
		t.Fatalf("want duplicate skipped, got %d persisted", counts.Total)
	}
}

type failingCheckStore struct {
	store.CheckStore
	failures int
}

func (f *failingCheckStore) InsertBatch(ctx context.Context, checks []models.Check) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("storage unavailable")
	}
	return f.CheckStore.InsertBatch(ctx, checks)
}

func TestFlushOnce_StorageFailureDoesNotCrashNextCycle(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMemoryQueues()
	mem := store.NewMemory()
	mem.AddWebsite(ctx, &models.Website{ID: "w1", UserID: "u1", Name: "example", URL: "http://example.com"})

	checks := &failingCheckStore{CheckStore: mem.Checks(), failures: 1}
	w := NewWorker(q, mem.Websites(), checks, nil, time.Minute, 100, zap.NewNop())

	now := time.Now()
	q.Push(ctx, record("w1", models.StatusUp, now))

	// First cycle: insert fails, batch is dropped.
	w.FlushOnce(ctx)
	counts, _ := mem.Checks().CountByWebsite(ctx, "w1")
	if counts.Total != 0 {
		t.Fatalf("failed batch must not persist, got %d", counts.Total)
	}

	// Next cycle proceeds normally with fresh records.
	q.Push(ctx, record("w1", models.StatusUp, now.Add(time.Second)))
	w.FlushOnce(ctx)
	counts, _ = mem.Checks().CountByWebsite(ctx, "w1")
	if counts.Total != 1 {
		t.Fatalf("want next cycle to persist, got %d", counts.Total)
	}
}
