package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestPopBatch_RespectsMax(t *testing.T) {
	q := NewMemoryQueues()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := q.Push(ctx, CheckRecord{WebsiteID: fmt.Sprintf("w%d", i)}); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	batch, err := q.PopBatch(ctx, 3)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("want 3 records, got %d", len(batch))
	}
	if q.Len() != 7 {
		t.Fatalf("want 7 remaining, got %d", q.Len())
	}
}

func TestPopBatch_FewerThanMax(t *testing.T) {
	q := NewMemoryQueues()
	ctx := context.Background()

	q.Push(ctx, CheckRecord{WebsiteID: "only"})

	batch, err := q.PopBatch(ctx, 100)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("want 1 record, got %d", len(batch))
	}

	batch, err = q.PopBatch(ctx, 100)
	if err != nil {
		t.Fatalf("pop empty: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("want empty batch, got %d", len(batch))
	}
}

func TestPopBatch_NoDuplicationUnderConcurrency(t *testing.T) {
	q := NewMemoryQueues()
	ctx := context.Background()

	const total = 1000
	for i := 0; i < total; i++ {
		q.Push(ctx, CheckRecord{WebsiteID: fmt.Sprintf("w%d", i)})
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				batch, err := q.PopBatch(ctx, 17)
				if err != nil {
					t.Errorf("pop: %v", err)
					return
				}
				if len(batch) == 0 {
					return
				}
				mu.Lock()
				for _, r := range batch {
					seen[r.WebsiteID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("want %d distinct records, got %d", total, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("record %s returned %d times", id, n)
		}
	}
}

func TestEmailQueue_FIFO(t *testing.T) {
	q := NewMemoryQueues()
	ctx := context.Background()

	q.Enqueue(ctx, EmailJob{To: "a@example.com", Subject: "first"})
	q.Enqueue(ctx, EmailJob{To: "b@example.com", Subject: "second"})

	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job == nil || job.Subject != "first" {
		t.Fatalf("want first job, got %+v", job)
	}

	job, _ = q.Dequeue(ctx)
	if job == nil || job.Subject != "second" {
		t.Fatalf("want second job, got %+v", job)
	}

	job, err = q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue empty: %v", err)
	}
	if job != nil {
		t.Fatalf("want nil on empty queue, got %+v", job)
	}
}
