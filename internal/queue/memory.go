package queue

import (
	"context"
	"sync"
)

// MemoryQueues is an in-process implementation of both queues. It
// backs tests and single-node development runs where Redis is not
// available; it is not durable across restarts.
type MemoryQueues struct {
	mu     sync.Mutex
	checks []CheckRecord
	emails []EmailJob
}

// NewMemoryQueues creates empty in-memory queues.
func NewMemoryQueues() *MemoryQueues {
	return &MemoryQueues{
		checks: make([]CheckRecord, 0, 128),
		emails: make([]EmailJob, 0, 16),
	}
}

func (q *MemoryQueues) Push(ctx context.Context, record CheckRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.checks = append(q.checks, record)
	return nil
}

func (q *MemoryQueues) PopBatch(ctx context.Context, max int) ([]CheckRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if max <= 0 || len(q.checks) == 0 {
		return nil, nil
	}

	n := max
	if n > len(q.checks) {
		n = len(q.checks)
	}

	batch := make([]CheckRecord, n)
	copy(batch, q.checks[:n])
	q.checks = q.checks[n:]

	return batch, nil
}

func (q *MemoryQueues) Enqueue(ctx context.Context, job EmailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.emails = append(q.emails, job)
	return nil
}

func (q *MemoryQueues) Dequeue(ctx context.Context) (*EmailJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.emails) == 0 {
		return nil, nil
	}

	job := q.emails[0]
	q.emails = q.emails[1:]

	return &job, nil
}

// Len reports the buffered check count. Test helper.
func (q *MemoryQueues) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.checks)
}

// EmailLen reports the queued email count. Test helper.
func (q *MemoryQueues) EmailLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.emails)
}
