package queue

import (
	"context"
	"time"
)

// Queue list keys. These match the wire layout consumed by other
// deployments of the service, so they are not configurable.
const (
	CheckBufferKey = "checks:buffer"
	EmailQueueKey  = "email:queue"
)

// CheckRecord is one probe outcome waiting to be persisted.
// It is produced by the prober and consumed exactly once by the
// flush worker; never mutated in between.
type CheckRecord struct {
	WebsiteID    string `json:"websiteId"`
	StatusCode   int    `json:"statusCode"` // 0 when the request never completed
	ResponseTime int    `json:"responseTime"`
	Status       string `json:"status"`
	CheckedAt    int64  `json:"checkedAt"` // epoch milliseconds
	Reigon       string `json:"reigon"`    // sic
}

// CheckedAtTime converts the epoch-millisecond timestamp to time.Time.
func (r CheckRecord) CheckedAtTime() time.Time {
	return time.UnixMilli(r.CheckedAt).UTC()
}

// EmailJob is a fully rendered outbound message awaiting dispatch.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// CheckBuffer holds check records that have been produced but not yet
// persisted. Many concurrent producers, one draining consumer.
type CheckBuffer interface {
	// Push appends one record to the buffer.
	Push(ctx context.Context, record CheckRecord) error

	// PopBatch removes and returns up to max records. It returns fewer
	// when fewer are buffered and an empty slice when none are. A record
	// is never handed to two callers.
	PopBatch(ctx context.Context, max int) ([]CheckRecord, error)
}

// EmailQueue holds rendered notification jobs awaiting dispatch.
type EmailQueue interface {
	// Enqueue appends one job to the queue.
	Enqueue(ctx context.Context, job EmailJob) error

	// Dequeue removes and returns the oldest job, or nil when the queue
	// is empty.
	Dequeue(ctx context.Context) (*EmailJob, error)
}
