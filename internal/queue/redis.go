package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisQueues backs both queues with Redis lists. List operations are
// atomic server-side, which is what makes PopBatch safe under a
// concurrent consumer.
type RedisQueues struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisQueues connects to Redis and verifies the connection.
func NewRedisQueues(ctx context.Context, redisURL string, logger *zap.Logger) (*RedisQueues, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisQueues{client: client, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (q *RedisQueues) Close() error {
	return q.client.Close()
}

// Push appends a check record to the checks buffer list.
func (q *RedisQueues) Push(ctx context.Context, record CheckRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode check record: %w", err)
	}

	if err := q.client.RPush(ctx, CheckBufferKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to push check record: %w", err)
	}

	return nil
}

// PopBatch drains up to max records from the head of the buffer.
// Entries that fail to decode are dropped and logged; a corrupt entry
// must never take down the flush cycle.
func (q *RedisQueues) PopBatch(ctx context.Context, max int) ([]CheckRecord, error) {
	if max <= 0 {
		return nil, nil
	}

	raw, err := q.client.LPopCount(ctx, CheckBufferKey, max).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop check records: %w", err)
	}

	records := make([]CheckRecord, 0, len(raw))
	for _, entry := range raw {
		var record CheckRecord
		if err := json.Unmarshal([]byte(entry), &record); err != nil {
			q.logger.Warn("dropping malformed check buffer entry",
				zap.Error(err),
				zap.String("entry", entry))
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// Enqueue appends an email job to the email queue list.
func (q *RedisQueues) Enqueue(ctx context.Context, job EmailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode email job: %w", err)
	}

	if err := q.client.RPush(ctx, EmailQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email job: %w", err)
	}

	return nil
}

// Dequeue removes the oldest email job, returning nil when the queue
// is empty. Malformed entries are dropped and logged.
func (q *RedisQueues) Dequeue(ctx context.Context) (*EmailJob, error) {
	raw, err := q.client.LPop(ctx, EmailQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue email job: %w", err)
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		q.logger.Warn("dropping malformed email queue entry",
			zap.Error(err),
			zap.String("entry", raw))
		return nil, nil
	}

	return &job, nil
}
