package probe

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/models"
	"github.com/watchtowerhq/watchtower/internal/queue"
)

// DefaultTimeout bounds a single probe request.
const DefaultTimeout = 5 * time.Second

// Prober performs timed HTTP health checks and feeds the check buffer.
type Prober struct {
	client        *http.Client
	buffer        queue.CheckBuffer
	logger        *zap.Logger
	defaultRegion string
}

// NewProber creates a Prober. A non-positive timeout falls back to
// DefaultTimeout.
func NewProber(buffer queue.CheckBuffer, timeout time.Duration, defaultRegion string, logger *zap.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		client:        &http.Client{Timeout: timeout},
		buffer:        buffer,
		logger:        logger,
		defaultRegion: defaultRegion,
	}
}

// Probe performs one GET against url and records the outcome. The
// record is always pushed to the check buffer before returning,
// success or failure alike; all failure modes are encoded in the
// record's Status, never raised to the caller.
func (p *Prober) Probe(ctx context.Context, websiteID, url, region string) queue.CheckRecord {
	if region == "" {
		region = p.defaultRegion
	}

	record := queue.CheckRecord{
		WebsiteID: websiteID,
		Status:    models.StatusDown,
		Reigon:    region,
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		record.ResponseTime = int(time.Since(start).Milliseconds())
		record.CheckedAt = time.Now().UnixMilli()
		p.logger.Warn("probe request build failed",
			zap.String("website_id", websiteID),
			zap.String("url", url),
			zap.Error(err))
		p.push(ctx, record)
		return record
	}

	resp, err := p.client.Do(req)
	record.ResponseTime = int(time.Since(start).Milliseconds())
	record.CheckedAt = time.Now().UnixMilli()

	if err != nil {
		// Transport-level failure: timeout, DNS, connection refused.
		// Status code stays 0 and the latency covers time up to the failure.
		p.logger.Info("probe failed",
			zap.String("website_id", websiteID),
			zap.String("url", url),
			zap.String("region", region),
			zap.Error(err))
		p.push(ctx, record)
		return record
	}
	resp.Body.Close()

	record.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		record.Status = models.StatusUp
	}

	p.push(ctx, record)
	return record
}

func (p *Prober) push(ctx context.Context, record queue.CheckRecord) {
	if err := p.buffer.Push(ctx, record); err != nil {
		p.logger.Error("failed to buffer check record",
			zap.String("website_id", record.WebsiteID),
			zap.Error(err))
	}
}
