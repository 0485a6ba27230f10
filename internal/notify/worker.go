package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/watchtowerhq/watchtower/internal/mailer"
	"github.com/watchtowerhq/watchtower/internal/queue"
)

// DefaultIdleDelay is how long the worker sleeps when the queue is
// empty before polling again.
const DefaultIdleDelay = time.Second

// Worker continuously drains the email queue and dispatches each job
// through the mail transport. A failed dispatch is logged and the job
// is dropped, never re-enqueued; the loop itself runs for the
// lifetime of the process and stops only on context cancellation.
type Worker struct {
	emails    queue.EmailQueue
	transport mailer.Transport
	idleDelay time.Duration
	logger    *zap.Logger
}

// NewWorker creates a notification Worker. A non-positive idleDelay
// falls back to DefaultIdleDelay.
func NewWorker(emails queue.EmailQueue, transport mailer.Transport, idleDelay time.Duration, logger *zap.Logger) *Worker {
	if idleDelay <= 0 {
		idleDelay = DefaultIdleDelay
	}
	return &Worker{
		emails:    emails,
		transport: transport,
		idleDelay: idleDelay,
		logger:    logger,
	}
}

// Run consumes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("notification worker started")

	for {
		if ctx.Err() != nil {
			w.logger.Info("notification worker stopped")
			return
		}

		job, err := w.emails.Dequeue(ctx)
		if err != nil {
			w.logger.Error("failed to dequeue email job", zap.Error(err))
			w.sleep(ctx)
			continue
		}

		if job == nil {
			w.sleep(ctx)
			continue
		}

		if err := w.transport.Send(*job); err != nil {
			// Dropped notification, tolerable loss.
			w.logger.Error("failed to send email",
				zap.String("to", job.To),
				zap.String("subject", job.Subject),
				zap.Error(err))
			continue
		}

		w.logger.Info("email sent",
			zap.String("to", job.To),
			zap.String("subject", job.Subject))
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.idleDelay):
	}
}
