package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/voxtodo/voxtodo/internal/database"
	"github.com/voxtodo/voxtodo/internal/logger"
	"github.com/voxtodo/voxtodo/internal/models"
	"github.com/voxtodo/voxtodo/internal/queue"
	"go.uber.org/zap"
)

// UsageRecorder consumes usage jobs and persists them. Retention: rows
// older than the quota window plus a safety margin are pruned, since
// nothing ever sums past the window.
type UsageRecorder struct {
	usage  *database.TokenUsageRepository
	logger *zap.Logger
}

// usageRetention is how long usage rows are kept before pruning. Longer
// than the quota window so a clock-skewed sum never misses rows.
const usageRetention = models.QuotaWindow + 24*time.Hour

// NewUsageRecorder creates a new usage recorder
func NewUsageRecorder(usage *database.TokenUsageRepository, log *zap.Logger) *UsageRecorder {
	return &UsageRecorder{usage: usage, logger: log}
}

// ProcessJob handles a single usage job.
func (w *UsageRecorder) ProcessJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeUsageRecord:
		return w.processRecord(ctx, job)
	case queue.JobTypeUsagePrune:
		return w.processPrune(ctx)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *UsageRecorder) processRecord(ctx context.Context, job *queue.Job) error {
	if job.Usage == nil {
		return fmt.Errorf("usage payload is required for usage record job")
	}

	if err := w.usage.Record(ctx, job.Usage); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	w.logger.Info("usage_recorded",
		zap.String("principal_id", job.PrincipalID.String()),
		zap.Int64("total_tokens", job.Usage.TotalTokens),
		zap.String("model", job.Usage.Model),
	)
	return nil
}

func (w *UsageRecorder) processPrune(ctx context.Context) error {
	cutoff := time.Now().Add(-usageRetention)
	pruned, err := w.usage.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune usage rows: %w", err)
	}
	if pruned > 0 {
		w.logger.Info("usage_pruned", zap.Int64("rows", pruned))
	}
	return nil
}

// Run consumes jobs until the context is cancelled. Failed jobs are
// retried up to their max retry count, then dead-lettered.
func (w *UsageRecorder) Run(ctx context.Context, jobs queue.JobQueue, prefetch int) error {
	msgs, errs, err := jobs.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case consumeErr, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Error("usage_consume_error", zap.String("error", logger.SanitizeError(consumeErr)))
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handleMessage(ctx, jobs, msg)
		}
	}
}

func (w *UsageRecorder) handleMessage(ctx context.Context, jobs queue.JobQueue, msg *queue.Message) {
	job := msg.Job
	if err := w.ProcessJob(ctx, job); err != nil {
		w.logger.Error("usage_job_failed",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
			zap.String("error", logger.SanitizeError(err)))

		if job.CanRetry() {
			job.IncrementRetry()
			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Error("usage_job_ack_failed", zap.String("error", logger.SanitizeError(ackErr)))
				return
			}
			if enqErr := jobs.Enqueue(ctx, job); enqErr != nil {
				w.logger.Error("usage_job_requeue_failed", zap.String("error", logger.SanitizeError(enqErr)))
			}
			return
		}

		// Out of retries, dead-letter it
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Error("usage_job_nack_failed", zap.String("error", logger.SanitizeError(nackErr)))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		w.logger.Error("usage_job_ack_failed", zap.String("error", logger.SanitizeError(err)))
	}
}
