package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/examdesk/examdesk/internal/jobs"
)

// idempotencyRetention is how long processed keys stay around. The window
// only needs to outlast any plausible client retry.
const idempotencyRetention = 7 * 24 * time.Hour

// KeyCleaner prunes stale idempotency keys.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyCleanupJob removes idempotency keys older than the retention
// window so the table does not grow without bound.
type IdempotencyCleanupJob struct {
	Store   KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle executes the cleanup.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}

	tracker := j.Metrics.Track(TaskTypeIdempotencyCleanup)
	err := j.Store.Cleanup(ctx, idempotencyRetention)
	err = tracker.End(err)
	if err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("pruned idempotency keys", slog.String("job", TaskTypeIdempotencyCleanup))
	}
	return nil
}
