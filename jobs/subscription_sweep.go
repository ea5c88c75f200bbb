package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/examdesk/examdesk/internal/jobs"
)

// GateInvalidator drops cached access decisions after a billing change.
type GateInvalidator interface {
	Invalidate(ctx context.Context, orgID int64)
}

// SubscriptionSweepJob retires overdue active subscriptions and
// invalidates the cached access decision for each affected organization.
// Retired rows keep the org denied: the gate only grandfathers orgs with
// no subscription rows at all.
type SubscriptionSweepJob struct {
	Pool    *pgxpool.Pool
	Gate    GateInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSubscriptionSweepJob initialises the sweep handler.
func NewSubscriptionSweepJob(pool *pgxpool.Pool, gate GateInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *SubscriptionSweepJob {
	return &SubscriptionSweepJob{
		Pool:    pool,
		Gate:    gate,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the sweep.
func (j *SubscriptionSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("subscription sweep: handler not configured")
	}

	tracker := j.metrics().Track(TaskTypeSubscriptionSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	rows, err := j.Pool.Query(ctx, `
		UPDATE subscriptions
		SET status = 'inactive', updated_at = NOW()
		WHERE status = 'active' AND end_date < $1
		RETURNING org_id`, j.now())
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer rows.Close()

	counts := map[int64]int{}
	for rows.Next() {
		var orgID int64
		if err := rows.Scan(&orgID); err != nil {
			resultErr = err
			return resultErr
		}
		counts[orgID]++
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	for orgID, n := range counts {
		j.metrics().AddExpirations(orgID, n)
		if j.Gate != nil {
			j.Gate.Invalidate(ctx, orgID)
		}
	}

	if j.Logger != nil && len(counts) > 0 {
		j.Logger.Info("expired overdue subscriptions",
			slog.String("job", TaskTypeSubscriptionSweep),
			slog.Int("organizations", len(counts)))
	}
	return resultErr
}

func (j *SubscriptionSweepJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *SubscriptionSweepJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
