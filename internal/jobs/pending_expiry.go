// Package jobs holds the scheduled background work of the service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const runTimeout = 2 * time.Minute

// StalePendingExpirer is satisfied by *application.BookingService.
type StalePendingExpirer interface {
	ExpireStalePending(ctx context.Context) (int, error)
}

// PendingExpiryJob periodically cancels PENDING bookings whose check-in day has passed.
type PendingExpiryJob struct {
	cron    *cron.Cron
	service StalePendingExpirer
	logger  *zap.Logger
}

// NewPendingExpiryJob schedules the job with a standard five-field cron spec or a descriptor such as "@hourly".
func NewPendingExpiryJob(schedule string, service StalePendingExpirer, logger *zap.Logger) (*PendingExpiryJob, error) {
	j := &PendingExpiryJob{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		service: service,
		logger:  logger,
	}
	if _, err := j.cron.AddFunc(schedule, j.tick); err != nil {
		return nil, fmt.Errorf("invalid pending expiry schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start runs the scheduler in its own goroutine.
func (j *PendingExpiryJob) Start() {
	j.cron.Start()
	j.logger.Info("pending expiry job scheduled")
}

// Stop halts the scheduler and waits for a running pass to finish or ctx to end.
func (j *PendingExpiryJob) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Run performs one expiry pass.
func (j *PendingExpiryJob) Run(ctx context.Context) (int, error) {
	n, err := j.service.ExpireStalePending(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.Info("expired stale pending bookings", zap.Int("count", n))
	}
	return n, nil
}

func (j *PendingExpiryJob) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if _, err := j.Run(ctx); err != nil {
		j.logger.Error("pending expiry run failed", zap.Error(err))
	}
}
