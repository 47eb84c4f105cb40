package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/redmonkez12/anonify/internal/logging"
)

// Purger deletes unverified accounts whose code expired before cutoff.
type Purger interface {
	PurgeUnverified(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeRecorder counts purged accounts. A nil PurgeRecorder is allowed.
type PurgeRecorder interface {
	AccountsPurged(n int64)
}

// PurgeUnverifiedJob removes signups that were never verified once their
// code has been expired for longer than olderThan.
type PurgeUnverifiedJob struct {
	store     Purger
	olderThan time.Duration
	timeout   time.Duration
	logger    *logging.Logger
	recorder  PurgeRecorder
	now       func() time.Time
}

func NewPurgeUnverifiedJob(store Purger, olderThan time.Duration, logger *logging.Logger, recorder PurgeRecorder) *PurgeUnverifiedJob {
	return &PurgeUnverifiedJob{
		store:     store,
		olderThan: olderThan,
		timeout:   time.Minute,
		logger:    logger,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Run implements cron.Job.
func (j *PurgeUnverifiedJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.RunContext(ctx); err != nil {
		j.logger.Error("purge unverified accounts failed", "error", err)
	}
}

// RunContext performs one purge and returns the number of removed accounts.
func (j *PurgeUnverifiedJob) RunContext(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.olderThan)

	n, err := j.store.PurgeUnverified(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge unverified accounts: %w", err)
	}

	if j.recorder != nil {
		j.recorder.AccountsPurged(n)
	}
	if n > 0 {
		j.logger.Info("purged unverified accounts", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
