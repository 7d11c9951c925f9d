package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skillreg/registry/internal/datastore"
	"github.com/skillreg/registry/internal/dcontext"
)

// pendingGracePeriod is how old a pending job must be before startup
// recovery re-enqueues it.
const pendingGracePeriod = 2 * time.Minute

// Runner drives the pg_notify listen loop: one Runner per worker process.
type Runner struct {
	DB       *datastore.DB
	Pipeline *Pipeline
	DSN      string
}

// Run connects the listener, performs startup recovery, then blocks
// dispatching claimed jobs until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	logger := dcontext.GetLogger(ctx)

	listener, err := datastore.NewListener(r.DSN)
	if err != nil {
		return err
	}
	defer listener.Close()

	if err := r.reconcilePending(ctx); err != nil {
		logger.Warnf("startup recovery failed: %s", err)
	}

	logger.Info("worker listening on vetting_jobs channel")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notification := <-listener.Notifications():
			if notification == nil {
				continue
			}
			jobID, err := uuid.Parse(notification.Extra)
			if err != nil {
				logger.Errorf("invalid job_id payload %q: %s", notification.Extra, err)
				continue
			}
			go r.dispatch(ctx, jobID)
		}
	}
}

// reconcilePending scans for stale pending jobs at startup and
// re-notifies for each, reconciling jobs whose original notification was
// lost (listener not yet connected, crashed consumer, etc.) — the
// recovery path the pipeline's original design called for but deferred.
func (r *Runner) reconcilePending(ctx context.Context) error {
	stale, err := r.DB.PendingJobsOlderThan(ctx, pendingGracePeriod)
	if err != nil {
		return err
	}
	logger := dcontext.GetLogger(ctx)
	for _, jobID := range stale {
		logger.Infof("startup recovery re-enqueuing stale pending job %s", jobID)
		if err := r.DB.Notify(ctx, jobID); err != nil {
			return err
		}
	}
	return nil
}

// dispatch acquires the advisory lock for jobID and, if successful, runs
// the pipeline. Losing the lock race or finding the job already terminal
// is not an error — another worker owns it, or already finished it.
func (r *Runner) dispatch(ctx context.Context, jobID uuid.UUID) {
	ctx, done := dcontext.WithTrace(ctx)
	defer done("job %s dispatch complete", jobID)

	logger := dcontext.GetLogger(ctx)

	locked, err := r.DB.TryAdvisoryLock(ctx, jobID)
	if err != nil {
		logger.Errorf("job %s: acquiring advisory lock: %s", jobID, err)
		return
	}
	if !locked {
		logger.Infof("job %s already being processed, skipping", jobID)
		return
	}
	defer func() {
		if err := r.DB.AdvisoryUnlock(ctx, jobID); err != nil {
			logger.Errorf("job %s: releasing advisory lock: %s", jobID, err)
		}
	}()

	status, err := r.DB.JobStatusOf(ctx, jobID)
	if err != nil {
		logger.Errorf("job %s: fetching status: %s", jobID, err)
		return
	}
	if status != datastore.JobPending {
		return
	}

	logger.Infof("processing job %s", jobID)
	if err := r.Pipeline.Run(ctx, jobID); err != nil {
		logger.Errorf("job %s: pipeline run: %s", jobID, err)
	}
}
