package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/metrics"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/notification"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/service"
)

type State string

const (
	StateQueued            State = "queued"
	StateRunning           State = "running"
	StateSucceeded         State = "succeeded"
	StateRetrying          State = "retrying"
	StatePermanentlyFailed State = "permanently_failed"
	StateCanceled          State = "canceled"
)

type Syncer interface {
	Sync(ctx context.Context, syncType models.SyncType, params service.Params) (service.Result, error)
	SyncAllSequentially(ctx context.Context, params service.Params) (service.AllResult, error)
}

type FailureRecorder interface {
	MarkPermanentFailure(ctx context.Context, syncType models.SyncType, jobID string, attempts int, cause error) (*models.SyncLog, error)
}

// Outcome is the terminal state of one job.
type Outcome struct {
	JobID    string
	State    State
	Attempts int
	Results  []service.Result
	Err      error
	Duration time.Duration
}

type Executor struct {
	Syncer   Syncer
	Logs     FailureRecorder
	Notifier notification.Notifier
	Logger   *zap.Logger
	// Tracker, when set, receives every state transition.
	Tracker *Tracker
	// Sleep waits out a backoff delay. Tests replace it to skip real waits.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run drives def through its attempts. Each attempt gets its own timeout; a
// failed attempt is retried after the linear backoff until MaxAttempts is
// reached. Only the final outcome is notified.
func (e *Executor) Run(ctx context.Context, def Definition) Outcome {
	start := time.Now()
	logger := e.logger().With(
		zap.String("job", def.Name),
		zap.String("job_id", def.ID),
		zap.String("sync_type", string(def.SyncType)),
	)
	maxAttempts := def.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		params := def.Params
		params.JobID = def.ID
		params.Attempt = attempt

		e.Tracker.Set(def, StateRunning, attempt, nil)
		logger.Info("job attempt started", zap.Int("attempt", attempt), zap.Int("max_attempts", maxAttempts))
		results, err := e.attempt(ctx, def, params)
		if err == nil {
			metrics.JobAttempts.WithLabelValues(def.Name, "success").Inc()
			out := Outcome{JobID: def.ID, State: StateSucceeded, Attempts: attempt, Results: results, Duration: time.Since(start)}
			logger.Info("job succeeded", zap.Int("attempt", attempt), zap.Duration("elapsed", out.Duration))
			e.Tracker.Set(def, out.State, attempt, nil)
			e.notify(ctx, logger, successMessages(def, out))
			return out
		}
		lastErr = err
		metrics.JobAttempts.WithLabelValues(def.Name, "failure").Inc()

		// Shutdown is not a job failure; the job is abandoned without alerts.
		if ctx.Err() != nil {
			logger.Warn("job canceled", zap.Int("attempt", attempt), zap.Error(err))
			e.Tracker.Set(def, StateCanceled, attempt, err)
			return Outcome{JobID: def.ID, State: StateCanceled, Attempts: attempt, Results: results, Err: err, Duration: time.Since(start)}
		}
		if attempt == maxAttempts {
			break
		}

		delay := def.Backoff(attempt)
		logger.Warn("job attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		e.Tracker.Set(def, StateRetrying, attempt, err)
		if err := e.sleep(ctx, delay); err != nil {
			e.Tracker.Set(def, StateCanceled, attempt, lastErr)
			return Outcome{JobID: def.ID, State: StateCanceled, Attempts: attempt, Err: lastErr, Duration: time.Since(start)}
		}
	}

	out := Outcome{JobID: def.ID, State: StatePermanentlyFailed, Attempts: maxAttempts, Err: lastErr, Duration: time.Since(start)}
	logger.Error("job permanently failed", zap.Int("attempts", maxAttempts), zap.Error(lastErr))
	e.Tracker.Set(def, StatePermanentlyFailed, maxAttempts, lastErr)

	var logID *uint64
	if e.Logs != nil {
		row, err := e.Logs.MarkPermanentFailure(ctx, def.SyncType, def.ID, maxAttempts, lastErr)
		if err != nil {
			logger.Error("record permanent failure", zap.Error(err))
		} else if row != nil {
			id := row.ID
			logID = &id
		}
	}
	e.notify(ctx, logger, failureMessages(def, out, logID))
	return out
}

func (e *Executor) attempt(ctx context.Context, def Definition, params service.Params) ([]service.Result, error) {
	timeout := def.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if def.SyncType == models.SyncTypeAll {
		all, err := e.Syncer.SyncAllSequentially(actx, params)
		return all.Results, attemptErr(actx, err)
	}
	res, err := e.Syncer.Sync(actx, def.SyncType, params)
	return []service.Result{res}, attemptErr(actx, err)
}

// attemptErr reports the timeout explicitly when the attempt deadline was hit,
// whatever error the sync surfaced for it.
func attemptErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("attempt timed out: %w (%w)", context.DeadlineExceeded, err)
	}
	return err
}

func (e *Executor) notify(ctx context.Context, logger *zap.Logger, msgs []notification.Message) {
	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Notify(context.WithoutCancel(ctx), msgs...); err != nil {
		logger.Warn("job notification failed", zap.Error(err))
	}
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Executor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
