// Package cron runs scheduled jobs on robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	robfig "github.com/robfig/cron/v3"

	"venuebook/internal/app/schedule"
)

// Runner schedules jobs with standard five-field specs or descriptors such as "@every 15m".
// Overlapping runs of the same job are skipped.
type Runner struct {
	cron    *robfig.Cron
	logger  *slog.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRunner(logger *slog.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cron: robfig.New(
			robfig.WithLocation(time.UTC),
			robfig.WithChain(robfig.Recover(robfig.DiscardLogger), robfig.SkipIfStillRunning(robfig.DiscardLogger)),
		),
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (r *Runner) Schedule(spec string, job schedule.Job) error {
	if _, err := r.cron.AddFunc(spec, func() { r.run(job) }); err != nil {
		return fmt.Errorf("cron: schedule %s %q: %w", job.Name(), spec, err)
	}
	if r.logger != nil {
		r.logger.Info("job scheduled", "job", job.Name(), "spec", spec)
	}
	return nil
}

func (r *Runner) run(job schedule.Job) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()
	start := time.Now()
	err := job.Run(ctx)
	if r.logger == nil {
		return
	}
	if err != nil {
		r.logger.Error("scheduled job failed", "job", job.Name(), "error", err, "duration", time.Since(start))
		return
	}
	r.logger.Debug("scheduled job finished", "job", job.Name(), "duration", time.Since(start))
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop prevents new runs, cancels running ones and waits for them to return.
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	r.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ schedule.Scheduler = (*Runner)(nil)
