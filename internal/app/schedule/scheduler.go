package schedule

import (
	"context"
	"log/slog"
	"time"

	"venuebook/internal/app/commands"
	bookingapp "venuebook/internal/app/handlers/booking"
	"venuebook/internal/app/principal"
)

// Job is recurring work run by a Scheduler.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	Schedule(spec string, job Job) error
}

// SweepJob dispatches the completion sweep through the command bus as the system actor.
type SweepJob struct {
	Commands commands.Bus
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (j SweepJob) Name() string { return "booking.sweep_completed" }

func (j SweepJob) Run(ctx context.Context) error {
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock().UTC()
	}
	ctx = principal.WithContext(ctx, principal.System)
	res, err := commands.Dispatch[bookingapp.SweepCompletedCommand, bookingapp.SweepResult](ctx, j.Commands, bookingapp.SweepCompletedCommand{Now: now})
	if err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Debug("completion sweep finished", "completed", res.Completed)
	}
	return nil
}

var _ Job = SweepJob{}
