package booking

import (
	"context"
	"log/slog"
	"time"

	"venuebook/internal/app/commands"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/outbox"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/uow"
	domainbooking "venuebook/internal/domain/booking"
	"venuebook/internal/domain/shared/daterange"
	domainvenue "venuebook/internal/domain/venue"
)

const sweepCompletedKey = "booking.sweep_completed"

// SweepCompletedCommand completes every confirmed booking whose event date has passed.
// OwnerID narrows the sweep to one owner's venues.
type SweepCompletedCommand struct {
	OwnerID string
	Now     time.Time
}

func (c SweepCompletedCommand) Key() string { return sweepCompletedKey }

func (c SweepCompletedCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleSystem}
}

type SweepResult struct {
	Completed int `json:"completed"`
}

type SweepCompletedHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *SweepCompletedHandler) Handle(ctx context.Context, cmd SweepCompletedCommand) (SweepResult, error) {
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return SweepResult{}, err
	}
	defer unit.Close()

	now := handlersupport.Now(cmd.Now)
	completed, err := SweepDue(unit, domainvenue.OwnerID(cmd.OwnerID), handlersupport.Today(now), now, h.Encoder)
	if err != nil {
		return SweepResult{}, err
	}
	if err := unit.Commit(); err != nil {
		return SweepResult{}, err
	}
	if h.Logger != nil && completed > 0 {
		h.Logger.Info("bookings completed by sweep", "count", completed, "owner_id", cmd.OwnerID)
	}
	return SweepResult{Completed: completed}, nil
}

// SweepDue runs the completion sweep inside w. Each candidate is re-read under lock and
// skipped when another writer moved it first.
func SweepDue(w *handlersupport.WriteUnit, owner domainvenue.OwnerID, today daterange.Day, now time.Time, encoder outbox.EventEncoder) (int, error) {
	due, err := w.Bookings().List(w.Ctx, domainbooking.DueForCompletion(owner, today))
	if err != nil {
		return 0, err
	}
	completed := 0
	for _, candidate := range due {
		b, err := w.Bookings().ByIDForUpdate(w.Ctx, candidate.ID)
		if err != nil {
			return completed, err
		}
		if !b.DueForCompletion(today) {
			continue
		}
		if err := Transition(w, b, domainbooking.StatusCompleted, now, encoder); err != nil {
			return completed, err
		}
		completed++
	}
	return completed, nil
}

var _ commands.Handler[SweepCompletedCommand, SweepResult] = (*SweepCompletedHandler)(nil)
