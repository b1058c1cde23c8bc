package support

import (
	"context"
	"time"

	"venuebook/internal/app/outbox"
	"venuebook/internal/app/uow"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/events"
)

// BeginReadOnlyUnit reuses the unit in ctx or starts a read-only one. cleanup is nil when
// the unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Bind(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// WriteUnit is a unit of work that may be owned by the caller (managed) or by the
// Transaction middleware.
type WriteUnit struct {
	uow.UnitOfWork
	Ctx       context.Context
	managed   bool
	committed bool
}

// BeginWriteUnit reuses the unit in ctx or starts a managed read-write one. Callers must
// defer Close and call Commit on success.
func BeginWriteUnit(ctx context.Context, factory uow.UoWFactory) (*WriteUnit, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &WriteUnit{UnitOfWork: unit, Ctx: ctx}, nil
	}
	if factory == nil {
		return nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &WriteUnit{UnitOfWork: unit, Ctx: uow.Bind(ctx, unit), managed: true}, nil
}

// Commit commits a managed unit; units owned by middleware are committed there.
func (w *WriteUnit) Commit() error {
	if !w.managed || w.committed {
		return nil
	}
	if err := w.UnitOfWork.Commit(w.Ctx); err != nil {
		return err
	}
	w.committed = true
	return nil
}

// Close rolls back a managed unit that was not committed.
func (w *WriteUnit) Close() {
	if w.managed && !w.committed {
		_ = w.UnitOfWork.Rollback(w.Ctx)
	}
}

// RecordEvents drains aggregate events into the unit's outbox.
func (w *WriteUnit) RecordEvents(encoder outbox.EventEncoder, sources ...events.Source) error {
	return outbox.Drain(w.Ctx, w.Outbox(), encoder, sources...)
}

// Now returns override in UTC, or the current time when override is zero.
func Now(override time.Time) time.Time {
	if override.IsZero() {
		return time.Now().UTC()
	}
	return override.UTC()
}

// Today is the calendar day of now in UTC.
func Today(now time.Time) daterange.Day {
	return daterange.DayOf(now)
}
