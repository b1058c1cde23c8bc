package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appoutbox "venuebook/internal/app/outbox"
	"venuebook/internal/app/uow"
	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	domainvenue "venuebook/internal/domain/venue"
)

// Factory starts transactions on db.
type Factory struct {
	db *DB
}

func NewFactory(db *DB) *Factory {
	return &Factory{db: db}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	tx, err := f.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: opts.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Unit{tx: tx}, nil
}

// Unit is a uow.UnitOfWork bound to one transaction.
type Unit struct {
	tx *sqlx.Tx
}

func (u *Unit) Venues() domainvenue.Repository               { return venueRepository{u.tx} }
func (u *Unit) Availability() domainavailability.Repository  { return availabilityRepository{u.tx} }
func (u *Unit) Bookings() domainbooking.Repository           { return bookingRepository{u.tx} }
func (u *Unit) Payments() domainpayment.Repository           { return paymentRepository{u.tx} }
func (u *Unit) Reviews() domainreview.Repository             { return reviewRepository{u.tx} }
func (u *Unit) Notifications() domainnotification.Repository { return notificationRepository{u.tx} }
func (u *Unit) Outbox() appoutbox.Outbox                     { return unitOutbox{u.tx} }

func (u *Unit) Commit(ctx context.Context) error {
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

type unitOutbox struct{ tx *sqlx.Tx }

func (o unitOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return err
	}
	_, err = o.tx.ExecContext(ctx, `
		INSERT INTO outbox (id, name, aggregate, payload, headers, occurred_at, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		record.ID, record.Name, record.Aggregate, string(record.Payload), string(headers), record.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to stage outbox record: %w", err)
	}
	return nil
}

var (
	_ uow.UoWFactory   = (*Factory)(nil)
	_ uow.UnitOfWork   = (*Unit)(nil)
	_ appoutbox.Outbox = unitOutbox{}
)
