package uow

import (
	"context"

	"venuebook/internal/app/outbox"
	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	domainvenue "venuebook/internal/domain/venue"
)

// UnitOfWork coordinates repositories inside a transaction boundary. Every write made
// through its repositories, outbox records included, commits or rolls back together.
type UnitOfWork interface {
	Venues() domainvenue.Repository
	Availability() domainavailability.Repository
	Bookings() domainbooking.Repository
	Payments() domainpayment.Repository
	Reviews() domainreview.Repository
	Notifications() domainnotification.Repository
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
