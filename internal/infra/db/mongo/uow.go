package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	appoutbox "venuebook/internal/app/outbox"
	"venuebook/internal/app/uow"
	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	domainvenue "venuebook/internal/domain/venue"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction. Read-only units read from a snapshot.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{db: f.DB, session: session}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session
	done    bool
}

func (u *Unit) Venues() domainvenue.Repository {
	return venueRepository{col: u.db.Collection(colVenues)}
}

func (u *Unit) Availability() domainavailability.Repository {
	return availabilityRepository{col: u.db.Collection(colAvailability)}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return bookingRepository{col: u.db.Collection(colBookings)}
}

func (u *Unit) Payments() domainpayment.Repository {
	return paymentRepository{col: u.db.Collection(colPayments)}
}

func (u *Unit) Reviews() domainreview.Repository {
	return reviewRepository{col: u.db.Collection(colReviews)}
}

func (u *Unit) Notifications() domainnotification.Repository {
	return notificationRepository{col: u.db.Collection(colNotifications)}
}

func (u *Unit) Outbox() appoutbox.Outbox {
	return unitOutbox{col: u.db.Collection(colOutbox)}
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

// unitOutbox stages records in the outbox collection inside the unit's transaction.
type unitOutbox struct {
	col *mongo.Collection
}

func (o unitOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	doc := eventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	_, err := o.col.InsertOne(ctx, doc)
	return err
}

var (
	_ uow.UoWFactory   = Factory{}
	_ uow.UnitOfWork   = (*Unit)(nil)
	_ appoutbox.Outbox = unitOutbox{}
)
