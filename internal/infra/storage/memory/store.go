// Package memory is the in-process backend. Write units are serialised by a single
// writer lock and work on a private copy of the state that replaces the shared
// snapshot atomically on commit; read units see the snapshot current at Begin.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	appoutbox "venuebook/internal/app/outbox"
	"venuebook/internal/app/uow"
	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	domainvenue "venuebook/internal/domain/venue"
)

var (
	ErrReadOnly     = errors.New("memory: unit of work is read-only")
	ErrUnitFinished = errors.New("memory: unit of work already finished")
)

type state struct {
	venues        map[domainvenue.ID]*domainvenue.Venue
	availability  map[string]domainavailability.Entry
	bookings      map[domainbooking.ID]*domainbooking.Booking
	payments      map[domainpayment.ID]*domainpayment.Record
	reviews       map[domainreview.ID]*domainreview.Review
	notifications map[domainnotification.ID]*domainnotification.Notification
}

func newState() *state {
	return &state{
		venues:        make(map[domainvenue.ID]*domainvenue.Venue),
		availability:  make(map[string]domainavailability.Entry),
		bookings:      make(map[domainbooking.ID]*domainbooking.Booking),
		payments:      make(map[domainpayment.ID]*domainpayment.Record),
		reviews:       make(map[domainreview.ID]*domainreview.Review),
		notifications: make(map[domainnotification.ID]*domainnotification.Notification),
	}
}

// fork copies the maps. Stored values are immutable clones, so sharing them is safe.
func (s *state) fork() *state {
	out := &state{
		venues:        make(map[domainvenue.ID]*domainvenue.Venue, len(s.venues)),
		availability:  make(map[string]domainavailability.Entry, len(s.availability)),
		bookings:      make(map[domainbooking.ID]*domainbooking.Booking, len(s.bookings)),
		payments:      make(map[domainpayment.ID]*domainpayment.Record, len(s.payments)),
		reviews:       make(map[domainreview.ID]*domainreview.Review, len(s.reviews)),
		notifications: make(map[domainnotification.ID]*domainnotification.Notification, len(s.notifications)),
	}
	for k, v := range s.venues {
		out.venues[k] = v
	}
	for k, v := range s.availability {
		out.availability[k] = v
	}
	for k, v := range s.bookings {
		out.bookings[k] = v
	}
	for k, v := range s.payments {
		out.payments[k] = v
	}
	for k, v := range s.reviews {
		out.reviews[k] = v
	}
	for k, v := range s.notifications {
		out.notifications[k] = v
	}
	return out
}

// Store owns the committed state and the outbox log.
type Store struct {
	writer  sync.Mutex
	current atomic.Pointer[state]
	outbox  *OutboxLog
}

func NewStore() *Store {
	s := &Store{outbox: NewOutboxLog()}
	s.current.Store(newState())
	return s
}

// Outbox exposes the relay side of the committed outbox records.
func (s *Store) Outbox() *OutboxLog {
	return s.outbox
}

// Begin starts a unit. Read-write units block until the previous writer finishes.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if opts.ReadOnly {
		return &Unit{store: s, data: s.current.Load(), readOnly: true}, nil
	}
	s.writer.Lock()
	if err := ctx.Err(); err != nil {
		s.writer.Unlock()
		return nil, err
	}
	return &Unit{store: s, data: s.current.Load().fork()}, nil
}

// Unit is a uow.UnitOfWork over a private copy of the store state.
type Unit struct {
	store    *Store
	data     *state
	staged   []appoutbox.EventRecord
	readOnly bool
	done     bool
}

func (u *Unit) Venues() domainvenue.Repository               { return venueRepository{u} }
func (u *Unit) Availability() domainavailability.Repository  { return availabilityRepository{u} }
func (u *Unit) Bookings() domainbooking.Repository           { return bookingRepository{u} }
func (u *Unit) Payments() domainpayment.Repository           { return paymentRepository{u} }
func (u *Unit) Reviews() domainreview.Repository             { return reviewRepository{u} }
func (u *Unit) Notifications() domainnotification.Repository { return notificationRepository{u} }
func (u *Unit) Outbox() appoutbox.Outbox                     { return unitOutbox{u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitFinished
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	defer u.store.writer.Unlock()
	u.store.current.Store(u.data)
	u.store.outbox.append(u.staged)
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if !u.readOnly {
		u.store.writer.Unlock()
	}
	return nil
}

func (u *Unit) writable() error {
	if u.done {
		return ErrUnitFinished
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

type unitOutbox struct{ u *Unit }

func (o unitOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if err := o.u.writable(); err != nil {
		return err
	}
	o.u.staged = append(o.u.staged, record)
	return nil
}

var _ uow.UoWFactory = (*Store)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
