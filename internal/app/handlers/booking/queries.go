package booking

import (
	"context"
	"errors"
	"strings"

	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
	"venuebook/internal/app/uow"
	domainbooking "venuebook/internal/domain/booking"
	domainpayment "venuebook/internal/domain/payment"
	"venuebook/internal/domain/shared/daterange"
	domainvenue "venuebook/internal/domain/venue"
)

const (
	getBookingKey           = "booking.get"
	listCustomerBookingsKey = "booking.list_customer"
	listOwnerBookingsKey    = "booking.list_owner"

	defaultPageSize = 50
)

// GetBookingQuery returns a booking with its payment record. The customer of the booking,
// the owner of the venue and administrators may read it.
type GetBookingQuery struct {
	Viewer    principal.Principal
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

func (q GetBookingQuery) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleCustomer, principal.RoleOwner, principal.RoleAdmin}
}

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	viewer, err := principal.Acting(ctx, q.Viewer)
	if err != nil {
		return dto.Booking{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, domainbooking.ID(strings.TrimSpace(q.BookingID)))
	if err != nil {
		return dto.Booking{}, err
	}
	if !canRead(viewer, b) {
		return dto.Booking{}, domainbooking.ErrNotFound
	}
	out := dto.MapBooking(b)
	record, err := unit.Payments().ByBooking(execCtx, b.ID)
	switch {
	case err == nil:
		p := dto.MapPayment(record)
		out.Payment = &p
	case !errors.Is(err, domainpayment.ErrNotFound):
		return dto.Booking{}, err
	}
	return out, nil
}

func canRead(viewer principal.Principal, b *domainbooking.Booking) bool {
	switch viewer.Role {
	case principal.RoleAdmin:
		return true
	case principal.RoleCustomer:
		return b.CustomerID == domainbooking.CustomerID(viewer.UserID)
	case principal.RoleOwner:
		return b.OwnerID == domainvenue.OwnerID(viewer.UserID)
	}
	return false
}

// ListCustomerBookingsQuery lists the caller's own bookings, newest first.
type ListCustomerBookingsQuery struct {
	CustomerID string
	Status     string
	Limit      int
	Offset     int
}

func (q ListCustomerBookingsQuery) Key() string { return listCustomerBookingsKey }

func (q ListCustomerBookingsQuery) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleCustomer}
}

type ListCustomerBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListCustomerBookingsHandler) Handle(ctx context.Context, q ListCustomerBookingsQuery) (dto.BookingCollection, error) {
	caller, err := principal.Caller(ctx, q.CustomerID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	filter := domainbooking.Filter{
		CustomerID: domainbooking.CustomerID(caller.UserID),
		Order:      domainbooking.OrderCreatedDesc,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if err := applyStatus(&filter, q.Status); err != nil {
		return dto.BookingCollection{}, err
	}
	return listBookings(ctx, h.UoWFactory, filter)
}

// ListOwnerBookingsQuery lists bookings across the owner's venues.
type ListOwnerBookingsQuery struct {
	OwnerID string
	VenueID string
	Status  string
	From    daterange.Day
	To      daterange.Day
	Limit   int
	Offset  int
}

func (q ListOwnerBookingsQuery) Key() string { return listOwnerBookingsKey }

func (q ListOwnerBookingsQuery) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

func (q ListOwnerBookingsQuery) Validate() error {
	_, err := daterange.NewRange(q.From, q.To)
	return err
}

type ListOwnerBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListOwnerBookingsHandler) Handle(ctx context.Context, q ListOwnerBookingsQuery) (dto.BookingCollection, error) {
	caller, err := principal.Caller(ctx, q.OwnerID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	rng, err := daterange.NewRange(q.From, q.To)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	filter := domainbooking.Filter{
		OwnerID:    domainvenue.OwnerID(caller.UserID),
		EventDates: rng,
		Order:      domainbooking.OrderCreatedDesc,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if id := strings.TrimSpace(q.VenueID); id != "" {
		filter.VenueIDs = []domainvenue.ID{domainvenue.ID(id)}
	}
	if err := applyStatus(&filter, q.Status); err != nil {
		return dto.BookingCollection{}, err
	}
	return listBookings(ctx, h.UoWFactory, filter)
}

func applyStatus(filter *domainbooking.Filter, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	status, err := domainbooking.ParseStatus(raw)
	if err != nil {
		return err
	}
	filter.Statuses = []domainbooking.Status{status}
	return nil
}

func listBookings(ctx context.Context, factory uow.UoWFactory, filter domainbooking.Filter) (dto.BookingCollection, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	filter = filter.Normalized()

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, factory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	total, err := unit.Bookings().Count(execCtx, filter)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	items, err := unit.Bookings().List(execCtx, filter)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	out := dto.BookingCollection{
		Items:  make([]dto.Booking, 0, len(items)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for _, b := range items {
		out.Items = append(out.Items, dto.MapBooking(b))
	}
	return out, nil
}

var _ queries.Handler[GetBookingQuery, dto.Booking] = (*GetBookingHandler)(nil)
var _ queries.Handler[ListCustomerBookingsQuery, dto.BookingCollection] = (*ListCustomerBookingsHandler)(nil)
var _ queries.Handler[ListOwnerBookingsQuery, dto.BookingCollection] = (*ListOwnerBookingsHandler)(nil)
