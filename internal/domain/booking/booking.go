package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"venuebook/internal/domain/availability"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/events"
	"venuebook/internal/domain/shared/fault"
	"venuebook/internal/domain/shared/money"
	"venuebook/internal/domain/venue"
)

var (
	ErrNotFound          = fault.NotFound("booking_not_found", "booking: not found")
	ErrSlotUnavailable   = fault.Validation("slot_unavailable", "booking: slot not available")
	ErrInvalidTransition = fault.Validation("invalid_transition", "booking: invalid status transition")
	ErrInvalidStatus     = fault.Validation("invalid_booking_status", "booking: invalid status")
	ErrEventTypeRequired = fault.Validation("event_type_required", "booking: event type is required")
	ErrEventDateInPast   = fault.Validation("event_date_in_past", "booking: event date is in the past")
	ErrNotVenueOwner     = fault.Authorization("booking_not_owned", "booking: caller does not own the venue")
	ErrNotCustomer       = fault.Authorization("booking_not_customer", "booking: caller did not create the booking")
	ErrConcurrentUpdate  = fault.Conflict("booking_concurrent_update", "booking: concurrent update detected")
	errCustomerRequired  = errors.New("booking: customer id required")
	errIDRequired        = errors.New("booking: id required")
)

type ID string
type CustomerID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// ActiveStatuses hold their slot.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCompleted:
		return s, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected},
	StatusConfirmed: {StatusCompleted},
}

// CanTransition reports whether from -> to is an edge of the booking lifecycle.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// FacilitySelection snapshots a venue facility at booking time.
type FacilitySelection struct {
	FacilityID venue.FacilityID
	Name       string
	ExtraPrice money.Money
}

type Booking struct {
	ID                  ID
	CustomerID          CustomerID
	VenueID             venue.ID
	OwnerID             venue.OwnerID
	VenueName           string
	EventDate           daterange.Day
	Slot                availability.Slot
	EventType           string
	SpecialRequirements string
	Customer            CustomerDetails
	Facilities          []FacilitySelection
	TotalPrice          money.Money
	Status              Status
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	// ByIDForUpdate loads the booking and locks it until the unit of work ends.
	ByIDForUpdate(ctx context.Context, id ID) (*Booking, error)
	// Save inserts or updates with an optimistic version check. Inserting a second active
	// booking for the same slot fails with ErrSlotUnavailable.
	Save(ctx context.Context, b *Booking) error
	List(ctx context.Context, filter Filter) ([]*Booking, error)
	Count(ctx context.Context, filter Filter) (int, error)
}

type CreateParams struct {
	ID                  ID
	CustomerID          CustomerID
	Venue               *venue.Venue
	EventDate           daterange.Day
	Slot                availability.Slot
	EventType           string
	SpecialRequirements string
	Customer            CustomerDetails
	FacilityIDs         []venue.FacilityID
	Today               daterange.Day
	Now                 time.Time
}

// New prices and validates a booking request against its venue. The total is
// the base price plus every selected facility and is never recomputed.
func New(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errIDRequired
	}
	if strings.TrimSpace(string(params.CustomerID)) == "" {
		return nil, errCustomerRequired
	}
	v := params.Venue
	if v == nil {
		return nil, venue.ErrNotFound
	}
	if !v.AcceptsBookings() {
		return nil, venue.ErrNotActive
	}
	if params.EventDate.IsZero() {
		return nil, daterange.ErrInvalidDay
	}
	if params.EventDate.Before(params.Today) {
		return nil, ErrEventDateInPast
	}
	slot, err := availability.ParseSlot(string(params.Slot))
	if err != nil {
		return nil, err
	}
	eventType := strings.TrimSpace(params.EventType)
	if eventType == "" {
		return nil, ErrEventTypeRequired
	}
	customer, err := params.Customer.Normalize()
	if err != nil {
		return nil, err
	}

	selections := make([]FacilitySelection, 0, len(params.FacilityIDs))
	extras := make([]money.Money, 0, len(params.FacilityIDs))
	picked := make(map[venue.FacilityID]struct{}, len(params.FacilityIDs))
	for _, fid := range params.FacilityIDs {
		if _, dup := picked[fid]; dup {
			continue
		}
		picked[fid] = struct{}{}
		facility, err := v.Facility(fid)
		if err != nil {
			return nil, err
		}
		if !facility.Available {
			return nil, venue.ErrFacilityUnavailable.Withf("venue: facility %s currently unavailable", facility.Name)
		}
		selections = append(selections, FacilitySelection{FacilityID: facility.ID, Name: facility.Name, ExtraPrice: facility.ExtraPrice})
		extras = append(extras, facility.ExtraPrice)
	}
	total, err := v.BasePrice.Sum(extras...)
	if err != nil {
		return nil, err
	}

	now := params.Now.UTC()
	b := &Booking{
		ID:                  params.ID,
		CustomerID:          params.CustomerID,
		VenueID:             v.ID,
		OwnerID:             v.Owner,
		VenueName:           v.Name,
		EventDate:           params.EventDate,
		Slot:                slot,
		EventType:           eventType,
		SpecialRequirements: strings.TrimSpace(params.SpecialRequirements),
		Customer:            customer,
		Facilities:          selections,
		TotalPrice:          total,
		Status:              StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	b.Record(BookingRequested{
		BookingID:  b.ID,
		VenueID:    b.VenueID,
		OwnerID:    b.OwnerID,
		CustomerID: b.CustomerID,
		EventDate:  b.EventDate,
		Slot:       b.Slot,
		EventType:  b.EventType,
		TotalPrice: b.TotalPrice,
		At:         now,
	})
	return b, nil
}

// SlotKey is the availability key the booking occupies while active.
func (b *Booking) SlotKey() availability.Key {
	return availability.Key{VenueID: b.VenueID, Date: b.EventDate, Slot: b.Slot}
}

// Transition moves the booking along a lifecycle edge.
func (b *Booking) Transition(to Status, now time.Time) error {
	if !CanTransition(b.Status, to) {
		return ErrInvalidTransition.Withf("booking: cannot move from %s to %s", b.Status, to)
	}
	from := b.Status
	b.Status = to
	b.UpdatedAt = now.UTC()
	base := transitionEvent{BookingID: b.ID, VenueID: b.VenueID, CustomerID: b.CustomerID, From: from, At: b.UpdatedAt}
	switch to {
	case StatusConfirmed:
		b.Record(BookingConfirmed(base))
	case StatusRejected:
		b.Record(BookingRejected(base))
	case StatusCompleted:
		b.Record(BookingCompleted(base))
	}
	return nil
}

func (b *Booking) Confirm(now time.Time) error  { return b.Transition(StatusConfirmed, now) }
func (b *Booking) Reject(now time.Time) error   { return b.Transition(StatusRejected, now) }
func (b *Booking) Complete(now time.Time) error { return b.Transition(StatusCompleted, now) }

// DueForCompletion reports whether the sweep should complete the booking.
func (b *Booking) DueForCompletion(today daterange.Day) bool {
	return b.Status == StatusConfirmed && b.EventDate.Before(today)
}
