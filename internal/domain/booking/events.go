package booking

import (
	"time"

	"venuebook/internal/domain/availability"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/money"
	"venuebook/internal/domain/venue"
)

type BookingRequested struct {
	BookingID  ID
	VenueID    venue.ID
	OwnerID    venue.OwnerID
	CustomerID CustomerID
	EventDate  daterange.Day
	Slot       availability.Slot
	EventType  string
	TotalPrice money.Money
	At         time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type transitionEvent struct {
	BookingID  ID
	VenueID    venue.ID
	CustomerID CustomerID
	From       Status
	At         time.Time
}

type BookingConfirmed transitionEvent

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingRejected transitionEvent

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingCompleted transitionEvent

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }
