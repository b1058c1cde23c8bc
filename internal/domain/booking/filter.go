package booking

import (
	"venuebook/internal/domain/availability"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/venue"
)

const MaxPageSize = 200

type Order string

const (
	OrderCreatedDesc  Order = "created_desc"
	OrderEventDateAsc Order = "event_date_asc"
)

// Filter is the single parameter object consumed by Repository.List and Count.
// Zero-valued fields do not constrain the result. Limit 0 means no limit.
type Filter struct {
	VenueIDs   []venue.ID
	OwnerID    venue.OwnerID
	CustomerID CustomerID
	Statuses   []Status
	EventDates daterange.Range
	Slot       availability.Slot
	Order      Order
	Limit      int
	Offset     int
}

func (f Filter) Normalized() Filter {
	out := f
	if out.Limit < 0 {
		out.Limit = 0
	}
	if out.Limit > MaxPageSize {
		out.Limit = MaxPageSize
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	if out.Order == "" {
		out.Order = OrderCreatedDesc
	}
	return out
}

// Matches evaluates the filter predicates against one booking.
func (f Filter) Matches(b *Booking) bool {
	if len(f.VenueIDs) > 0 && !containsVenue(f.VenueIDs, b.VenueID) {
		return false
	}
	if f.OwnerID != "" && b.OwnerID != f.OwnerID {
		return false
	}
	if f.CustomerID != "" && b.CustomerID != f.CustomerID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, b.Status) {
		return false
	}
	if !f.EventDates.Contains(b.EventDate) {
		return false
	}
	if f.Slot != "" && b.Slot != f.Slot {
		return false
	}
	return true
}

// ActiveOn selects bookings currently holding a slot of venueID from day onwards.
func ActiveOn(venueID venue.ID, from daterange.Day) Filter {
	return Filter{
		VenueIDs:   []venue.ID{venueID},
		Statuses:   ActiveStatuses,
		EventDates: daterange.Range{From: from},
		Order:      OrderEventDateAsc,
	}
}

// DueForCompletion selects confirmed bookings whose event date is before today.
func DueForCompletion(owner venue.OwnerID, today daterange.Day) Filter {
	return Filter{
		OwnerID:    owner,
		Statuses:   []Status{StatusConfirmed},
		EventDates: daterange.Range{To: today.AddDays(-1)},
		Order:      OrderEventDateAsc,
	}
}

func StatusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func containsVenue(ids []venue.ID, id venue.ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsStatus(statuses []Status, s Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
