package availability

import (
	"context"
	"strings"
	"time"

	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/fault"
	"venuebook/internal/domain/venue"
)

var (
	ErrInvalidSlot    = fault.Validation("invalid_slot", "availability: slot must be one of morning, evening, full-day")
	ErrSlotHeld       = fault.Validation("slot_held", "availability: slot held by an active booking")
	ErrDuplicateEntry = fault.Validation("duplicate_slot_entry", "availability: calendar contains the same slot twice")
	ErrPastDate       = fault.Validation("past_date", "availability: date is in the past")
)

type Slot string

const (
	SlotMorning Slot = "morning"
	SlotEvening Slot = "evening"
	SlotFullDay Slot = "full-day"
)

func ParseSlot(raw string) (Slot, error) {
	switch s := Slot(strings.ToLower(strings.TrimSpace(raw))); s {
	case SlotMorning, SlotEvening, SlotFullDay:
		return s, nil
	}
	return "", ErrInvalidSlot
}

// Key identifies one bookable slot. Slots of the same day are independent keys.
type Key struct {
	VenueID venue.ID
	Date    daterange.Day
	Slot    Slot
}

func (k Key) String() string {
	return string(k.VenueID) + "/" + k.Date.String() + "/" + string(k.Slot)
}

// Entry is a materialised availability row. A missing row means available.
type Entry struct {
	Key
	Available bool
	UpdatedAt time.Time
}

type Repository interface {
	// IsAvailable reports the stored flag, true when no row exists.
	IsAvailable(ctx context.Context, key Key) (bool, error)
	// Set upserts a single row.
	Set(ctx context.Context, entry Entry) error
	// ReplaceFuture deletes every row of the venue dated on or after since and inserts entries.
	ReplaceFuture(ctx context.Context, venueID venue.ID, since daterange.Day, entries []Entry) error
	List(ctx context.Context, venueID venue.ID, r daterange.Range) ([]Entry, error)
}
