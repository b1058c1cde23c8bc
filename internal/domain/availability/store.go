package availability

import (
	"context"
	"errors"
	"time"

	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/venue"
)

var errRepositoryRequired = errors.New("availability: repository required")

// Store exposes the slot operations used by the booking ledger and the owner calendar.
type Store struct {
	repo Repository
}

func NewStore(repo Repository) Store {
	return Store{repo: repo}
}

func (s Store) CheckAvailable(ctx context.Context, key Key) (bool, error) {
	if s.repo == nil {
		return false, errRepositoryRequired
	}
	return s.repo.IsAvailable(ctx, key)
}

func (s Store) MarkUnavailable(ctx context.Context, key Key, now time.Time) error {
	return s.set(ctx, key, false, now)
}

func (s Store) MarkAvailable(ctx context.Context, key Key, now time.Time) error {
	return s.set(ctx, key, true, now)
}

// Toggle is the owner's manual edit of one slot. Held slots stay unavailable.
func (s Store) Toggle(ctx context.Context, key Key, available bool, held bool, today daterange.Day, now time.Time) error {
	if key.Date.Before(today) {
		return ErrPastDate
	}
	if available && held {
		return ErrSlotHeld.Withf("availability: %s is held by an active booking", key.Date)
	}
	return s.set(ctx, key, available, now)
}

// BulkReplaceFuture replaces the venue's calendar from today onwards with entries.
// Keys in held back active bookings and are kept unavailable; an entry opening one is refused.
func (s Store) BulkReplaceFuture(ctx context.Context, venueID venue.ID, entries []Entry, held []Key, today daterange.Day, now time.Time) error {
	if s.repo == nil {
		return errRepositoryRequired
	}
	planned, err := PlanReplacement(venueID, entries, held, today, now)
	if err != nil {
		return err
	}
	return s.repo.ReplaceFuture(ctx, venueID, today, planned)
}

// PlanReplacement validates a requested calendar and merges the held keys into it.
func PlanReplacement(venueID venue.ID, entries []Entry, held []Key, today daterange.Day, now time.Time) ([]Entry, error) {
	heldSet := make(map[Key]struct{}, len(held))
	for _, k := range held {
		heldSet[k] = struct{}{}
	}
	seen := make(map[Key]struct{}, len(entries))
	out := make([]Entry, 0, len(entries)+len(held))
	for _, e := range entries {
		e.VenueID = venueID
		if _, err := ParseSlot(string(e.Slot)); err != nil {
			return nil, err
		}
		if e.Date.IsZero() {
			return nil, daterange.ErrInvalidDay
		}
		if e.Date.Before(today) {
			return nil, ErrPastDate.Withf("availability: %s is in the past", e.Date)
		}
		if _, dup := seen[e.Key]; dup {
			return nil, ErrDuplicateEntry.Withf("availability: %s listed twice", e.Key)
		}
		seen[e.Key] = struct{}{}
		if _, isHeld := heldSet[e.Key]; isHeld && e.Available {
			return nil, ErrSlotHeld.Withf("availability: %s %s is held by an active booking", e.Date, e.Slot)
		}
		e.UpdatedAt = now.UTC()
		out = append(out, e)
	}
	for _, k := range held {
		if k.Date.Before(today) {
			continue
		}
		if _, listed := seen[k]; listed {
			continue
		}
		out = append(out, Entry{Key: k, Available: false, UpdatedAt: now.UTC()})
	}
	return out, nil
}

func (s Store) set(ctx context.Context, key Key, available bool, now time.Time) error {
	if s.repo == nil {
		return errRepositoryRequired
	}
	if _, err := ParseSlot(string(key.Slot)); err != nil {
		return err
	}
	return s.repo.Set(ctx, Entry{Key: key, Available: available, UpdatedAt: now.UTC()})
}
