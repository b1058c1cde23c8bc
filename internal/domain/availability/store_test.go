package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/venue"
)

type mapRepository struct {
	rows map[Key]Entry
}

func newMapRepository() *mapRepository {
	return &mapRepository{rows: make(map[Key]Entry)}
}

func (r *mapRepository) IsAvailable(_ context.Context, key Key) (bool, error) {
	row, ok := r.rows[key]
	if !ok {
		return true, nil
	}
	return row.Available, nil
}

func (r *mapRepository) Set(_ context.Context, entry Entry) error {
	r.rows[entry.Key] = entry
	return nil
}

func (r *mapRepository) ReplaceFuture(_ context.Context, venueID venue.ID, since daterange.Day, entries []Entry) error {
	for k := range r.rows {
		if k.VenueID == venueID && !k.Date.Before(since) {
			delete(r.rows, k)
		}
	}
	for _, e := range entries {
		r.rows[e.Key] = e
	}
	return nil
}

func (r *mapRepository) List(_ context.Context, venueID venue.ID, rng daterange.Range) ([]Entry, error) {
	var out []Entry
	for k, e := range r.rows {
		if k.VenueID == venueID && rng.Contains(k.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		raw     string
		want    Slot
		wantErr bool
	}{
		{raw: "morning", want: SlotMorning},
		{raw: " Evening ", want: SlotEvening},
		{raw: "full-day", want: SlotFullDay},
		{raw: "night", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSlot(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSlot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSlot() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoreDefaultOpenAndFlip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMapRepository())
	key := Key{VenueID: "venue-5", Date: daterange.MustDay("2025-06-01"), Slot: SlotEvening}
	now := time.Now()

	ok, err := store.CheckAvailable(ctx, key)
	if err != nil || !ok {
		t.Fatalf("CheckAvailable() = %v, %v; want true, nil", ok, err)
	}
	if err := store.MarkUnavailable(ctx, key, now); err != nil {
		t.Fatalf("MarkUnavailable() error = %v", err)
	}
	if err := store.MarkUnavailable(ctx, key, now); err != nil {
		t.Fatalf("MarkUnavailable() second call error = %v", err)
	}
	if ok, _ := store.CheckAvailable(ctx, key); ok {
		t.Error("slot should be unavailable after MarkUnavailable")
	}
	other := key
	other.Slot = SlotMorning
	if ok, _ := store.CheckAvailable(ctx, other); !ok {
		t.Error("other slots of the same day must stay available")
	}
	if err := store.MarkAvailable(ctx, key, now); err != nil {
		t.Fatalf("MarkAvailable() error = %v", err)
	}
	if ok, _ := store.CheckAvailable(ctx, key); !ok {
		t.Error("slot should be available after MarkAvailable")
	}
}

func TestToggleRefusesHeldSlot(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMapRepository())
	today := daterange.MustDay("2025-05-01")
	key := Key{VenueID: "venue-5", Date: daterange.MustDay("2025-06-01"), Slot: SlotEvening}

	if err := store.Toggle(ctx, key, true, true, today, time.Now()); !errors.Is(err, ErrSlotHeld) {
		t.Errorf("Toggle() error = %v, want %v", err, ErrSlotHeld)
	}
	if err := store.Toggle(ctx, key, false, true, today, time.Now()); err != nil {
		t.Errorf("Toggle() closing a held slot error = %v", err)
	}
	past := key
	past.Date = daterange.MustDay("2025-04-01")
	if err := store.Toggle(ctx, past, false, false, today, time.Now()); !errors.Is(err, ErrPastDate) {
		t.Errorf("Toggle() error = %v, want %v", err, ErrPastDate)
	}
}

func TestBulkReplaceFuture(t *testing.T) {
	ctx := context.Background()
	repo := newMapRepository()
	store := NewStore(repo)
	today := daterange.MustDay("2025-05-01")
	now := time.Now()
	venueID := venue.ID("venue-5")

	pastKey := Key{VenueID: venueID, Date: daterange.MustDay("2025-04-20"), Slot: SlotMorning}
	staleKey := Key{VenueID: venueID, Date: daterange.MustDay("2025-05-10"), Slot: SlotMorning}
	heldKey := Key{VenueID: venueID, Date: daterange.MustDay("2025-06-01"), Slot: SlotEvening}
	repo.rows[pastKey] = Entry{Key: pastKey}
	repo.rows[staleKey] = Entry{Key: staleKey}
	repo.rows[heldKey] = Entry{Key: heldKey}

	wanted := Key{VenueID: venueID, Date: daterange.MustDay("2025-05-20"), Slot: SlotFullDay}
	err := store.BulkReplaceFuture(ctx, venueID, []Entry{{Key: wanted, Available: false}}, []Key{heldKey}, today, now)
	if err != nil {
		t.Fatalf("BulkReplaceFuture() error = %v", err)
	}
	if _, ok := repo.rows[pastKey]; !ok {
		t.Error("rows before today must be preserved")
	}
	if _, ok := repo.rows[staleKey]; ok {
		t.Error("future rows not in the new calendar must be removed")
	}
	if row, ok := repo.rows[heldKey]; !ok || row.Available {
		t.Error("held slot must remain unavailable")
	}
	if row, ok := repo.rows[wanted]; !ok || row.Available {
		t.Error("requested entry must be stored")
	}

	err = store.BulkReplaceFuture(ctx, venueID, []Entry{{Key: heldKey, Available: true}}, []Key{heldKey}, today, now)
	if !errors.Is(err, ErrSlotHeld) {
		t.Errorf("BulkReplaceFuture() error = %v, want %v", err, ErrSlotHeld)
	}
	err = store.BulkReplaceFuture(ctx, venueID, []Entry{{Key: wanted}, {Key: wanted}}, nil, today, now)
	if !errors.Is(err, ErrDuplicateEntry) {
		t.Errorf("BulkReplaceFuture() error = %v, want %v", err, ErrDuplicateEntry)
	}
}
