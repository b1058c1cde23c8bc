package venue

import (
	"errors"
	"testing"
	"time"

	"venuebook/internal/domain/shared/money"
)

func newTestVenue(t *testing.T) *Venue {
	t.Helper()
	v, err := New(CreateParams{
		ID:        "venue-5",
		Owner:     "owner-1",
		Name:      "Grand Marquee",
		City:      "Lahore",
		Capacity:  300,
		BasePrice: money.Must(50000, "PKR"),
		Facilities: []FacilityParams{
			{ID: "catering", Name: "Catering", ExtraPrice: money.Must(15000, "PKR"), Available: true},
			{ID: "stage", Name: "Stage", ExtraPrice: money.Must(5000, "PKR"), Available: false},
		},
		Now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return v
}

func TestNewVenueStartsPending(t *testing.T) {
	v := newTestVenue(t)
	if v.Status != StatusPending {
		t.Errorf("Status = %v, want %v", v.Status, StatusPending)
	}
	if v.AcceptsBookings() {
		t.Error("pending venue must not accept bookings")
	}
	evs := v.Pull()
	if len(evs) != 1 || evs[0].EventName() != "venue.submitted" {
		t.Errorf("events = %v, want one venue.submitted", evs)
	}
}

func TestNewVenueValidation(t *testing.T) {
	base := CreateParams{ID: "v", Owner: "o", Name: "Hall", Capacity: 10, BasePrice: money.Must(100, "PKR")}
	tests := []struct {
		name   string
		mutate func(p *CreateParams)
		want   error
	}{
		{name: "name", mutate: func(p *CreateParams) { p.Name = " " }, want: ErrNameRequired},
		{name: "capacity", mutate: func(p *CreateParams) { p.Capacity = 0 }, want: ErrCapacity},
		{name: "price", mutate: func(p *CreateParams) { p.BasePrice = money.Must(0, "PKR") }, want: ErrBasePrice},
		{name: "facility price", mutate: func(p *CreateParams) {
			p.Facilities = []FacilityParams{{ID: "f", Name: "F", ExtraPrice: money.Must(-1, "PKR")}}
		}, want: ErrFacilityPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			if _, err := New(p); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestModerate(t *testing.T) {
	v := newTestVenue(t)
	now := time.Now()
	if err := v.Moderate(StatusPending, now); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Moderate(pending) error = %v, want %v", err, ErrInvalidStatus)
	}
	if err := v.Moderate(StatusActive, now); err != nil {
		t.Fatalf("Moderate(active) error = %v", err)
	}
	if !v.AcceptsBookings() {
		t.Error("active venue should accept bookings")
	}
}

func TestDeactivateBlockedByActiveBookings(t *testing.T) {
	v := newTestVenue(t)
	_ = v.Moderate(StatusActive, time.Now())
	if err := v.Deactivate(true, time.Now()); !errors.Is(err, ErrHasActiveBookings) {
		t.Fatalf("Deactivate() error = %v, want %v", err, ErrHasActiveBookings)
	}
	if v.Status != StatusActive {
		t.Errorf("Status = %v, want %v", v.Status, StatusActive)
	}
	if err := v.Deactivate(false, time.Now()); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if v.Status != StatusInactive {
		t.Errorf("Status = %v, want %v", v.Status, StatusInactive)
	}
}

func TestFacilityLookup(t *testing.T) {
	v := newTestVenue(t)
	f, err := v.Facility("catering")
	if err != nil {
		t.Fatalf("Facility() error = %v", err)
	}
	if f.ExtraPrice.Amount != 15000 {
		t.Errorf("ExtraPrice = %v, want 15000", f.ExtraPrice.Amount)
	}
	if _, err := v.Facility("pool"); !errors.Is(err, ErrFacilityNotFound) {
		t.Errorf("Facility() error = %v, want %v", err, ErrFacilityNotFound)
	}
}

func TestUpdateDetails(t *testing.T) {
	now := time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)
	valid := UpdateParams{Name: " Royal Hall ", City: "Karachi", Address: "2 Sea View", Capacity: 150, BasePrice: money.Must(80000, "PKR")}
	tests := []struct {
		name   string
		mutate func(p *UpdateParams)
		want   error
	}{
		{name: "valid", mutate: func(p *UpdateParams) {}},
		{name: "name", mutate: func(p *UpdateParams) { p.Name = "" }, want: ErrNameRequired},
		{name: "capacity", mutate: func(p *UpdateParams) { p.Capacity = 0 }, want: ErrCapacity},
		{name: "price", mutate: func(p *UpdateParams) { p.BasePrice = money.Must(-5, "PKR") }, want: ErrBasePrice},
		{name: "currency", mutate: func(p *UpdateParams) { p.BasePrice = money.Must(100, "USD") }, want: money.ErrCurrencyMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVenue(t)
			v.Pull()
			p := valid
			tt.mutate(&p)
			err := v.Update(p, now)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Update() error = %v, want %v", err, tt.want)
			}
			if err != nil {
				if v.Name != "Grand Marquee" || v.BasePrice.Amount != 50000 {
					t.Errorf("rejected update changed venue: %+v", v)
				}
				return
			}
			if v.Name != "Royal Hall" || v.Capacity != 150 || v.BasePrice.Amount != 80000 || !v.UpdatedAt.Equal(now) {
				t.Errorf("venue = %+v", v)
			}
			if evs := v.Pull(); len(evs) != 1 || evs[0].EventName() != "venue.details_updated" {
				t.Errorf("events = %v", evs)
			}
		})
	}
}
