package notification

import (
	"errors"
	"strings"
	"testing"
	"time"

	"venuebook/internal/domain/booking"
	"venuebook/internal/domain/shared/daterange"
)

func sampleBooking(status booking.Status) *booking.Booking {
	return &booking.Booking{
		ID:         "booking-1",
		CustomerID: "customer-1",
		VenueID:    "venue-5",
		OwnerID:    "owner-1",
		VenueName:  "Grand Marquee",
		EventDate:  daterange.MustDay("2025-06-01"),
		Slot:       "evening",
		EventType:  "Wedding",
		Customer:   booking.CustomerDetails{FullName: "Ayesha Khan"},
		Status:     status,
	}
}

func TestBookingStatusChanged(t *testing.T) {
	tests := []struct {
		status    booking.Status
		title     string
		contains  string
		recipient string
	}{
		{status: booking.StatusConfirmed, title: "Booking Confirmed", contains: "has been confirmed!", recipient: "customer-1"},
		{status: booking.StatusRejected, title: "Booking Rejected", contains: "has been rejected", recipient: "customer-1"},
		{status: booking.StatusCompleted, title: "Booking Completed", contains: "Thank you for choosing us!", recipient: "customer-1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			intent := BookingStatusChanged(sampleBooking(tt.status))
			if intent.Title != tt.title {
				t.Errorf("Title = %q, want %q", intent.Title, tt.title)
			}
			if !strings.Contains(intent.Message, tt.contains) {
				t.Errorf("Message = %q, want it to contain %q", intent.Message, tt.contains)
			}
			if intent.UserID != tt.recipient {
				t.Errorf("UserID = %q, want %q", intent.UserID, tt.recipient)
			}
			if err := intent.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestBookingRequestedGoesToOwner(t *testing.T) {
	intent := BookingRequested(sampleBooking(booking.StatusPending))
	if intent.UserID != "owner-1" {
		t.Errorf("UserID = %q, want owner-1", intent.UserID)
	}
	if intent.Title != "New Booking Request" {
		t.Errorf("Title = %q", intent.Title)
	}
	if !strings.Contains(intent.Message, "2025-06-01 (evening)") {
		t.Errorf("Message = %q", intent.Message)
	}
}

func TestDedupKeysDifferPerFact(t *testing.T) {
	b := sampleBooking(booking.StatusCompleted)
	keys := map[string]bool{
		BookingRequested(b).DedupKey:     true,
		BookingStatusChanged(b).DedupKey: true,
		ReviewRequest(b).DedupKey:        true,
	}
	if len(keys) != 3 {
		t.Errorf("dedup keys collide: %v", keys)
	}
}

func TestNewValidatesIntent(t *testing.T) {
	_, err := New("n-1", Intent{UserID: "u", Title: "t", Type: "sms", DedupKey: "k"}, time.Now())
	if !errors.Is(err, ErrInvalidType) {
		t.Errorf("New() error = %v, want %v", err, ErrInvalidType)
	}
	_, err = New("n-1", Intent{Title: "t", Type: TypeSystem, DedupKey: "k"}, time.Now())
	if !errors.Is(err, ErrRecipient) {
		t.Errorf("New() error = %v, want %v", err, ErrRecipient)
	}
}
