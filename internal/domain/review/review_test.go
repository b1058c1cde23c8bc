package review

import (
	"errors"
	"math"
	"testing"
	"time"

	"venuebook/internal/domain/booking"
)

func completedBooking() *booking.Booking {
	return &booking.Booking{ID: "booking-1", VenueID: "venue-5", CustomerID: "customer-1", Status: booking.StatusCompleted}
}

func TestSubmitGuards(t *testing.T) {
	tests := []struct {
		name    string
		booking *booking.Booking
		author  booking.CustomerID
		done    bool
		rating  int
		want    error
	}{
		{name: "ok", booking: completedBooking(), author: "customer-1", rating: 4},
		{name: "other author", booking: completedBooking(), author: "customer-2", rating: 4, want: ErrOwnership},
		{name: "confirmed", booking: &booking.Booking{ID: "b", CustomerID: "customer-1", Status: booking.StatusConfirmed}, author: "customer-1", rating: 4, want: ErrInvalidState},
		{name: "duplicate", booking: completedBooking(), author: "customer-1", done: true, rating: 4, want: ErrDuplicate},
		{name: "rating low", booking: completedBooking(), author: "customer-1", rating: 0, want: ErrInvalidRating},
		{name: "rating high", booking: completedBooking(), author: "customer-1", rating: 6, want: ErrInvalidRating},
		{name: "missing booking", author: "customer-1", rating: 4, want: booking.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Submit(SubmitParams{ID: "review-1", Booking: tt.booking, AuthorID: tt.author, Rating: tt.rating, AlreadyDone: tt.done, Now: time.Now()})
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Errorf("Submit() error = %v, want %v", err, tt.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if r.VenueID != "venue-5" || r.Rating != 4 {
				t.Errorf("review = %+v", r)
			}
		})
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{name: "none", want: 0},
		{name: "single", ratings: []int{4}, want: 4},
		{name: "mean", ratings: []int{5, 4, 4, 2}, want: 3.75},
		{name: "thirds", ratings: []int{5, 5, 4}, want: 14.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := make([]*Review, len(tt.ratings))
			for i, r := range tt.ratings {
				reviews[i] = &Review{Rating: r}
			}
			if got := Average(reviews); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Average() = %v, want %v", got, tt.want)
			}
		})
	}
}
