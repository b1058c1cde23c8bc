package dto

import (
	"time"

	domainreview "venuebook/internal/domain/review"
)

type Review struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	VenueID    string    `json:"venue_id"`
	AuthorID   string    `json:"author_id"`
	Rating     int       `json:"rating"`
	Text       string    `json:"text"`
	ReviewDate time.Time `json:"review_date"`
	VenueName  string    `json:"venue_name,omitempty"`
}

type ReviewCollection struct {
	Items   []Review `json:"items"`
	Average float64  `json:"average"`
	Count   int      `json:"count"`
}

// ReviewCheck tells the customer whether the review form should be offered.
type ReviewCheck struct {
	HasReview bool `json:"has_review"`
	CanReview bool `json:"can_review"`
}

func MapReview(r *domainreview.Review) Review {
	return Review{
		ID:         string(r.ID),
		BookingID:  string(r.BookingID),
		VenueID:    string(r.VenueID),
		AuthorID:   string(r.AuthorID),
		Rating:     r.Rating,
		Text:       r.Text,
		ReviewDate: r.ReviewDate,
	}
}
