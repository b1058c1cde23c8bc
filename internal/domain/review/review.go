package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"venuebook/internal/domain/booking"
	"venuebook/internal/domain/shared/events"
	"venuebook/internal/domain/shared/fault"
	"venuebook/internal/domain/venue"
)

var (
	ErrInvalidRating = fault.Validation("invalid_rating", "review: rating must be between 1 and 5")
	ErrNotFound      = fault.NotFound("review_not_found", "review: not found")
	ErrDuplicate     = fault.Validation("duplicate_review", "review: already submitted for this booking")
	ErrInvalidState  = fault.Validation("invalid_state", "review: only completed bookings can be reviewed")
	ErrOwnership     = fault.Authorization("review_ownership", "review: booking does not belong to current user")
	errIDRequired    = errors.New("review: id required")
)

type ID string

type Review struct {
	ID         ID
	BookingID  booking.ID
	VenueID    venue.ID
	AuthorID   booking.CustomerID
	Rating     int
	Text       string
	ReviewDate time.Time
	events.EventRecorder
}

type Repository interface {
	// ByBooking returns ErrNotFound when the booking has no review.
	ByBooking(ctx context.Context, bookingID booking.ID) (*Review, error)
	// Save inserts a review; a second review for a booking fails with ErrDuplicate.
	Save(ctx context.Context, r *Review) error
	ListByVenue(ctx context.Context, venueID venue.ID, limit, offset int) ([]*Review, error)
}

type SubmitParams struct {
	ID          ID
	Booking     *booking.Booking
	AuthorID    booking.CustomerID
	Rating      int
	Text        string
	AlreadyDone bool
	Now         time.Time
}

// Eligible applies the review guards in order: authorship, completion, uniqueness.
func Eligible(b *booking.Booking, author booking.CustomerID, alreadyReviewed bool) error {
	if b == nil {
		return booking.ErrNotFound
	}
	if b.CustomerID != author {
		return ErrOwnership
	}
	if b.Status != booking.StatusCompleted {
		return ErrInvalidState
	}
	if alreadyReviewed {
		return ErrDuplicate
	}
	return nil
}

func Submit(params SubmitParams) (*Review, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errIDRequired
	}
	if err := Eligible(params.Booking, params.AuthorID, params.AlreadyDone); err != nil {
		return nil, err
	}
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	r := &Review{
		ID:         params.ID,
		BookingID:  params.Booking.ID,
		VenueID:    params.Booking.VenueID,
		AuthorID:   params.AuthorID,
		Rating:     params.Rating,
		Text:       strings.TrimSpace(params.Text),
		ReviewDate: params.Now.UTC(),
	}
	r.Record(Submitted{ReviewID: r.ID, BookingID: r.BookingID, VenueID: r.VenueID, Rating: r.Rating, At: r.ReviewDate})
	return r, nil
}

// Average is the plain arithmetic mean of the ratings, 0 when there are none.
func Average(reviews []*Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var total int
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}

type Submitted struct {
	ReviewID  ID
	BookingID booking.ID
	VenueID   venue.ID
	Rating    int
	At        time.Time
}

func (e Submitted) EventName() string     { return "review.submitted" }
func (e Submitted) AggregateID() string   { return string(e.ReviewID) }
func (e Submitted) OccurredAt() time.Time { return e.At }
