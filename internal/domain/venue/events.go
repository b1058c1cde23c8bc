package venue

import (
	"time"

	"venuebook/internal/domain/shared/money"
)

type VenueSubmitted struct {
	VenueID ID
	OwnerID OwnerID
	At      time.Time
}

func (e VenueSubmitted) EventName() string     { return "venue.submitted" }
func (e VenueSubmitted) AggregateID() string   { return string(e.VenueID) }
func (e VenueSubmitted) OccurredAt() time.Time { return e.At }

type VenueStatusChanged struct {
	VenueID ID
	OwnerID OwnerID
	From    Status
	To      Status
	At      time.Time
}

func (e VenueStatusChanged) EventName() string     { return "venue.status_changed" }
func (e VenueStatusChanged) AggregateID() string   { return string(e.VenueID) }
func (e VenueStatusChanged) OccurredAt() time.Time { return e.At }

type VenueRatingRecalculated struct {
	VenueID ID
	Rating  float64
	Reviews int
	At      time.Time
}

func (e VenueRatingRecalculated) EventName() string     { return "venue.rating_recalculated" }
func (e VenueRatingRecalculated) AggregateID() string   { return string(e.VenueID) }
func (e VenueRatingRecalculated) OccurredAt() time.Time { return e.At }

type VenueDetailsUpdated struct {
	VenueID   ID
	BasePrice money.Money
	Capacity  int
	At        time.Time
}

func (e VenueDetailsUpdated) EventName() string     { return "venue.details_updated" }
func (e VenueDetailsUpdated) AggregateID() string   { return string(e.VenueID) }
func (e VenueDetailsUpdated) OccurredAt() time.Time { return e.At }
