package venue

import (
	"context"
	"errors"
	"strings"
	"time"

	"venuebook/internal/domain/shared/events"
	"venuebook/internal/domain/shared/fault"
	"venuebook/internal/domain/shared/money"
)

var (
	ErrNotFound            = fault.NotFound("venue_not_found", "venue: not found")
	ErrNotOwned            = fault.Authorization("venue_not_owned", "venue: not owned by caller")
	ErrNotActive           = fault.Validation("venue_not_active", "venue: not accepting bookings")
	ErrInvalidStatus       = fault.Validation("invalid_venue_status", "venue: invalid status")
	ErrHasActiveBookings   = fault.Validation("venue_has_active_bookings", "venue: has pending or confirmed bookings")
	ErrFacilityNotFound    = fault.Validation("facility_not_found", "venue: facility not offered by venue")
	ErrFacilityUnavailable = fault.Validation("facility_unavailable", "venue: facility currently unavailable")
	ErrNameRequired        = fault.Validation("venue_name_required", "venue: name is required")
	ErrCapacity            = fault.Validation("venue_capacity", "venue: capacity must be at least 1")
	ErrBasePrice           = fault.Validation("venue_base_price", "venue: base price must be positive")
	ErrFacilityPrice       = fault.Validation("facility_price", "venue: facility extra price must be non-negative")
	ErrConcurrentUpdate    = fault.Conflict("venue_concurrent_update", "venue: concurrent update detected")
	errOwnerRequired       = errors.New("venue: owner is required")
	errIDRequired          = errors.New("venue: id is required")
)

type ID string
type OwnerID string
type FacilityID string

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRejected Status = "rejected"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusActive, StatusInactive, StatusRejected:
		return s, nil
	}
	return "", ErrInvalidStatus
}

type Facility struct {
	ID         FacilityID
	Name       string
	ExtraPrice money.Money
	Available  bool
}

type Venue struct {
	ID          ID
	Owner       OwnerID
	Name        string
	City        string
	Address     string
	Capacity    int
	BasePrice   money.Money
	Facilities  []Facility
	Status      Status
	Rating      float64
	ReviewCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Venue, error)
	// ByIDForUpdate loads a venue and locks it until the unit of work ends, so writers of
	// the venue's calendar and bookings are serialised.
	ByIDForUpdate(ctx context.Context, id ID) (*Venue, error)
	Save(ctx context.Context, v *Venue) error
	List(ctx context.Context, filter Filter) ([]*Venue, error)
}

// Filter selects venues. Zero-valued fields do not constrain.
type Filter struct {
	OwnerID OwnerID
	Status  Status
	City    string
	Limit   int
	Offset  int
}

func (f Filter) Matches(v *Venue) bool {
	if f.OwnerID != "" && v.Owner != f.OwnerID {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.City != "" && !strings.EqualFold(v.City, f.City) {
		return false
	}
	return true
}

type FacilityParams struct {
	ID         FacilityID
	Name       string
	ExtraPrice money.Money
	Available  bool
}

type CreateParams struct {
	ID         ID
	Owner      OwnerID
	Name       string
	City       string
	Address    string
	Capacity   int
	BasePrice  money.Money
	Facilities []FacilityParams
	Now        time.Time
}

func New(params CreateParams) (*Venue, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, errOwnerRequired
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, ErrNameRequired
	}
	if params.Capacity < 1 {
		return nil, ErrCapacity
	}
	if !params.BasePrice.IsPositive() {
		return nil, ErrBasePrice
	}
	facilities := make([]Facility, 0, len(params.Facilities))
	for _, fp := range params.Facilities {
		if fp.ExtraPrice.Amount < 0 {
			return nil, ErrFacilityPrice
		}
		if fp.ExtraPrice.Currency != params.BasePrice.Currency {
			return nil, money.ErrCurrencyMismatch
		}
		facilities = append(facilities, Facility{
			ID:         fp.ID,
			Name:       strings.TrimSpace(fp.Name),
			ExtraPrice: fp.ExtraPrice,
			Available:  fp.Available,
		})
	}
	now := params.Now.UTC()
	v := &Venue{
		ID:         params.ID,
		Owner:      params.Owner,
		Name:       strings.TrimSpace(params.Name),
		City:       strings.TrimSpace(params.City),
		Address:    strings.TrimSpace(params.Address),
		Capacity:   params.Capacity,
		BasePrice:  params.BasePrice,
		Facilities: facilities,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	v.Record(VenueSubmitted{VenueID: v.ID, OwnerID: v.Owner, At: now})
	return v, nil
}

func (v *Venue) OwnedBy(owner OwnerID) bool {
	return v.Owner == owner
}

func (v *Venue) AcceptsBookings() bool {
	return v.Status == StatusActive
}

// Facility returns the venue facility with the given id.
func (v *Venue) Facility(id FacilityID) (Facility, error) {
	for _, f := range v.Facilities {
		if f.ID == id {
			return f, nil
		}
	}
	return Facility{}, ErrFacilityNotFound
}

// Moderate applies an administrator decision. Pending is only ever an initial status.
func (v *Venue) Moderate(to Status, now time.Time) error {
	switch to {
	case StatusActive, StatusInactive, StatusRejected:
	default:
		return ErrInvalidStatus
	}
	if v.Status == to {
		return nil
	}
	v.changeStatus(to, now)
	return nil
}

type UpdateParams struct {
	Name      string
	City      string
	Address   string
	Capacity  int
	BasePrice money.Money
}

// Update replaces the editable details. Existing bookings keep the price they were quoted.
func (v *Venue) Update(params UpdateParams, now time.Time) error {
	if strings.TrimSpace(params.Name) == "" {
		return ErrNameRequired
	}
	if params.Capacity < 1 {
		return ErrCapacity
	}
	if !params.BasePrice.IsPositive() {
		return ErrBasePrice
	}
	if params.BasePrice.Currency != v.BasePrice.Currency {
		return money.ErrCurrencyMismatch
	}
	v.Name = strings.TrimSpace(params.Name)
	v.City = strings.TrimSpace(params.City)
	v.Address = strings.TrimSpace(params.Address)
	v.Capacity = params.Capacity
	v.BasePrice = params.BasePrice
	v.UpdatedAt = now.UTC()
	v.Record(VenueDetailsUpdated{VenueID: v.ID, BasePrice: v.BasePrice, Capacity: v.Capacity, At: v.UpdatedAt})
	return nil
}

// Deactivate is the owner's soft delete.
func (v *Venue) Deactivate(hasActiveBookings bool, now time.Time) error {
	if hasActiveBookings {
		return ErrHasActiveBookings
	}
	if v.Status == StatusInactive {
		return nil
	}
	v.changeStatus(StatusInactive, now)
	return nil
}

// UpdateRating stores an aggregate computed from the venue's reviews.
func (v *Venue) UpdateRating(rating float64, count int, now time.Time) {
	v.Rating = rating
	v.ReviewCount = count
	v.UpdatedAt = now.UTC()
	v.Record(VenueRatingRecalculated{VenueID: v.ID, Rating: rating, Reviews: count, At: v.UpdatedAt})
}

func (v *Venue) changeStatus(to Status, now time.Time) {
	from := v.Status
	v.Status = to
	v.UpdatedAt = now.UTC()
	v.Record(VenueStatusChanged{VenueID: v.ID, OwnerID: v.Owner, From: from, To: to, At: v.UpdatedAt})
}
