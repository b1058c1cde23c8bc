package dto

import (
	"time"

	domainvenue "venuebook/internal/domain/venue"
)

type Facility struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ExtraPrice MoneyDTO `json:"extra_price"`
	Available  bool     `json:"available"`
}

type Venue struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	City        string     `json:"city"`
	Address     string     `json:"address"`
	Capacity    int        `json:"capacity"`
	BasePrice   MoneyDTO   `json:"base_price"`
	Facilities  []Facility `json:"facilities"`
	Status      string     `json:"status"`
	Rating      float64    `json:"rating"`
	ReviewCount int        `json:"review_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type VenueCollection struct {
	Items []Venue `json:"items"`
}

func MapVenue(v *domainvenue.Venue) Venue {
	facilities := make([]Facility, 0, len(v.Facilities))
	for _, f := range v.Facilities {
		facilities = append(facilities, Facility{
			ID:         string(f.ID),
			Name:       f.Name,
			ExtraPrice: MapMoney(f.ExtraPrice),
			Available:  f.Available,
		})
	}
	return Venue{
		ID:          string(v.ID),
		OwnerID:     string(v.Owner),
		Name:        v.Name,
		City:        v.City,
		Address:     v.Address,
		Capacity:    v.Capacity,
		BasePrice:   MapMoney(v.BasePrice),
		Facilities:  facilities,
		Status:      string(v.Status),
		Rating:      v.Rating,
		ReviewCount: v.ReviewCount,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func MapVenues(venues []*domainvenue.Venue) VenueCollection {
	items := make([]Venue, 0, len(venues))
	for _, v := range venues {
		items = append(items, MapVenue(v))
	}
	return VenueCollection{Items: items}
}
