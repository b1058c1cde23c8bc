package dto

import (
	"time"

	domainbooking "venuebook/internal/domain/booking"
)

type CustomerDetails struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	PhonePrimary   string `json:"phone_primary"`
	PhoneSecondary string `json:"phone_secondary,omitempty"`
}

type FacilitySelection struct {
	FacilityID string   `json:"facility_id"`
	Name       string   `json:"name"`
	ExtraPrice MoneyDTO `json:"extra_price"`
}

type Booking struct {
	ID                  string              `json:"id"`
	CustomerID          string              `json:"customer_id"`
	VenueID             string              `json:"venue_id"`
	VenueName           string              `json:"venue_name"`
	EventDate           string              `json:"event_date"`
	Slot                string              `json:"slot"`
	EventType           string              `json:"event_type"`
	SpecialRequirements string              `json:"special_requirements,omitempty"`
	Customer            CustomerDetails     `json:"customer_details"`
	Facilities          []FacilitySelection `json:"facilities"`
	TotalPrice          MoneyDTO            `json:"total_price"`
	Status              string              `json:"status"`
	Payment             *Payment            `json:"payment,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

type BookingCollection struct {
	Items  []Booking `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	facilities := make([]FacilitySelection, 0, len(b.Facilities))
	for _, f := range b.Facilities {
		facilities = append(facilities, FacilitySelection{
			FacilityID: string(f.FacilityID),
			Name:       f.Name,
			ExtraPrice: MapMoney(f.ExtraPrice),
		})
	}
	return Booking{
		ID:                  string(b.ID),
		CustomerID:          string(b.CustomerID),
		VenueID:             string(b.VenueID),
		VenueName:           b.VenueName,
		EventDate:           b.EventDate.String(),
		Slot:                string(b.Slot),
		EventType:           b.EventType,
		SpecialRequirements: b.SpecialRequirements,
		Customer: CustomerDetails{
			FullName:       b.Customer.FullName,
			Email:          b.Customer.Email,
			PhonePrimary:   b.Customer.PhonePrimary,
			PhoneSecondary: b.Customer.PhoneSecondary,
		},
		Facilities: facilities,
		TotalPrice: MapMoney(b.TotalPrice),
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}
