package memory

import (
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	domainvenue "venuebook/internal/domain/venue"
)

// Clones drop pending domain events: stored values never carry them.

func cloneVenue(v *domainvenue.Venue) *domainvenue.Venue {
	return &domainvenue.Venue{
		ID:          v.ID,
		Owner:       v.Owner,
		Name:        v.Name,
		City:        v.City,
		Address:     v.Address,
		Capacity:    v.Capacity,
		BasePrice:   v.BasePrice,
		Facilities:  append([]domainvenue.Facility(nil), v.Facilities...),
		Status:      v.Status,
		Rating:      v.Rating,
		ReviewCount: v.ReviewCount,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		Version:     v.Version,
	}
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:                  b.ID,
		CustomerID:          b.CustomerID,
		VenueID:             b.VenueID,
		OwnerID:             b.OwnerID,
		VenueName:           b.VenueName,
		EventDate:           b.EventDate,
		Slot:                b.Slot,
		EventType:           b.EventType,
		SpecialRequirements: b.SpecialRequirements,
		Customer:            b.Customer,
		Facilities:          append([]domainbooking.FacilitySelection(nil), b.Facilities...),
		TotalPrice:          b.TotalPrice,
		Status:              b.Status,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
		Version:             b.Version,
	}
}

func clonePayment(p *domainpayment.Record) *domainpayment.Record {
	return &domainpayment.Record{
		ID:          p.ID,
		BookingID:   p.BookingID,
		VenueID:     p.VenueID,
		OwnerID:     p.OwnerID,
		Amount:      p.Amount,
		Method:      p.Method,
		TrxID:       p.TrxID,
		Status:      p.Status,
		PaymentDate: p.PaymentDate,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

func cloneReview(r *domainreview.Review) *domainreview.Review {
	return &domainreview.Review{
		ID:         r.ID,
		BookingID:  r.BookingID,
		VenueID:    r.VenueID,
		AuthorID:   r.AuthorID,
		Rating:     r.Rating,
		Text:       r.Text,
		ReviewDate: r.ReviewDate,
	}
}

func cloneNotification(n *domainnotification.Notification) *domainnotification.Notification {
	out := *n
	return &out
}

// page applies offset and limit; limit 0 keeps everything after offset.
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
