package notification

import (
	"fmt"
	"strings"

	"venuebook/internal/domain/booking"
	"venuebook/internal/domain/payment"
	"venuebook/internal/domain/review"
	"venuebook/internal/domain/venue"
)

func dedup(parts ...string) string {
	return strings.Join(parts, ":")
}

// BookingRequested tells the venue owner about a new request.
func BookingRequested(b *booking.Booking) Intent {
	return Intent{
		UserID:    string(b.OwnerID),
		Title:     "New Booking Request",
		Message:   fmt.Sprintf("New %s booking for %s on %s (%s) by %s", b.EventType, b.VenueName, b.EventDate, b.Slot, b.Customer.FullName),
		Type:      TypeBooking,
		BookingID: string(b.ID),
		VenueID:   string(b.VenueID),
		DedupKey:  dedup("booking", string(b.ID), "requested"),
	}
}

// BookingStatusChanged tells the customer about an owner or sweep decision.
func BookingStatusChanged(b *booking.Booking) Intent {
	var message string
	switch b.Status {
	case booking.StatusConfirmed:
		message = fmt.Sprintf("Your booking for %s on %s has been confirmed!", b.VenueName, b.EventDate)
	case booking.StatusRejected:
		message = fmt.Sprintf("Your booking for %s on %s has been rejected. The slot has been released.", b.VenueName, b.EventDate)
	case booking.StatusCompleted:
		message = fmt.Sprintf("Your booking for %s is now complete. Thank you for choosing us!", b.VenueName)
	default:
		message = fmt.Sprintf("Your booking status has been updated to %s", b.Status)
	}
	return Intent{
		UserID:    string(b.CustomerID),
		Title:     "Booking " + capitalize(string(b.Status)),
		Message:   message,
		Type:      TypeBooking,
		BookingID: string(b.ID),
		VenueID:   string(b.VenueID),
		DedupKey:  dedup("booking", string(b.ID), string(b.Status)),
	}
}

// ReviewRequest prompts the customer after completion.
func ReviewRequest(b *booking.Booking) Intent {
	return Intent{
		UserID:    string(b.CustomerID),
		Title:     "Share Your Experience",
		Message:   fmt.Sprintf("How was your %s at %s? Click here to leave a review and help others!", b.EventType, b.VenueName),
		Type:      TypeSystem,
		BookingID: string(b.ID),
		VenueID:   string(b.VenueID),
		DedupKey:  dedup("booking", string(b.ID), "review-request"),
	}
}

// PaymentReceived tells the owner a payment was marked completed.
func PaymentReceived(p *payment.Record, venueName string) Intent {
	return Intent{
		UserID:    string(p.OwnerID),
		Title:     "Payment Received",
		Message:   fmt.Sprintf("Payment of Rs. %d received for %s via %s", p.Amount.Amount, venueName, p.Method),
		Type:      TypeBooking,
		BookingID: string(p.BookingID),
		VenueID:   string(p.VenueID),
		DedupKey:  dedup("payment", string(p.ID), string(p.Status), fmt.Sprint(p.UpdatedAt.UnixMilli())),
	}
}

// VenueModerated tells the owner about an admin decision.
func VenueModerated(v *venue.Venue) Intent {
	var title, message string
	switch v.Status {
	case venue.StatusActive:
		title = "Venue Approved"
		message = fmt.Sprintf("Great news! Your venue '%s' has been approved and is now live!", v.Name)
	case venue.StatusRejected:
		title = "Venue Rejected"
		message = fmt.Sprintf("Your venue '%s' submission needs revision. Please check the details and resubmit.", v.Name)
	default:
		title = "Venue " + capitalize(string(v.Status))
		message = fmt.Sprintf("Your venue '%s' status has been updated to %s", v.Name, v.Status)
	}
	return Intent{
		UserID:   string(v.Owner),
		Title:    title,
		Message:  message,
		Type:     TypeVerification,
		VenueID:  string(v.ID),
		DedupKey: dedup("venue", string(v.ID), string(v.Status), fmt.Sprint(v.UpdatedAt.UnixMilli())),
	}
}

// ReviewReceived tells the owner about a new review.
func ReviewReceived(r *review.Review, v *venue.Venue) Intent {
	return Intent{
		UserID:    string(v.Owner),
		Title:     "New Review Received",
		Message:   fmt.Sprintf("Your venue '%s' received a new %d-star review! %s", v.Name, r.Rating, strings.Repeat("⭐", r.Rating)),
		Type:      TypeSystem,
		BookingID: string(r.BookingID),
		VenueID:   string(v.ID),
		DedupKey:  dedup("review", string(r.ID)),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
