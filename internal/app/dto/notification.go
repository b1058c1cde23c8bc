package dto

import (
	"time"

	domainnotification "venuebook/internal/domain/notification"
)

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id,omitempty"`
	VenueID   string    `json:"venue_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationCollection struct {
	Items       []Notification `json:"items"`
	UnreadCount int            `json:"unread_count"`
}

func MapNotification(n *domainnotification.Notification) Notification {
	return Notification{
		ID:        string(n.ID),
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		BookingID: n.BookingID,
		VenueID:   n.VenueID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
