package notification

import (
	"context"
	"errors"
	"strings"
	"time"

	"venuebook/internal/domain/shared/fault"
)

var (
	ErrNotFound      = fault.NotFound("notification_not_found", "notification: not found")
	ErrInvalidType   = fault.Validation("invalid_notification_type", "notification: type must be booking, system or verification")
	ErrRecipient     = fault.Validation("notification_recipient", "notification: recipient is required")
	ErrTitleRequired = fault.Validation("notification_title", "notification: title is required")
	ErrNotRecipient  = fault.Authorization("notification_not_recipient", "notification: addressed to another user")
	ErrDuplicate     = errors.New("notification: duplicate delivery")
	errIDRequired    = errors.New("notification: id required")
	errDedupRequired = errors.New("notification: dedup key required")
)

type ID string

type Type string

const (
	TypeBooking      Type = "booking"
	TypeSystem       Type = "system"
	TypeVerification Type = "verification"
)

func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeBooking, TypeSystem, TypeVerification:
		return t, nil
	}
	return "", ErrInvalidType
}

// Intent is a request to notify a user. DedupKey identifies the triggering fact so
// that redelivery of the same intent stores one notification.
type Intent struct {
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      Type   `json:"type"`
	BookingID string `json:"booking_id,omitempty"`
	VenueID   string `json:"venue_id,omitempty"`
	DedupKey  string `json:"dedup_key"`
}

func (i Intent) Validate() error {
	if strings.TrimSpace(i.UserID) == "" {
		return ErrRecipient
	}
	if strings.TrimSpace(i.Title) == "" {
		return ErrTitleRequired
	}
	if _, err := ParseType(string(i.Type)); err != nil {
		return err
	}
	if strings.TrimSpace(i.DedupKey) == "" {
		return errDedupRequired
	}
	return nil
}

type Notification struct {
	ID        ID
	UserID    string
	Title     string
	Message   string
	Type      Type
	BookingID string
	VenueID   string
	IsRead    bool
	DedupKey  string
	CreatedAt time.Time
	ReadAt    time.Time
}

type Repository interface {
	// Save inserts a notification; an existing dedup key yields ErrDuplicate.
	Save(ctx context.Context, n *Notification) error
	ByID(ctx context.Context, id ID) (*Notification, error)
	List(ctx context.Context, filter Filter) ([]*Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id ID, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
}

type Filter struct {
	UserID string
	IsRead *bool
	Type   Type
	Limit  int
	Offset int
}

func (f Filter) Matches(n *Notification) bool {
	if f.UserID != "" && n.UserID != f.UserID {
		return false
	}
	if f.IsRead != nil && n.IsRead != *f.IsRead {
		return false
	}
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	return true
}

func New(id ID, intent Intent, now time.Time) (*Notification, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, errIDRequired
	}
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	return &Notification{
		ID:        id,
		UserID:    intent.UserID,
		Title:     strings.TrimSpace(intent.Title),
		Message:   strings.TrimSpace(intent.Message),
		Type:      intent.Type,
		BookingID: intent.BookingID,
		VenueID:   intent.VenueID,
		DedupKey:  intent.DedupKey,
		CreatedAt: now.UTC(),
	}, nil
}
