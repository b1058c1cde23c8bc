package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/money"
	domainvenue "venuebook/internal/domain/venue"
)

type facilityJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ExtraPrice int64  `json:"extra_price"`
	Currency   string `json:"currency"`
	Available  bool   `json:"available"`
}

type venueRow struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Name        string    `db:"name"`
	City        string    `db:"city"`
	Address     string    `db:"address"`
	Capacity    int       `db:"capacity"`
	BasePrice   int64     `db:"base_price"`
	Currency    string    `db:"currency"`
	Facilities  []byte    `db:"facilities"`
	Status      string    `db:"status"`
	Rating      float64   `db:"rating"`
	ReviewCount int       `db:"review_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	Version     int64     `db:"version"`
}

var venueColumns = []string{
	"id", "owner_id", "name", "city", "address", "capacity", "base_price", "currency", "facilities",
	"status", "rating", "review_count", "created_at", "updated_at", "version",
}

func venueFacilities(v *domainvenue.Venue) (string, error) {
	out := make([]facilityJSON, 0, len(v.Facilities))
	for _, f := range v.Facilities {
		out = append(out, facilityJSON{
			ID:         string(f.ID),
			Name:       f.Name,
			ExtraPrice: f.ExtraPrice.Amount,
			Currency:   f.ExtraPrice.Currency,
			Available:  f.Available,
		})
	}
	raw, err := json.Marshal(out)
	return string(raw), err
}

func (r venueRow) toDomain() (*domainvenue.Venue, error) {
	var facilities []facilityJSON
	if err := json.Unmarshal(r.Facilities, &facilities); err != nil {
		return nil, fmt.Errorf("failed to decode facilities of venue %s: %w", r.ID, err)
	}
	v := &domainvenue.Venue{
		ID:          domainvenue.ID(r.ID),
		Owner:       domainvenue.OwnerID(r.OwnerID),
		Name:        r.Name,
		City:        r.City,
		Address:     r.Address,
		Capacity:    r.Capacity,
		BasePrice:   money.Money{Amount: r.BasePrice, Currency: r.Currency},
		Status:      domainvenue.Status(r.Status),
		Rating:      r.Rating,
		ReviewCount: r.ReviewCount,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		Version:     r.Version,
	}
	for _, f := range facilities {
		v.Facilities = append(v.Facilities, domainvenue.Facility{
			ID:         domainvenue.FacilityID(f.ID),
			Name:       f.Name,
			ExtraPrice: money.Money{Amount: f.ExtraPrice, Currency: f.Currency},
			Available:  f.Available,
		})
	}
	return v, nil
}

type availabilityRow struct {
	VenueID     string    `db:"venue_id"`
	Date        time.Time `db:"date"`
	Slot        string    `db:"slot"`
	IsAvailable bool      `db:"is_available"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r availabilityRow) toDomain() domainavailability.Entry {
	return domainavailability.Entry{
		Key: domainavailability.Key{
			VenueID: domainvenue.ID(r.VenueID),
			Date:    daterange.DayOf(r.Date),
			Slot:    domainavailability.Slot(r.Slot),
		},
		Available: r.IsAvailable,
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type customerJSON struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	PhonePrimary   string `json:"phone_primary"`
	PhoneSecondary string `json:"phone_secondary,omitempty"`
}

type selectionJSON struct {
	FacilityID string `json:"facility_id"`
	Name       string `json:"name"`
	ExtraPrice int64  `json:"extra_price"`
	Currency   string `json:"currency"`
}

type bookingRow struct {
	ID                  string    `db:"id"`
	CustomerID          string    `db:"customer_id"`
	VenueID             string    `db:"venue_id"`
	OwnerID             string    `db:"owner_id"`
	VenueName           string    `db:"venue_name"`
	EventDate           time.Time `db:"event_date"`
	Slot                string    `db:"slot"`
	EventType           string    `db:"event_type"`
	SpecialRequirements string    `db:"special_requirements"`
	CustomerDetails     []byte    `db:"customer_details"`
	Facilities          []byte    `db:"facilities"`
	TotalPrice          int64     `db:"total_price"`
	Currency            string    `db:"currency"`
	Status              string    `db:"status"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
	Version             int64     `db:"version"`
}

var bookingColumns = []string{
	"id", "customer_id", "venue_id", "owner_id", "venue_name", "event_date", "slot", "event_type",
	"special_requirements", "customer_details", "facilities", "total_price", "currency", "status",
	"created_at", "updated_at", "version",
}

func bookingDocuments(b *domainbooking.Booking) (customer string, facilities string, err error) {
	rawCustomer, err := json.Marshal(customerJSON{
		FullName:       b.Customer.FullName,
		Email:          b.Customer.Email,
		PhonePrimary:   b.Customer.PhonePrimary,
		PhoneSecondary: b.Customer.PhoneSecondary,
	})
	if err != nil {
		return "", "", err
	}
	selections := make([]selectionJSON, 0, len(b.Facilities))
	for _, f := range b.Facilities {
		selections = append(selections, selectionJSON{
			FacilityID: string(f.FacilityID),
			Name:       f.Name,
			ExtraPrice: f.ExtraPrice.Amount,
			Currency:   f.ExtraPrice.Currency,
		})
	}
	rawFacilities, err := json.Marshal(selections)
	if err != nil {
		return "", "", err
	}
	return string(rawCustomer), string(rawFacilities), nil
}

func (r bookingRow) toDomain() (*domainbooking.Booking, error) {
	var customer customerJSON
	if err := json.Unmarshal(r.CustomerDetails, &customer); err != nil {
		return nil, fmt.Errorf("failed to decode customer of booking %s: %w", r.ID, err)
	}
	var selections []selectionJSON
	if err := json.Unmarshal(r.Facilities, &selections); err != nil {
		return nil, fmt.Errorf("failed to decode facilities of booking %s: %w", r.ID, err)
	}
	b := &domainbooking.Booking{
		ID:                  domainbooking.ID(r.ID),
		CustomerID:          domainbooking.CustomerID(r.CustomerID),
		VenueID:             domainvenue.ID(r.VenueID),
		OwnerID:             domainvenue.OwnerID(r.OwnerID),
		VenueName:           r.VenueName,
		EventDate:           daterange.DayOf(r.EventDate),
		Slot:                domainavailability.Slot(r.Slot),
		EventType:           r.EventType,
		SpecialRequirements: r.SpecialRequirements,
		Customer: domainbooking.CustomerDetails{
			FullName:       customer.FullName,
			Email:          customer.Email,
			PhonePrimary:   customer.PhonePrimary,
			PhoneSecondary: customer.PhoneSecondary,
		},
		TotalPrice: money.Money{Amount: r.TotalPrice, Currency: r.Currency},
		Status:     domainbooking.Status(r.Status),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
		Version:    r.Version,
	}
	for _, f := range selections {
		b.Facilities = append(b.Facilities, domainbooking.FacilitySelection{
			FacilityID: domainvenue.FacilityID(f.FacilityID),
			Name:       f.Name,
			ExtraPrice: money.Money{Amount: f.ExtraPrice, Currency: f.Currency},
		})
	}
	return b, nil
}

type paymentRow struct {
	ID          string    `db:"id"`
	BookingID   string    `db:"booking_id"`
	VenueID     string    `db:"venue_id"`
	OwnerID     string    `db:"owner_id"`
	Amount      int64     `db:"amount"`
	Currency    string    `db:"currency"`
	Method      string    `db:"method"`
	TrxID       string    `db:"trx_id"`
	Status      string    `db:"status"`
	PaymentDate time.Time `db:"payment_date"`
	UpdatedAt   time.Time `db:"updated_at"`
	Version     int64     `db:"version"`
}

var paymentColumns = []string{
	"id", "booking_id", "venue_id", "owner_id", "amount", "currency", "method", "trx_id", "status",
	"payment_date", "updated_at", "version",
}

func (r paymentRow) toDomain() *domainpayment.Record {
	return &domainpayment.Record{
		ID:          domainpayment.ID(r.ID),
		BookingID:   domainbooking.ID(r.BookingID),
		VenueID:     domainvenue.ID(r.VenueID),
		OwnerID:     domainvenue.OwnerID(r.OwnerID),
		Amount:      money.Money{Amount: r.Amount, Currency: r.Currency},
		Method:      domainpayment.Method(r.Method),
		TrxID:       r.TrxID,
		Status:      domainpayment.Status(r.Status),
		PaymentDate: r.PaymentDate.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		Version:     r.Version,
	}
}

type reviewRow struct {
	ID         string    `db:"id"`
	BookingID  string    `db:"booking_id"`
	VenueID    string    `db:"venue_id"`
	AuthorID   string    `db:"author_id"`
	Rating     int       `db:"rating"`
	Text       string    `db:"review_text"`
	ReviewDate time.Time `db:"review_date"`
}

var reviewColumns = []string{"id", "booking_id", "venue_id", "author_id", "rating", "review_text", "review_date"}

func (r reviewRow) toDomain() *domainreview.Review {
	return &domainreview.Review{
		ID:         domainreview.ID(r.ID),
		BookingID:  domainbooking.ID(r.BookingID),
		VenueID:    domainvenue.ID(r.VenueID),
		AuthorID:   domainbooking.CustomerID(r.AuthorID),
		Rating:     r.Rating,
		Text:       r.Text,
		ReviewDate: r.ReviewDate.UTC(),
	}
}

type notificationRow struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Title     string       `db:"title"`
	Message   string       `db:"message"`
	Type      string       `db:"type"`
	BookingID string       `db:"booking_id"`
	VenueID   string       `db:"venue_id"`
	IsRead    bool         `db:"is_read"`
	DedupKey  string       `db:"dedup_key"`
	CreatedAt time.Time    `db:"created_at"`
	ReadAt    sql.NullTime `db:"read_at"`
}

var notificationColumns = []string{
	"id", "user_id", "title", "message", "type", "booking_id", "venue_id", "is_read", "dedup_key",
	"created_at", "read_at",
}

func (r notificationRow) toDomain() *domainnotification.Notification {
	n := &domainnotification.Notification{
		ID:        domainnotification.ID(r.ID),
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      domainnotification.Type(r.Type),
		BookingID: r.BookingID,
		VenueID:   r.VenueID,
		IsRead:    r.IsRead,
		DedupKey:  r.DedupKey,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.ReadAt.Valid {
		n.ReadAt = r.ReadAt.Time.UTC()
	}
	return n
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
