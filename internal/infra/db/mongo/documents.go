package mongo

import (
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

// Timestamps are stored as unix milliseconds; calendar days as YYYY-MM-DD strings,
// which sort correctly.

func timeToTimestamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func parseDay(raw string) daterange.Day {
	d, err := daterange.ParseDay(raw)
	if err != nil {
		return daterange.Day{}
	}
	return d
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type facilityDocument struct {
	ID         string        `bson:"id"`
	Name       string        `bson:"name"`
	ExtraPrice moneyDocument `bson:"extra_price"`
	Available  bool          `bson:"available"`
}

type venueDocument struct {
	ID          string             `bson:"_id"`
	OwnerID     string             `bson:"owner_id"`
	Name        string             `bson:"name"`
	City        string             `bson:"city"`
	Address     string             `bson:"address"`
	Capacity    int                `bson:"capacity"`
	BasePrice   moneyDocument      `bson:"base_price"`
	Facilities  []facilityDocument `bson:"facilities"`
	Status      string             `bson:"status"`
	Rating      float64            `bson:"rating"`
	ReviewCount int                `bson:"review_count"`
	CreatedAt   int64              `bson:"created_at"`
	UpdatedAt   int64              `bson:"updated_at"`
	Version     int64              `bson:"version"`
}

func newVenueDocument(v *domainvenue.Venue) venueDocument {
	doc := venueDocument{
		ID:          string(v.ID),
		OwnerID:     string(v.Owner),
		Name:        v.Name,
		City:        v.City,
		Address:     v.Address,
		Capacity:    v.Capacity,
		BasePrice:   newMoneyDocument(v.BasePrice),
		Facilities:  make([]facilityDocument, 0, len(v.Facilities)),
		Status:      string(v.Status),
		Rating:      v.Rating,
		ReviewCount: v.ReviewCount,
		CreatedAt:   timeToTimestamp(v.CreatedAt),
		UpdatedAt:   timeToTimestamp(v.UpdatedAt),
		Version:     v.Version,
	}
	for _, f := range v.Facilities {
		doc.Facilities = append(doc.Facilities, facilityDocument{
			ID:         string(f.ID),
			Name:       f.Name,
			ExtraPrice: newMoneyDocument(f.ExtraPrice),
			Available:  f.Available,
		})
	}
	return doc
}

func (d venueDocument) toAggregate() *domainvenue.Venue {
	v := &domainvenue.Venue{
		ID:          domainvenue.ID(d.ID),
		Owner:       domainvenue.OwnerID(d.OwnerID),
		Name:        d.Name,
		City:        d.City,
		Address:     d.Address,
		Capacity:    d.Capacity,
		BasePrice:   d.BasePrice.toMoney(),
		Status:      domainvenue.Status(d.Status),
		Rating:      d.Rating,
		ReviewCount: d.ReviewCount,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
	for _, f := range d.Facilities {
		v.Facilities = append(v.Facilities, domainvenue.Facility{
			ID:         domainvenue.FacilityID(f.ID),
			Name:       f.Name,
			ExtraPrice: f.ExtraPrice.toMoney(),
			Available:  f.Available,
		})
	}
	return v
}

type availabilityDocument struct {
	ID        string `bson:"_id"`
	VenueID   string `bson:"venue_id"`
	Date      string `bson:"date"`
	Slot      string `bson:"slot"`
	Available bool   `bson:"available"`
	UpdatedAt int64  `bson:"updated_at"`
}

func newAvailabilityDocument(e domainavailability.Entry) availabilityDocument {
	return availabilityDocument{
		ID:        e.Key.String(),
		VenueID:   string(e.VenueID),
		Date:      e.Date.String(),
		Slot:      string(e.Slot),
		Available: e.Available,
		UpdatedAt: timeToTimestamp(e.UpdatedAt),
	}
}

func (d availabilityDocument) toEntry() domainavailability.Entry {
	return domainavailability.Entry{
		Key: domainavailability.Key{
			VenueID: domainvenue.ID(d.VenueID),
			Date:    parseDay(d.Date),
			Slot:    domainavailability.Slot(d.Slot),
		},
		Available: d.Available,
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}

type customerDocument struct {
	FullName       string `bson:"full_name"`
	Email          string `bson:"email"`
	PhonePrimary   string `bson:"phone_primary"`
	PhoneSecondary string `bson:"phone_secondary,omitempty"`
}

type selectionDocument struct {
	FacilityID string        `bson:"facility_id"`
	Name       string        `bson:"name"`
	ExtraPrice moneyDocument `bson:"extra_price"`
}

// bookingDocument carries Active so the partial unique index can cover pending and
// confirmed bookings only.
type bookingDocument struct {
	ID                  string              `bson:"_id"`
	CustomerID          string              `bson:"customer_id"`
	VenueID             string              `bson:"venue_id"`
	OwnerID             string              `bson:"owner_id"`
	VenueName           string              `bson:"venue_name"`
	EventDate           string              `bson:"event_date"`
	Slot                string              `bson:"slot"`
	EventType           string              `bson:"event_type"`
	SpecialRequirements string              `bson:"special_requirements"`
	Customer            customerDocument    `bson:"customer"`
	Facilities          []selectionDocument `bson:"facilities"`
	TotalPrice          moneyDocument       `bson:"total_price"`
	Status              string              `bson:"status"`
	Active              bool                `bson:"active"`
	CreatedAt           int64               `bson:"created_at"`
	UpdatedAt           int64               `bson:"updated_at"`
	Version             int64               `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:                  string(b.ID),
		CustomerID:          string(b.CustomerID),
		VenueID:             string(b.VenueID),
		OwnerID:             string(b.OwnerID),
		VenueName:           b.VenueName,
		EventDate:           b.EventDate.String(),
		Slot:                string(b.Slot),
		EventType:           b.EventType,
		SpecialRequirements: b.SpecialRequirements,
		Customer: customerDocument{
			FullName:       b.Customer.FullName,
			Email:          b.Customer.Email,
			PhonePrimary:   b.Customer.PhonePrimary,
			PhoneSecondary: b.Customer.PhoneSecondary,
		},
		Facilities: make([]selectionDocument, 0, len(b.Facilities)),
		TotalPrice: newMoneyDocument(b.TotalPrice),
		Status:     string(b.Status),
		Active:     b.Status.Active(),
		CreatedAt:  timeToTimestamp(b.CreatedAt),
		UpdatedAt:  timeToTimestamp(b.UpdatedAt),
		Version:    b.Version,
	}
	for _, f := range b.Facilities {
		doc.Facilities = append(doc.Facilities, selectionDocument{
			FacilityID: string(f.FacilityID),
			Name:       f.Name,
			ExtraPrice: newMoneyDocument(f.ExtraPrice),
		})
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:                  domainbooking.ID(d.ID),
		CustomerID:          domainbooking.CustomerID(d.CustomerID),
		VenueID:             domainvenue.ID(d.VenueID),
		OwnerID:             domainvenue.OwnerID(d.OwnerID),
		VenueName:           d.VenueName,
		EventDate:           parseDay(d.EventDate),
		Slot:                domainavailability.Slot(d.Slot),
		EventType:           d.EventType,
		SpecialRequirements: d.SpecialRequirements,
		Customer: domainbooking.CustomerDetails{
			FullName:       d.Customer.FullName,
			Email:          d.Customer.Email,
			PhonePrimary:   d.Customer.PhonePrimary,
			PhoneSecondary: d.Customer.PhoneSecondary,
		},
		TotalPrice: d.TotalPrice.toMoney(),
		Status:     domainbooking.Status(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
	for _, f := range d.Facilities {
		b.Facilities = append(b.Facilities, domainbooking.FacilitySelection{
			FacilityID: domainvenue.FacilityID(f.FacilityID),
			Name:       f.Name,
			ExtraPrice: f.ExtraPrice.toMoney(),
		})
	}
	return b
}

type paymentDocument struct {
	ID          string `bson:"_id"`
	BookingID   string `bson:"booking_id"`
	VenueID     string `bson:"venue_id"`
	OwnerID     string `bson:"owner_id"`
	Amount      int64  `bson:"amount"`
	Currency    string `bson:"currency"`
	Method      string `bson:"method"`
	TrxID       string `bson:"trx_id"`
	Status      string `bson:"status"`
	PaymentDate int64  `bson:"payment_date"`
	UpdatedAt   int64  `bson:"updated_at"`
	Version     int64  `bson:"version"`
}

func newPaymentDocument(p *domainpayment.Record) paymentDocument {
	return paymentDocument{
		ID:          string(p.ID),
		BookingID:   string(p.BookingID),
		VenueID:     string(p.VenueID),
		OwnerID:     string(p.OwnerID),
		Amount:      p.Amount.Amount,
		Currency:    p.Amount.Currency,
		Method:      string(p.Method),
		TrxID:       p.TrxID,
		Status:      string(p.Status),
		PaymentDate: timeToTimestamp(p.PaymentDate),
		UpdatedAt:   timeToTimestamp(p.UpdatedAt),
		Version:     p.Version,
	}
}

func (d paymentDocument) toAggregate() *domainpayment.Record {
	return &domainpayment.Record{
		ID:          domainpayment.ID(d.ID),
		BookingID:   domainbooking.ID(d.BookingID),
		VenueID:     domainvenue.ID(d.VenueID),
		OwnerID:     domainvenue.OwnerID(d.OwnerID),
		Amount:      money.Money{Amount: d.Amount, Currency: d.Currency},
		Method:      domainpayment.Method(d.Method),
		TrxID:       d.TrxID,
		Status:      domainpayment.Status(d.Status),
		PaymentDate: timestampToTime(d.PaymentDate),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

type reviewDocument struct {
	ID         string `bson:"_id"`
	BookingID  string `bson:"booking_id"`
	VenueID    string `bson:"venue_id"`
	AuthorID   string `bson:"author_id"`
	Rating     int    `bson:"rating"`
	Text       string `bson:"review_text"`
	ReviewDate int64  `bson:"review_date"`
}

func newReviewDocument(r *domainreview.Review) reviewDocument {
	return reviewDocument{
		ID:         string(r.ID),
		BookingID:  string(r.BookingID),
		VenueID:    string(r.VenueID),
		AuthorID:   string(r.AuthorID),
		Rating:     r.Rating,
		Text:       r.Text,
		ReviewDate: timeToTimestamp(r.ReviewDate),
	}
}

func (d reviewDocument) toAggregate() *domainreview.Review {
	return &domainreview.Review{
		ID:         domainreview.ID(d.ID),
		BookingID:  domainbooking.ID(d.BookingID),
		VenueID:    domainvenue.ID(d.VenueID),
		AuthorID:   domainbooking.CustomerID(d.AuthorID),
		Rating:     d.Rating,
		Text:       d.Text,
		ReviewDate: timestampToTime(d.ReviewDate),
	}
}

type notificationDocument struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	Title     string `bson:"title"`
	Message   string `bson:"message"`
	Type      string `bson:"type"`
	BookingID string `bson:"booking_id,omitempty"`
	VenueID   string `bson:"venue_id,omitempty"`
	IsRead    bool   `bson:"is_read"`
	DedupKey  string `bson:"dedup_key"`
	CreatedAt int64  `bson:"created_at"`
	ReadAt    int64  `bson:"read_at,omitempty"`
}

func newNotificationDocument(n *domainnotification.Notification) notificationDocument {
	return notificationDocument{
		ID:        string(n.ID),
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		BookingID: n.BookingID,
		VenueID:   n.VenueID,
		IsRead:    n.IsRead,
		DedupKey:  n.DedupKey,
		CreatedAt: timeToTimestamp(n.CreatedAt),
		ReadAt:    timeToTimestamp(n.ReadAt),
	}
}

func (d notificationDocument) toAggregate() *domainnotification.Notification {
	return &domainnotification.Notification{
		ID:        domainnotification.ID(d.ID),
		UserID:    d.UserID,
		Title:     d.Title,
		Message:   d.Message,
		Type:      domainnotification.Type(d.Type),
		BookingID: d.BookingID,
		VenueID:   d.VenueID,
		IsRead:    d.IsRead,
		DedupKey:  d.DedupKey,
		CreatedAt: timestampToTime(d.CreatedAt),
		ReadAt:    timestampToTime(d.ReadAt),
	}
}
