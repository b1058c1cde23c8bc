package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"venuebook/internal/domain/booking"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/events"
	"venuebook/internal/domain/shared/fault"
	"venuebook/internal/domain/shared/money"
	"venuebook/internal/domain/venue"
)

var (
	ErrNotFound         = fault.NotFound("payment_not_found", "payment: not found")
	ErrInvalidStatus    = fault.Validation("invalid_payment_status", "payment: status must be one of pending, completed, failed")
	ErrInvalidMethod    = fault.Validation("invalid_payment_method", "payment: method must be bank-transfer or cash")
	ErrInvalidAmount    = fault.Validation("invalid_payment_amount", "payment: amount must be positive")
	ErrAmountExceeds    = fault.Validation("payment_exceeds_total", "payment: amount exceeds booking total")
	ErrNotVenueOwner    = fault.Authorization("payment_not_owned", "payment: caller does not own the venue")
	ErrConcurrentUpdate = fault.Conflict("payment_concurrent_update", "payment: concurrent update detected")
	errIDRequired       = errors.New("payment: id required")
)

type ID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusCompleted, StatusFailed:
		return s, nil
	}
	return "", ErrInvalidStatus
}

type Method string

const (
	MethodBankTransfer Method = "bank-transfer"
	MethodCash         Method = "cash"
)

func ParseMethod(raw string) (Method, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch m := Method(normalized); m {
	case MethodBankTransfer, MethodCash:
		return m, nil
	}
	return "", ErrInvalidMethod
}

// Record tracks what the customer declared they paid. Its status is reconciled
// manually by the venue owner and is independent of the booking status.
type Record struct {
	ID          ID
	BookingID   booking.ID
	VenueID     venue.ID
	OwnerID     venue.OwnerID
	Amount      money.Money
	Method      Method
	TrxID       string
	Status      Status
	PaymentDate time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Record, error)
	ByIDForUpdate(ctx context.Context, id ID) (*Record, error)
	ByBooking(ctx context.Context, bookingID booking.ID) (*Record, error)
	Save(ctx context.Context, r *Record) error
	List(ctx context.Context, filter Filter) ([]*Record, error)
	// SumCompleted totals amounts of completed records matching filter. Status in filter is ignored.
	SumCompleted(ctx context.Context, filter Filter) (money.Money, error)
}

// Filter selects payment records. Zero-valued fields do not constrain.
type Filter struct {
	OwnerID  venue.OwnerID
	VenueIDs []venue.ID
	Status   Status
	Paid     daterange.Range
	Limit    int
	Offset   int
}

func (f Filter) Matches(r *Record) bool {
	if f.OwnerID != "" && r.OwnerID != f.OwnerID {
		return false
	}
	if len(f.VenueIDs) > 0 {
		found := false
		for _, id := range f.VenueIDs {
			if id == r.VenueID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return f.Paid.Contains(daterange.DayOf(r.PaymentDate))
}

type AttachParams struct {
	ID      ID
	Booking *booking.Booking
	Amount  money.Money
	Method  Method
	TrxID   string
	Now     time.Time
}

// Attach creates the pending payment record of a new booking.
func Attach(params AttachParams) (*Record, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errIDRequired
	}
	b := params.Booking
	if b == nil {
		return nil, booking.ErrNotFound
	}
	method, err := ParseMethod(string(params.Method))
	if err != nil {
		return nil, err
	}
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	within, err := params.Amount.LessOrEqual(b.TotalPrice)
	if err != nil {
		return nil, err
	}
	if !within {
		return nil, ErrAmountExceeds.Withf("payment: amount %d exceeds booking total %d", params.Amount.Amount, b.TotalPrice.Amount)
	}
	now := params.Now.UTC()
	return &Record{
		ID:          params.ID,
		BookingID:   b.ID,
		VenueID:     b.VenueID,
		OwnerID:     b.OwnerID,
		Amount:      params.Amount,
		Method:      method,
		TrxID:       strings.TrimSpace(params.TrxID),
		Status:      StatusPending,
		PaymentDate: now,
		UpdatedAt:   now,
	}, nil
}

// UpdateStatus sets any status. Setting the current status is a no-op.
func (r *Record) UpdateStatus(to Status, now time.Time) (bool, error) {
	if _, err := ParseStatus(string(to)); err != nil {
		return false, err
	}
	if r.Status == to {
		return false, nil
	}
	from := r.Status
	r.Status = to
	r.UpdatedAt = now.UTC()
	r.Record(StatusChanged{PaymentID: r.ID, BookingID: r.BookingID, VenueID: r.VenueID, From: from, To: to, Amount: r.Amount, At: r.UpdatedAt})
	return true, nil
}

type StatusChanged struct {
	PaymentID ID
	BookingID booking.ID
	VenueID   venue.ID
	From      Status
	To        Status
	Amount    money.Money
	At        time.Time
}

func (e StatusChanged) EventName() string     { return "payment.status_changed" }
func (e StatusChanged) AggregateID() string   { return string(e.PaymentID) }
func (e StatusChanged) OccurredAt() time.Time { return e.At }
