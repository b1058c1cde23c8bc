package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/middleware"
	"venuebook/internal/app/notify"
	"venuebook/internal/app/outbox"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/uow"
	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/fault"
	"venuebook/internal/domain/shared/money"
	domainvenue "venuebook/internal/domain/venue"
)

const createBookingKey = "booking.create"

var errCustomerRequired = fault.Validation("customer_required", "booking: customer id is required")

type PaymentInput struct {
	Amount int64  `json:"amount"`
	Method string `json:"method"`
	TrxID  string `json:"trx_id"`
}

// CreateBookingCommand requests a slot for an event. The booking, its payment record and
// the slot flip are written in one unit of work.
type CreateBookingCommand struct {
	CustomerID          string
	VenueID             string
	EventDate           daterange.Day
	Slot                string
	EventType           string
	SpecialRequirements string
	Customer            dto.CustomerDetails
	FacilityIDs         []string
	Payment             PaymentInput
	Now                 time.Time
	IdempotencyKeyV     string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

func (c CreateBookingCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleCustomer}
}

func (c CreateBookingCommand) Validate() error {
	if strings.TrimSpace(c.CustomerID) == "" {
		return errCustomerRequired
	}
	if c.EventDate.IsZero() {
		return daterange.ErrInvalidDay
	}
	if _, err := domainavailability.ParseSlot(c.Slot); err != nil {
		return err
	}
	_, err := domainpayment.ParseMethod(c.Payment.Method)
	return err
}

type CreateBookingResult struct {
	BookingID  string       `json:"booking_id"`
	Status     string       `json:"status"`
	TotalPrice dto.MoneyDTO `json:"total_price"`
	PaymentID  string       `json:"payment_id"`
}

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	if _, err := principal.Caller(ctx, cmd.CustomerID); err != nil {
		return nil, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	now := handlersupport.Now(cmd.Now)
	v, err := unit.Venues().ByIDForUpdate(unit.Ctx, domainvenue.ID(cmd.VenueID))
	if err != nil {
		return nil, err
	}
	facilityIDs := make([]domainvenue.FacilityID, 0, len(cmd.FacilityIDs))
	for _, id := range cmd.FacilityIDs {
		facilityIDs = append(facilityIDs, domainvenue.FacilityID(id))
	}
	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:                  domainbooking.ID(uuid.NewString()),
		CustomerID:          domainbooking.CustomerID(cmd.CustomerID),
		Venue:               v,
		EventDate:           cmd.EventDate,
		Slot:                domainavailability.Slot(cmd.Slot),
		EventType:           cmd.EventType,
		SpecialRequirements: cmd.SpecialRequirements,
		Customer: domainbooking.CustomerDetails{
			FullName:       cmd.Customer.FullName,
			Email:          cmd.Customer.Email,
			PhonePrimary:   cmd.Customer.PhonePrimary,
			PhoneSecondary: cmd.Customer.PhoneSecondary,
		},
		FacilityIDs: facilityIDs,
		Today:       handlersupport.Today(now),
		Now:         now,
	})
	if err != nil {
		return nil, err
	}
	record, err := domainpayment.Attach(domainpayment.AttachParams{
		ID:      domainpayment.ID(uuid.NewString()),
		Booking: b,
		Amount:  money.Money{Amount: cmd.Payment.Amount, Currency: b.TotalPrice.Currency},
		Method:  domainpayment.Method(cmd.Payment.Method),
		TrxID:   cmd.Payment.TrxID,
		Now:     now,
	})
	if err != nil {
		return nil, err
	}

	slots := domainavailability.NewStore(unit.Availability())
	available, err := slots.CheckAvailable(unit.Ctx, b.SlotKey())
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, domainbooking.ErrSlotUnavailable
	}
	if err := unit.Bookings().Save(unit.Ctx, b); err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(unit.Ctx, record); err != nil {
		return nil, err
	}
	if err := slots.MarkUnavailable(unit.Ctx, b.SlotKey(), now); err != nil {
		return nil, err
	}
	if err := unit.RecordEvents(h.Encoder, b, record); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	notify.Raise(ctx, domainnotification.BookingRequested(b))

	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", b.ID, "venue_id", b.VenueID, "event_date", b.EventDate, "slot", b.Slot, "customer_id", b.CustomerID)
	}
	return &CreateBookingResult{
		BookingID:  string(b.ID),
		Status:     string(b.Status),
		TotalPrice: dto.MapMoney(b.TotalPrice),
		PaymentID:  string(record.ID),
	}, nil
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
