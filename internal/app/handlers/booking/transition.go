package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/notify"
	"venuebook/internal/app/outbox"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/uow"
	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	"venuebook/internal/domain/shared/fault"
	domainvenue "venuebook/internal/domain/venue"
)

const transitionBookingKey = "booking.transition"

var errBookingIDRequired = fault.Validation("booking_id_required", "booking: booking id is required")

// TransitionBookingCommand moves a booking along its lifecycle on behalf of the venue owner.
type TransitionBookingCommand struct {
	Actor     principal.Principal
	BookingID string
	Status    string
	Now       time.Time
}

func (c TransitionBookingCommand) Key() string { return transitionBookingKey }

func (c TransitionBookingCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner, principal.RoleSystem}
}

func (c TransitionBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return errBookingIDRequired
	}
	_, err := domainbooking.ParseStatus(c.Status)
	return err
}

type TransitionBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (dto.Booking, error) {
	to, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return dto.Booking{}, err
	}
	actor, err := principal.Acting(ctx, cmd.Actor)
	if err != nil {
		return dto.Booking{}, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	defer unit.Close()

	b, err := unit.Bookings().ByIDForUpdate(unit.Ctx, domainbooking.ID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return dto.Booking{}, err
	}
	if !actor.Is(principal.RoleSystem) && b.OwnerID != domainvenue.OwnerID(actor.UserID) {
		return dto.Booking{}, domainbooking.ErrNotVenueOwner
	}
	from := b.Status
	now := handlersupport.Now(cmd.Now)
	if err := Transition(unit, b, to, now, h.Encoder); err != nil {
		return dto.Booking{}, err
	}
	if err := unit.Commit(); err != nil {
		return dto.Booking{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking transitioned", "booking_id", b.ID, "from", from, "to", b.Status, "actor", actor.UserID)
	}
	return dto.MapBooking(b), nil
}

// Transition applies one lifecycle edge to a booking loaded for update in w. Rejection
// releases the slot in the same unit. The customer intents are raised on w's context and
// only dispatched once the command commits.
func Transition(w *handlersupport.WriteUnit, b *domainbooking.Booking, to domainbooking.Status, now time.Time, encoder outbox.EventEncoder) error {
	if err := b.Transition(to, now); err != nil {
		return err
	}
	if err := w.Bookings().Save(w.Ctx, b); err != nil {
		return err
	}
	if to == domainbooking.StatusRejected {
		if err := domainavailability.NewStore(w.Availability()).MarkAvailable(w.Ctx, b.SlotKey(), now); err != nil {
			return err
		}
	}
	if err := w.RecordEvents(encoder, b); err != nil {
		return err
	}
	intents := []domainnotification.Intent{domainnotification.BookingStatusChanged(b)}
	if to == domainbooking.StatusCompleted {
		intents = append(intents, domainnotification.ReviewRequest(b))
	}
	notify.Raise(w.Ctx, intents...)
	return nil
}

var _ commands.Handler[TransitionBookingCommand, dto.Booking] = (*TransitionBookingHandler)(nil)
