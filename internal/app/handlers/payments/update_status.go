package payments

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
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	"venuebook/internal/domain/shared/fault"
	domainvenue "venuebook/internal/domain/venue"
)

const updatePaymentStatusKey = "payments.update_status"

var errPaymentIDRequired = fault.Validation("payment_id_required", "payments: payment id is required")

// UpdatePaymentStatusCommand records the owner's reconciliation of a payment. Any status
// may follow any other; the booking is not affected.
type UpdatePaymentStatusCommand struct {
	OwnerID   string
	PaymentID string
	Status    string
	Now       time.Time
}

func (c UpdatePaymentStatusCommand) Key() string { return updatePaymentStatusKey }

func (c UpdatePaymentStatusCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

func (c UpdatePaymentStatusCommand) Validate() error {
	if strings.TrimSpace(c.PaymentID) == "" {
		return errPaymentIDRequired
	}
	_, err := domainpayment.ParseStatus(c.Status)
	return err
}

type UpdatePaymentStatusHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *UpdatePaymentStatusHandler) Handle(ctx context.Context, cmd UpdatePaymentStatusCommand) (dto.Payment, error) {
	to, err := domainpayment.ParseStatus(cmd.Status)
	if err != nil {
		return dto.Payment{}, err
	}
	caller, err := principal.Caller(ctx, cmd.OwnerID)
	if err != nil {
		return dto.Payment{}, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Payment{}, err
	}
	defer unit.Close()

	record, err := unit.Payments().ByIDForUpdate(unit.Ctx, domainpayment.ID(strings.TrimSpace(cmd.PaymentID)))
	if err != nil {
		return dto.Payment{}, err
	}
	if record.OwnerID != domainvenue.OwnerID(caller.UserID) {
		return dto.Payment{}, domainpayment.ErrNotVenueOwner
	}
	changed, err := record.UpdateStatus(to, handlersupport.Now(cmd.Now))
	if err != nil {
		return dto.Payment{}, err
	}
	if !changed {
		return dto.MapPayment(record), nil
	}
	if err := unit.Payments().Save(unit.Ctx, record); err != nil {
		return dto.Payment{}, err
	}
	if err := unit.RecordEvents(h.Encoder, record); err != nil {
		return dto.Payment{}, err
	}
	if to == domainpayment.StatusCompleted {
		v, err := unit.Venues().ByID(unit.Ctx, record.VenueID)
		if err != nil {
			return dto.Payment{}, err
		}
		notify.Raise(unit.Ctx, domainnotification.PaymentReceived(record, v.Name))
	}
	if err := unit.Commit(); err != nil {
		return dto.Payment{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("payment status updated", "payment_id", record.ID, "booking_id", record.BookingID, "status", record.Status)
	}
	return dto.MapPayment(record), nil
}

var _ commands.Handler[UpdatePaymentStatusCommand, dto.Payment] = (*UpdatePaymentStatusHandler)(nil)
