package payments

import (
	"context"
	"strings"

	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
	"venuebook/internal/app/uow"
	domainpayment "venuebook/internal/domain/payment"
	"venuebook/internal/domain/shared/daterange"
	domainvenue "venuebook/internal/domain/venue"
)

const (
	listOwnerPaymentsKey = "payments.list_owner"

	defaultPageSize = 50
)

// ListOwnerPaymentsQuery lists payment records of the owner's venues. CompletedTotal
// ignores Status and pagination.
type ListOwnerPaymentsQuery struct {
	OwnerID string
	VenueID string
	Status  string
	From    daterange.Day
	To      daterange.Day
	Limit   int
	Offset  int
}

func (q ListOwnerPaymentsQuery) Key() string { return listOwnerPaymentsKey }

func (q ListOwnerPaymentsQuery) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

func (q ListOwnerPaymentsQuery) Validate() error {
	_, err := daterange.NewRange(q.From, q.To)
	return err
}

type ListOwnerPaymentsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListOwnerPaymentsHandler) Handle(ctx context.Context, q ListOwnerPaymentsQuery) (dto.PaymentCollection, error) {
	caller, err := principal.Caller(ctx, q.OwnerID)
	if err != nil {
		return dto.PaymentCollection{}, err
	}
	rng, err := daterange.NewRange(q.From, q.To)
	if err != nil {
		return dto.PaymentCollection{}, err
	}
	filter := domainpayment.Filter{
		OwnerID: domainvenue.OwnerID(caller.UserID),
		Paid:    rng,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if id := strings.TrimSpace(q.VenueID); id != "" {
		filter.VenueIDs = []domainvenue.ID{domainvenue.ID(id)}
	}
	if strings.TrimSpace(q.Status) != "" {
		status, err := domainpayment.ParseStatus(q.Status)
		if err != nil {
			return dto.PaymentCollection{}, err
		}
		filter.Status = status
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PaymentCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	records, err := unit.Payments().List(execCtx, filter)
	if err != nil {
		return dto.PaymentCollection{}, err
	}
	total, err := unit.Payments().SumCompleted(execCtx, filter)
	if err != nil {
		return dto.PaymentCollection{}, err
	}
	out := dto.PaymentCollection{
		Items:          make([]dto.Payment, 0, len(records)),
		CompletedTotal: dto.MapMoney(total),
	}
	for _, r := range records {
		out.Items = append(out.Items, dto.MapPayment(r))
	}
	return out, nil
}

var _ queries.Handler[ListOwnerPaymentsQuery, dto.PaymentCollection] = (*ListOwnerPaymentsHandler)(nil)
