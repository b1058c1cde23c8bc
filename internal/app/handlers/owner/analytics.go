package owner

import (
	"context"
	"time"

	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
	"venuebook/internal/app/uow"
	domainbooking "venuebook/internal/domain/booking"
	domainpayment "venuebook/internal/domain/payment"
	"venuebook/internal/domain/shared/daterange"
	"venuebook/internal/domain/shared/fault"
	"venuebook/internal/domain/shared/money"
	domainvenue "venuebook/internal/domain/venue"
)

const analyticsKey = "owner.analytics"

var errInvalidYear = fault.Validation("invalid_year", "owner: year must be between 2000 and 2100")

// AnalyticsQuery reports completed revenue per month of Year by payment date, and the
// number of bookings per month by event date. Year 0 means the current year.
type AnalyticsQuery struct {
	OwnerID string
	Year    int
}

func (q AnalyticsQuery) Key() string { return analyticsKey }

func (q AnalyticsQuery) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

func (q AnalyticsQuery) Validate() error {
	if q.Year != 0 && (q.Year < 2000 || q.Year > 2100) {
		return errInvalidYear
	}
	return nil
}

type AnalyticsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AnalyticsHandler) Handle(ctx context.Context, q AnalyticsQuery) (dto.OwnerAnalytics, error) {
	caller, err := principal.Caller(ctx, q.OwnerID)
	if err != nil {
		return dto.OwnerAnalytics{}, err
	}
	year := q.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OwnerAnalytics{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	owner := domainvenue.OwnerID(caller.UserID)
	total := money.Zero(money.DefaultCurrency)
	out := dto.OwnerAnalytics{Year: year, Months: make([]dto.MonthlyRevenue, 0, 12)}
	for month := time.January; month <= time.December; month++ {
		rng := daterange.Range{
			From: daterange.NewDay(year, month, 1),
			To:   daterange.NewDay(year, month+1, 1).AddDays(-1),
		}
		revenue, err := unit.Payments().SumCompleted(execCtx, domainpayment.Filter{OwnerID: owner, Paid: rng})
		if err != nil {
			return dto.OwnerAnalytics{}, err
		}
		bookings, err := unit.Bookings().Count(execCtx, domainbooking.Filter{OwnerID: owner, EventDates: rng})
		if err != nil {
			return dto.OwnerAnalytics{}, err
		}
		if total, err = total.Add(revenue); err != nil {
			return dto.OwnerAnalytics{}, err
		}
		out.Months = append(out.Months, dto.MonthlyRevenue{
			Month:    int(month),
			Revenue:  dto.MapMoney(revenue),
			Bookings: bookings,
		})
	}
	out.Total = dto.MapMoney(total)
	return out, nil
}

var _ queries.Handler[AnalyticsQuery, dto.OwnerAnalytics] = (*AnalyticsHandler)(nil)
