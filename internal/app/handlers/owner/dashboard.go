package owner

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	handlerbooking "venuebook/internal/app/handlers/booking"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/outbox"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/uow"
	domainbooking "venuebook/internal/domain/booking"
	domainpayment "venuebook/internal/domain/payment"
	"venuebook/internal/domain/shared/fault"
	domainvenue "venuebook/internal/domain/venue"
)

const (
	dashboardKey = "owner.dashboard"

	topVenueCount      = 5
	recentBookingCount = 5
)

var errOwnerRequired = fault.Validation("owner_required", "owner: owner id is required")

var dashboardStatuses = []domainbooking.Status{
	domainbooking.StatusPending,
	domainbooking.StatusConfirmed,
	domainbooking.StatusRejected,
	domainbooking.StatusCompleted,
}

// DashboardCommand builds the owner dashboard. It is a command because it first completes
// the owner's due bookings in the same unit of work.
type DashboardCommand struct {
	OwnerID string
	Now     time.Time
}

func (c DashboardCommand) Key() string { return dashboardKey }

func (c DashboardCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

func (c DashboardCommand) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return errOwnerRequired
	}
	return nil
}

type DashboardHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *DashboardHandler) Handle(ctx context.Context, cmd DashboardCommand) (dto.OwnerDashboard, error) {
	caller, err := principal.Caller(ctx, cmd.OwnerID)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	defer unit.Close()

	owner := domainvenue.OwnerID(caller.UserID)
	now := handlersupport.Now(cmd.Now)
	swept, err := handlerbooking.SweepDue(unit, owner, handlersupport.Today(now), now, h.Encoder)
	if err != nil {
		return dto.OwnerDashboard{}, err
	}

	venues, err := unit.Venues().List(unit.Ctx, domainvenue.Filter{OwnerID: owner})
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	out := dto.OwnerDashboard{
		TotalVenues:      len(venues),
		BookingsByStatus: make(map[string]int, len(dashboardStatuses)),
		TopVenues:        make([]dto.VenueRevenue, 0, len(venues)),
		RecentBookings:   make([]dto.Booking, 0, recentBookingCount),
		CompletedBySweep: swept,
	}
	for _, status := range dashboardStatuses {
		n, err := unit.Bookings().Count(unit.Ctx, domainbooking.Filter{OwnerID: owner, Statuses: []domainbooking.Status{status}})
		if err != nil {
			return dto.OwnerDashboard{}, err
		}
		out.BookingsByStatus[string(status)] = n
		out.TotalBookings += n
	}
	revenue, err := unit.Payments().SumCompleted(unit.Ctx, domainpayment.Filter{OwnerID: owner})
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	out.Revenue = dto.MapMoney(revenue)
	out.AverageRating = averageRating(venues)

	for _, v := range venues {
		venueRevenue, err := unit.Payments().SumCompleted(unit.Ctx, domainpayment.Filter{OwnerID: owner, VenueIDs: []domainvenue.ID{v.ID}})
		if err != nil {
			return dto.OwnerDashboard{}, err
		}
		count, err := unit.Bookings().Count(unit.Ctx, domainbooking.Filter{OwnerID: owner, VenueIDs: []domainvenue.ID{v.ID}})
		if err != nil {
			return dto.OwnerDashboard{}, err
		}
		out.TopVenues = append(out.TopVenues, dto.VenueRevenue{
			VenueID:   string(v.ID),
			VenueName: v.Name,
			Revenue:   dto.MapMoney(venueRevenue),
			Bookings:  count,
		})
	}
	sort.SliceStable(out.TopVenues, func(i, j int) bool {
		return out.TopVenues[i].Revenue.Amount > out.TopVenues[j].Revenue.Amount
	})
	if len(out.TopVenues) > topVenueCount {
		out.TopVenues = out.TopVenues[:topVenueCount]
	}

	recent, err := unit.Bookings().List(unit.Ctx, domainbooking.Filter{
		OwnerID: owner,
		Order:   domainbooking.OrderCreatedDesc,
		Limit:   recentBookingCount,
	})
	if err != nil {
		return dto.OwnerDashboard{}, err
	}
	for _, b := range recent {
		out.RecentBookings = append(out.RecentBookings, dto.MapBooking(b))
	}

	if err := unit.Commit(); err != nil {
		return dto.OwnerDashboard{}, err
	}
	if h.Logger != nil && swept > 0 {
		h.Logger.Info("dashboard sweep completed bookings", "owner_id", owner, "count", swept)
	}
	return out, nil
}

// averageRating weights each venue's rating by its review count.
func averageRating(venues []*domainvenue.Venue) float64 {
	var sum float64
	var reviews int
	for _, v := range venues {
		sum += v.Rating * float64(v.ReviewCount)
		reviews += v.ReviewCount
	}
	if reviews == 0 {
		return 0
	}
	return sum / float64(reviews)
}

var _ commands.Handler[DashboardCommand, dto.OwnerDashboard] = (*DashboardHandler)(nil)
