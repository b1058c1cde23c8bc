package venues

import (
	"context"
	"log/slog"
	"strings"

	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
	"venuebook/internal/app/uow"
	domainvenue "venuebook/internal/domain/venue"
)

const (
	getVenueKey   = "venues.get"
	listVenuesKey = "venues.list"

	defaultListLimit = 50
)

// GetVenueQuery returns a venue. Venues that are not active are only visible to their
// owner and to administrators.
type GetVenueQuery struct {
	VenueID string
	Viewer  principal.Principal
}

func (q GetVenueQuery) Key() string { return getVenueKey }

type GetVenueHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetVenueHandler) Handle(ctx context.Context, q GetVenueQuery) (dto.Venue, error) {
	viewer, err := viewerOf(ctx, q.Viewer)
	if err != nil {
		return dto.Venue{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Venue{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	v, err := unit.Venues().ByID(execCtx, domainvenue.ID(strings.TrimSpace(q.VenueID)))
	if err != nil {
		return dto.Venue{}, err
	}
	if !canSee(viewer, v) {
		return dto.Venue{}, domainvenue.ErrNotFound
	}
	return dto.MapVenue(v), nil
}

// ListVenuesQuery lists venues. Public callers only see active venues; Mine restricts
// the result to the viewer's own venues in any status.
type ListVenuesQuery struct {
	Viewer principal.Principal
	Mine   bool
	Status string
	City   string
	Limit  int
	Offset int
}

func (q ListVenuesQuery) Key() string { return listVenuesKey }

type ListVenuesHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListVenuesHandler) Handle(ctx context.Context, q ListVenuesQuery) (dto.VenueCollection, error) {
	viewer, err := viewerOf(ctx, q.Viewer)
	if err != nil {
		return dto.VenueCollection{}, err
	}
	filter := domainvenue.Filter{
		City:   strings.TrimSpace(q.City),
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if q.Status != "" {
		status, err := domainvenue.ParseStatus(q.Status)
		if err != nil {
			return dto.VenueCollection{}, err
		}
		filter.Status = status
	}
	switch {
	case q.Mine:
		if viewer.IsZero() {
			return dto.VenueCollection{}, principal.ErrUnauthenticated
		}
		filter.OwnerID = domainvenue.OwnerID(viewer.UserID)
	case viewer.Is(principal.RoleAdmin):
	default:
		filter.Status = domainvenue.StatusActive
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.VenueCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	venues, err := unit.Venues().List(execCtx, filter)
	if err != nil {
		return dto.VenueCollection{}, err
	}
	if h.Logger != nil {
		h.Logger.Debug("venues listed", "owner_id", filter.OwnerID, "status", filter.Status, "count", len(venues))
	}
	return dto.MapVenues(venues), nil
}

// viewerOf resolves an optional viewer. Anonymous reads stay anonymous; a named viewer
// must be the authenticated caller.
func viewerOf(ctx context.Context, claimed principal.Principal) (principal.Principal, error) {
	if claimed.IsZero() {
		return principal.Principal{}, nil
	}
	return principal.Acting(ctx, claimed)
}

func canSee(viewer principal.Principal, v *domainvenue.Venue) bool {
	if v.Status == domainvenue.StatusActive {
		return true
	}
	if viewer.Is(principal.RoleAdmin) {
		return true
	}
	return viewer.Is(principal.RoleOwner) && v.OwnedBy(domainvenue.OwnerID(viewer.UserID))
}

var _ queries.Handler[GetVenueQuery, dto.Venue] = (*GetVenueHandler)(nil)
var _ queries.Handler[ListVenuesQuery, dto.VenueCollection] = (*ListVenuesHandler)(nil)
