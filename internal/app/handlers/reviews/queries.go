package reviews

import (
	"context"
	"sort"
	"strings"

	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
	"venuebook/internal/app/uow"
	domainbooking "venuebook/internal/domain/booking"
	domainreview "venuebook/internal/domain/review"
	"venuebook/internal/domain/shared/fault"
	domainvenue "venuebook/internal/domain/venue"
)

const (
	listVenueReviewsKey = "reviews.list_venue"
	checkReviewKey      = "reviews.check"
	listOwnerReviewsKey = "reviews.list_owner"

	defaultPageSize = 50
)

type ListVenueReviewsQuery struct {
	VenueID string
	Limit   int
	Offset  int
}

func (q ListVenueReviewsQuery) Key() string { return listVenueReviewsKey }

type ListVenueReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle returns one page of reviews. Average and Count come from the venue aggregate.
func (h *ListVenueReviewsHandler) Handle(ctx context.Context, q ListVenueReviewsQuery) (dto.ReviewCollection, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	venueID := domainvenue.ID(strings.TrimSpace(q.VenueID))
	v, err := unit.Venues().ByID(execCtx, venueID)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	items, err := unit.Reviews().ListByVenue(execCtx, venueID, limit, q.Offset)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	out := dto.ReviewCollection{
		Items:   make([]dto.Review, 0, len(items)),
		Average: v.Rating,
		Count:   v.ReviewCount,
	}
	for _, r := range items {
		out.Items = append(out.Items, dto.MapReview(r))
	}
	return out, nil
}

// CheckReviewQuery tells a customer whether a booking already has a review and
// whether one may be written now.
type CheckReviewQuery struct {
	CustomerID string
	BookingID  string
}

func (q CheckReviewQuery) Key() string { return checkReviewKey }

func (q CheckReviewQuery) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleCustomer}
}

type CheckReviewHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckReviewHandler) Handle(ctx context.Context, q CheckReviewQuery) (dto.ReviewCheck, error) {
	caller, err := principal.Caller(ctx, q.CustomerID)
	if err != nil {
		return dto.ReviewCheck{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCheck{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, domainbooking.ID(strings.TrimSpace(q.BookingID)))
	if err != nil {
		return dto.ReviewCheck{}, err
	}
	author := domainbooking.CustomerID(caller.UserID)
	if b.CustomerID != author {
		return dto.ReviewCheck{}, domainreview.ErrOwnership
	}
	reviewed, err := hasReview(execCtx, unit.Reviews(), b.ID)
	if err != nil {
		return dto.ReviewCheck{}, err
	}
	return dto.ReviewCheck{
		HasReview: reviewed,
		CanReview: domainreview.Eligible(b, author, reviewed) == nil,
	}, nil
}

// ListOwnerReviewsQuery lists reviews across the caller's venues. Sort is "review_date"
// (default) or "rating", both descending.
type ListOwnerReviewsQuery struct {
	OwnerID   string
	VenueID   string
	MinRating int
	Sort      string
	Limit     int
	Offset    int
}

func (q ListOwnerReviewsQuery) Key() string { return listOwnerReviewsKey }

func (q ListOwnerReviewsQuery) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

func (q ListOwnerReviewsQuery) Validate() error {
	switch q.Sort {
	case "", sortByDate, sortByRating:
		return nil
	}
	return errInvalidSort
}

const (
	sortByDate   = "review_date"
	sortByRating = "rating"
)

var errInvalidSort = fault.Validation("invalid_sort", "reviews: sort must be review_date or rating")

type ListOwnerReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle pages the filtered reviews. Average and Count describe the whole filtered set.
func (h *ListOwnerReviewsHandler) Handle(ctx context.Context, q ListOwnerReviewsQuery) (dto.ReviewCollection, error) {
	caller, err := principal.Caller(ctx, q.OwnerID)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	venues, err := unit.Venues().List(execCtx, domainvenue.Filter{OwnerID: domainvenue.OwnerID(caller.UserID)})
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	venueID := domainvenue.ID(strings.TrimSpace(q.VenueID))

	var items []dto.Review
	total := 0
	for _, v := range venues {
		if venueID != "" && v.ID != venueID {
			continue
		}
		reviews, err := unit.Reviews().ListByVenue(execCtx, v.ID, 0, 0)
		if err != nil {
			return dto.ReviewCollection{}, err
		}
		for _, r := range reviews {
			if r.Rating < q.MinRating {
				continue
			}
			item := dto.MapReview(r)
			item.VenueName = v.Name
			items = append(items, item)
			total += r.Rating
		}
	}
	sortReviews(items, q.Sort)

	out := dto.ReviewCollection{Items: page(items, q.Limit, q.Offset), Count: len(items)}
	if len(items) > 0 {
		out.Average = float64(total) / float64(len(items))
	}
	return out, nil
}

func sortReviews(items []dto.Review, by string) {
	sort.SliceStable(items, func(i, j int) bool {
		if by == sortByRating && items[i].Rating != items[j].Rating {
			return items[i].Rating > items[j].Rating
		}
		if !items[i].ReviewDate.Equal(items[j].ReviewDate) {
			return items[i].ReviewDate.After(items[j].ReviewDate)
		}
		return items[i].ID < items[j].ID
	})
}

func page(items []dto.Review, limit, offset int) []dto.Review {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 || offset >= len(items) {
		return []dto.Review{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

var _ queries.Handler[ListVenueReviewsQuery, dto.ReviewCollection] = (*ListVenueReviewsHandler)(nil)
var _ queries.Handler[CheckReviewQuery, dto.ReviewCheck] = (*CheckReviewHandler)(nil)
var _ queries.Handler[ListOwnerReviewsQuery, dto.ReviewCollection] = (*ListOwnerReviewsHandler)(nil)
