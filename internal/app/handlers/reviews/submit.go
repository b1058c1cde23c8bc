package reviews

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/notify"
	"venuebook/internal/app/outbox"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/uow"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainreview "venuebook/internal/domain/review"
	"venuebook/internal/domain/shared/fault"
)

const submitReviewKey = "reviews.submit"

var errBookingIDRequired = fault.Validation("booking_id_required", "reviews: booking id is required")

// SubmitReviewCommand reviews a completed booking. The venue rating is recomputed from
// all of its reviews in the same unit of work.
type SubmitReviewCommand struct {
	AuthorID  string
	BookingID string
	Rating    int
	Text      string
	Now       time.Time
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

func (c SubmitReviewCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleCustomer}
}

func (c SubmitReviewCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return errBookingIDRequired
	}
	return nil
}

type SubmitReviewHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (dto.Review, error) {
	author, err := principal.Caller(ctx, cmd.AuthorID)
	if err != nil {
		return dto.Review{}, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Review{}, err
	}
	defer unit.Close()

	b, err := unit.Bookings().ByID(unit.Ctx, domainbooking.ID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return dto.Review{}, err
	}
	reviewed, err := hasReview(unit.Ctx, unit.Reviews(), b.ID)
	if err != nil {
		return dto.Review{}, err
	}
	now := handlersupport.Now(cmd.Now)
	r, err := domainreview.Submit(domainreview.SubmitParams{
		ID:          domainreview.ID(uuid.NewString()),
		Booking:     b,
		AuthorID:    domainbooking.CustomerID(author.UserID),
		Rating:      cmd.Rating,
		Text:        cmd.Text,
		AlreadyDone: reviewed,
		Now:         now,
	})
	if err != nil {
		return dto.Review{}, err
	}
	if err := unit.Reviews().Save(unit.Ctx, r); err != nil {
		return dto.Review{}, err
	}

	v, err := unit.Venues().ByID(unit.Ctx, b.VenueID)
	if err != nil {
		return dto.Review{}, err
	}
	all, err := unit.Reviews().ListByVenue(unit.Ctx, b.VenueID, 0, 0)
	if err != nil {
		return dto.Review{}, err
	}
	v.UpdateRating(domainreview.Average(all), len(all), now)
	if err := unit.Venues().Save(unit.Ctx, v); err != nil {
		return dto.Review{}, err
	}
	if err := unit.RecordEvents(h.Encoder, r, v); err != nil {
		return dto.Review{}, err
	}
	notify.Raise(unit.Ctx, domainnotification.ReviewReceived(r, v))
	if err := unit.Commit(); err != nil {
		return dto.Review{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("review submitted", "review_id", r.ID, "venue_id", v.ID, "rating", r.Rating, "venue_rating", v.Rating)
	}
	return dto.MapReview(r), nil
}

func hasReview(ctx context.Context, repo domainreview.Repository, bookingID domainbooking.ID) (bool, error) {
	_, err := repo.ByBooking(ctx, bookingID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domainreview.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

var _ commands.Handler[SubmitReviewCommand, dto.Review] = (*SubmitReviewHandler)(nil)
