package availability

import (
	"context"
	"sort"

	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/queries"
	"venuebook/internal/app/uow"
	domainavailability "venuebook/internal/domain/availability"
	"venuebook/internal/domain/shared/daterange"
	domainvenue "venuebook/internal/domain/venue"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	VenueID string
	From    daterange.Day
	To      daterange.Day
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

func (q GetCalendarQuery) Validate() error {
	_, err := daterange.NewRange(q.From, q.To)
	return err
}

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	rng, err := daterange.NewRange(q.From, q.To)
	if err != nil {
		return dto.Calendar{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	venueID := domainvenue.ID(q.VenueID)
	if _, err := unit.Venues().ByID(execCtx, venueID); err != nil {
		return dto.Calendar{}, err
	}
	entries, err := unit.Availability().List(execCtx, venueID, rng)
	if err != nil {
		return dto.Calendar{}, err
	}
	sortEntries(entries)

	out := dto.Calendar{VenueID: q.VenueID, Entries: make([]dto.AvailabilityEntry, 0, len(entries))}
	if !q.From.IsZero() {
		out.From = q.From.String()
	}
	if !q.To.IsZero() {
		out.To = q.To.String()
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.MapAvailabilityEntry(e))
	}
	return out, nil
}

var slotOrder = map[domainavailability.Slot]int{
	domainavailability.SlotMorning: 0,
	domainavailability.SlotEvening: 1,
	domainavailability.SlotFullDay: 2,
}

func sortEntries(entries []domainavailability.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return slotOrder[entries[i].Slot] < slotOrder[entries[j].Slot]
	})
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
