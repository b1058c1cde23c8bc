package availability

import (
	"context"
	"log/slog"
	"time"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/uow"
	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	"venuebook/internal/domain/shared/daterange"
	domainvenue "venuebook/internal/domain/venue"
)

const (
	toggleSlotKey      = "availability.toggle"
	replaceCalendarKey = "availability.replace"
)

// ToggleSlotCommand is the owner's manual edit of a single slot.
type ToggleSlotCommand struct {
	OwnerID   string
	VenueID   string
	Date      daterange.Day
	Slot      string
	Available bool
	Now       time.Time
}

func (c ToggleSlotCommand) Key() string { return toggleSlotKey }

func (c ToggleSlotCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

func (c ToggleSlotCommand) Validate() error {
	if c.Date.IsZero() {
		return daterange.ErrInvalidDay
	}
	_, err := domainavailability.ParseSlot(c.Slot)
	return err
}

type ToggleSlotHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ToggleSlotHandler) Handle(ctx context.Context, cmd ToggleSlotCommand) (dto.AvailabilityEntry, error) {
	slot, err := domainavailability.ParseSlot(cmd.Slot)
	if err != nil {
		return dto.AvailabilityEntry{}, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AvailabilityEntry{}, err
	}
	defer unit.Close()

	v, err := ownedVenue(unit, cmd.OwnerID, cmd.VenueID)
	if err != nil {
		return dto.AvailabilityEntry{}, err
	}
	key := domainavailability.Key{VenueID: v.ID, Date: cmd.Date, Slot: slot}
	held, err := unit.Bookings().Count(unit.Ctx, domainbooking.Filter{
		VenueIDs:   []domainvenue.ID{v.ID},
		Statuses:   domainbooking.ActiveStatuses,
		EventDates: daterange.Range{From: cmd.Date, To: cmd.Date},
		Slot:       slot,
	})
	if err != nil {
		return dto.AvailabilityEntry{}, err
	}
	now := handlersupport.Now(cmd.Now)
	store := domainavailability.NewStore(unit.Availability())
	if err := store.Toggle(unit.Ctx, key, cmd.Available, held > 0, handlersupport.Today(now), now); err != nil {
		return dto.AvailabilityEntry{}, err
	}
	if err := unit.Commit(); err != nil {
		return dto.AvailabilityEntry{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("availability toggled", "venue_id", v.ID, "date", cmd.Date, "slot", slot, "available", cmd.Available)
	}
	return dto.AvailabilityEntry{Date: cmd.Date.String(), Slot: string(slot), IsAvailable: cmd.Available}, nil
}

type EntryInput struct {
	Date      daterange.Day `json:"date"`
	Slot      string        `json:"slot"`
	Available bool          `json:"is_available"`
}

// ReplaceCalendarCommand replaces the venue calendar from today onwards.
type ReplaceCalendarCommand struct {
	OwnerID string
	VenueID string
	Entries []EntryInput
	Now     time.Time
}

func (c ReplaceCalendarCommand) Key() string { return replaceCalendarKey }

func (c ReplaceCalendarCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

type ReplaceCalendarResult struct {
	VenueID string `json:"venue_id"`
	Stored  int    `json:"stored"`
	Held    int    `json:"held"`
}

type ReplaceCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ReplaceCalendarHandler) Handle(ctx context.Context, cmd ReplaceCalendarCommand) (*ReplaceCalendarResult, error) {
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	v, err := ownedVenue(unit, cmd.OwnerID, cmd.VenueID)
	if err != nil {
		return nil, err
	}
	now := handlersupport.Now(cmd.Now)
	today := handlersupport.Today(now)

	active, err := unit.Bookings().List(unit.Ctx, domainbooking.ActiveOn(v.ID, today))
	if err != nil {
		return nil, err
	}
	held := make([]domainavailability.Key, 0, len(active))
	for _, b := range active {
		held = append(held, b.SlotKey())
	}
	entries := make([]domainavailability.Entry, 0, len(cmd.Entries))
	for _, in := range cmd.Entries {
		slot, err := domainavailability.ParseSlot(in.Slot)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domainavailability.Entry{
			Key:       domainavailability.Key{VenueID: v.ID, Date: in.Date, Slot: slot},
			Available: in.Available,
		})
	}
	store := domainavailability.NewStore(unit.Availability())
	if err := store.BulkReplaceFuture(unit.Ctx, v.ID, entries, held, today, now); err != nil {
		return nil, err
	}
	if err := unit.Commit(); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("availability replaced", "venue_id", v.ID, "entries", len(entries), "held", len(held))
	}
	return &ReplaceCalendarResult{VenueID: string(v.ID), Stored: len(entries), Held: len(held)}, nil
}

// ownedVenue locks the caller's venue so calendar writes and booking creation on it
// run one at a time.
func ownedVenue(unit *handlersupport.WriteUnit, ownerID, venueID string) (*domainvenue.Venue, error) {
	caller, err := principal.Caller(unit.Ctx, ownerID)
	if err != nil {
		return nil, err
	}
	v, err := unit.Venues().ByIDForUpdate(unit.Ctx, domainvenue.ID(venueID))
	if err != nil {
		return nil, err
	}
	if !v.OwnedBy(domainvenue.OwnerID(caller.UserID)) {
		return nil, domainvenue.ErrNotOwned
	}
	return v, nil
}

var _ commands.Handler[ToggleSlotCommand, dto.AvailabilityEntry] = (*ToggleSlotHandler)(nil)
var _ commands.Handler[ReplaceCalendarCommand, *ReplaceCalendarResult] = (*ReplaceCalendarHandler)(nil)
