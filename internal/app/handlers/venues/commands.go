package venues

import (
	"context"
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
	"venuebook/internal/domain/shared/fault"
	"venuebook/internal/domain/shared/money"
	domainvenue "venuebook/internal/domain/venue"
)

const (
	createVenueKey     = "venues.create"
	updateVenueKey     = "venues.update"
	deactivateVenueKey = "venues.deactivate"
	moderateVenueKey   = "venues.moderate"
)

var errOwnerRequired = fault.Validation("owner_required", "venues: owner id is required")

type FacilityInput struct {
	Name       string `json:"name"`
	ExtraPrice int64  `json:"extra_price"`
	Available  *bool  `json:"available"`
}

// CreateVenueCommand submits a venue for moderation.
type CreateVenueCommand struct {
	OwnerID    string
	Name       string
	City       string
	Address    string
	Capacity   int
	BasePrice  int64
	Facilities []FacilityInput
	Now        time.Time
}

func (c CreateVenueCommand) Key() string { return createVenueKey }

func (c CreateVenueCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

func (c CreateVenueCommand) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return errOwnerRequired
	}
	return nil
}

type CreateVenueHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CreateVenueHandler) Handle(ctx context.Context, cmd CreateVenueCommand) (dto.Venue, error) {
	caller, err := principal.Caller(ctx, cmd.OwnerID)
	if err != nil {
		return dto.Venue{}, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Venue{}, err
	}
	defer unit.Close()

	facilities := make([]domainvenue.FacilityParams, 0, len(cmd.Facilities))
	for _, f := range cmd.Facilities {
		available := true
		if f.Available != nil {
			available = *f.Available
		}
		facilities = append(facilities, domainvenue.FacilityParams{
			ID:         domainvenue.FacilityID(uuid.NewString()),
			Name:       f.Name,
			ExtraPrice: money.Money{Amount: f.ExtraPrice, Currency: money.DefaultCurrency},
			Available:  available,
		})
	}
	v, err := domainvenue.New(domainvenue.CreateParams{
		ID:         domainvenue.ID(uuid.NewString()),
		Owner:      domainvenue.OwnerID(caller.UserID),
		Name:       cmd.Name,
		City:       cmd.City,
		Address:    cmd.Address,
		Capacity:   cmd.Capacity,
		BasePrice:  money.Money{Amount: cmd.BasePrice, Currency: money.DefaultCurrency},
		Facilities: facilities,
		Now:        handlersupport.Now(cmd.Now),
	})
	if err != nil {
		return dto.Venue{}, err
	}
	if err := unit.Venues().Save(unit.Ctx, v); err != nil {
		return dto.Venue{}, err
	}
	if err := unit.RecordEvents(h.Encoder, v); err != nil {
		return dto.Venue{}, err
	}
	if err := unit.Commit(); err != nil {
		return dto.Venue{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("venue submitted", "venue_id", v.ID, "owner_id", v.Owner)
	}
	return dto.MapVenue(v), nil
}

// UpdateVenueCommand edits the venue details. Bookings already made keep their quoted price.
type UpdateVenueCommand struct {
	OwnerID   string
	VenueID   string
	Name      string
	City      string
	Address   string
	Capacity  int
	BasePrice int64
	Now       time.Time
}

func (c UpdateVenueCommand) Key() string { return updateVenueKey }

func (c UpdateVenueCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

func (c UpdateVenueCommand) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return errOwnerRequired
	}
	return nil
}

type UpdateVenueHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *UpdateVenueHandler) Handle(ctx context.Context, cmd UpdateVenueCommand) (dto.Venue, error) {
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Venue{}, err
	}
	defer unit.Close()

	v, err := lockOwned(unit, cmd.OwnerID, cmd.VenueID)
	if err != nil {
		return dto.Venue{}, err
	}
	err = v.Update(domainvenue.UpdateParams{
		Name:      cmd.Name,
		City:      cmd.City,
		Address:   cmd.Address,
		Capacity:  cmd.Capacity,
		BasePrice: money.Money{Amount: cmd.BasePrice, Currency: v.BasePrice.Currency},
	}, handlersupport.Now(cmd.Now))
	if err != nil {
		return dto.Venue{}, err
	}
	if err := unit.Venues().Save(unit.Ctx, v); err != nil {
		return dto.Venue{}, err
	}
	if err := unit.RecordEvents(h.Encoder, v); err != nil {
		return dto.Venue{}, err
	}
	if err := unit.Commit(); err != nil {
		return dto.Venue{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("venue updated", "venue_id", v.ID, "base_price", v.BasePrice.Amount)
	}
	return dto.MapVenue(v), nil
}

// DeactivateVenueCommand is the owner's soft delete.
type DeactivateVenueCommand struct {
	OwnerID string
	VenueID string
	Now     time.Time
}

func (c DeactivateVenueCommand) Key() string { return deactivateVenueKey }

func (c DeactivateVenueCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleOwner}
}

type DeactivateVenueHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *DeactivateVenueHandler) Handle(ctx context.Context, cmd DeactivateVenueCommand) (dto.Venue, error) {
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Venue{}, err
	}
	defer unit.Close()

	v, err := lockOwned(unit, cmd.OwnerID, cmd.VenueID)
	if err != nil {
		return dto.Venue{}, err
	}
	active, err := unit.Bookings().Count(unit.Ctx, domainbooking.Filter{
		VenueIDs: []domainvenue.ID{v.ID},
		Statuses: domainbooking.ActiveStatuses,
	})
	if err != nil {
		return dto.Venue{}, err
	}
	if err := v.Deactivate(active > 0, handlersupport.Now(cmd.Now)); err != nil {
		return dto.Venue{}, err
	}
	if err := unit.Venues().Save(unit.Ctx, v); err != nil {
		return dto.Venue{}, err
	}
	if err := unit.RecordEvents(h.Encoder, v); err != nil {
		return dto.Venue{}, err
	}
	if err := unit.Commit(); err != nil {
		return dto.Venue{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("venue deactivated", "venue_id", v.ID, "owner_id", v.Owner)
	}
	return dto.MapVenue(v), nil
}

// ModerateVenueCommand applies an administrator decision to a venue.
type ModerateVenueCommand struct {
	VenueID string
	Status  string
	Now     time.Time
}

func (c ModerateVenueCommand) Key() string { return moderateVenueKey }

func (c ModerateVenueCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleAdmin}
}

func (c ModerateVenueCommand) Validate() error {
	_, err := domainvenue.ParseStatus(c.Status)
	return err
}

type ModerateVenueHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ModerateVenueHandler) Handle(ctx context.Context, cmd ModerateVenueCommand) (dto.Venue, error) {
	status, err := domainvenue.ParseStatus(cmd.Status)
	if err != nil {
		return dto.Venue{}, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Venue{}, err
	}
	defer unit.Close()

	v, err := unit.Venues().ByID(unit.Ctx, domainvenue.ID(cmd.VenueID))
	if err != nil {
		return dto.Venue{}, err
	}
	previous := v.Status
	if err := v.Moderate(status, handlersupport.Now(cmd.Now)); err != nil {
		return dto.Venue{}, err
	}
	if previous == v.Status {
		return dto.MapVenue(v), nil
	}
	if err := unit.Venues().Save(unit.Ctx, v); err != nil {
		return dto.Venue{}, err
	}
	if err := unit.RecordEvents(h.Encoder, v); err != nil {
		return dto.Venue{}, err
	}
	if err := unit.Commit(); err != nil {
		return dto.Venue{}, err
	}
	notify.Raise(ctx, domainnotification.VenueModerated(v))
	if h.Logger != nil {
		h.Logger.Info("venue moderated", "venue_id", v.ID, "from", previous, "to", v.Status)
	}
	return dto.MapVenue(v), nil
}

// lockOwned locks the venue for the rest of the unit and checks the caller owns it.
func lockOwned(unit *handlersupport.WriteUnit, ownerID, venueID string) (*domainvenue.Venue, error) {
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

var _ commands.Handler[CreateVenueCommand, dto.Venue] = (*CreateVenueHandler)(nil)
var _ commands.Handler[UpdateVenueCommand, dto.Venue] = (*UpdateVenueHandler)(nil)
var _ commands.Handler[DeactivateVenueCommand, dto.Venue] = (*DeactivateVenueHandler)(nil)
var _ commands.Handler[ModerateVenueCommand, dto.Venue] = (*ModerateVenueHandler)(nil)
