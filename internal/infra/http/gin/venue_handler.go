package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	venueapp "venuebook/internal/app/handlers/venues"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
)

type VenueHandler struct {
	Endpoint
}

type createVenueRequest struct {
	Name       string                   `json:"name"`
	City       string                   `json:"city"`
	Address    string                   `json:"address"`
	Capacity   int                      `json:"capacity"`
	BasePrice  int64                    `json:"base_price"`
	Facilities []venueapp.FacilityInput `json:"facilities"`
}

type updateVenueRequest struct {
	Name      string `json:"name"`
	City      string `json:"city"`
	Address   string `json:"address"`
	Capacity  int    `json:"capacity"`
	BasePrice int64  `json:"base_price"`
}

func (h VenueHandler) List(c *gin.Context) {
	h.list(c, false)
}

func (h VenueHandler) ListMine(c *gin.Context) {
	if _, ok := requireRole(c, principal.RoleOwner); !ok {
		return
	}
	h.list(c, true)
}

func (h VenueHandler) list(c *gin.Context, mine bool) {
	limit, offset, err := pagination(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	viewer, _ := currentPrincipal(c)
	query := venueapp.ListVenuesQuery{
		Viewer: viewer,
		Mine:   mine,
		Status: c.Query("status"),
		City:   c.Query("city"),
		Limit:  limit,
		Offset: offset,
	}
	result, err := queries.Ask[venueapp.ListVenuesQuery, dto.VenueCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h VenueHandler) Get(c *gin.Context) {
	viewer, _ := currentPrincipal(c)
	query := venueapp.GetVenueQuery{VenueID: pathID(c), Viewer: viewer}
	result, err := queries.Ask[venueapp.GetVenueQuery, dto.Venue](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h VenueHandler) Create(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	var req createVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := venueapp.CreateVenueCommand{
		OwnerID:    owner.UserID,
		Name:       req.Name,
		City:       req.City,
		Address:    req.Address,
		Capacity:   req.Capacity,
		BasePrice:  req.BasePrice,
		Facilities: req.Facilities,
		Now:        h.now(),
	}
	result, err := commands.Dispatch[venueapp.CreateVenueCommand, dto.Venue](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h VenueHandler) Update(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	var req updateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := venueapp.UpdateVenueCommand{
		OwnerID:   owner.UserID,
		VenueID:   pathID(c),
		Name:      req.Name,
		City:      req.City,
		Address:   req.Address,
		Capacity:  req.Capacity,
		BasePrice: req.BasePrice,
		Now:       h.now(),
	}
	result, err := commands.Dispatch[venueapp.UpdateVenueCommand, dto.Venue](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h VenueHandler) Deactivate(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	cmd := venueapp.DeactivateVenueCommand{OwnerID: owner.UserID, VenueID: pathID(c), Now: h.now()}
	result, err := commands.Dispatch[venueapp.DeactivateVenueCommand, dto.Venue](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type AdminHandler struct {
	Endpoint
}

type moderateVenueRequest struct {
	Status string `json:"status"`
}

func (h AdminHandler) ModerateVenue(c *gin.Context) {
	if _, ok := requireRole(c, principal.RoleAdmin); !ok {
		return
	}
	var req moderateVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := venueapp.ModerateVenueCommand{VenueID: pathID(c), Status: req.Status, Now: h.now()}
	result, err := commands.Dispatch[venueapp.ModerateVenueCommand, dto.Venue](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ VenueHTTP = VenueHandler{}
	_ AdminHTTP = AdminHandler{}
)
