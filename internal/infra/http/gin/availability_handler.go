package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	availabilityapp "venuebook/internal/app/handlers/availability"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
	"venuebook/internal/domain/shared/daterange"
)

type AvailabilityHandler struct {
	Endpoint
}

type toggleSlotRequest struct {
	Date        daterange.Day `json:"date"`
	Slot        string        `json:"slot"`
	IsAvailable *bool         `json:"is_available"`
}

type replaceCalendarRequest struct {
	Entries []availabilityapp.EntryInput `json:"entries"`
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	from, err := queryDay(c, "from")
	if err != nil {
		h.fail(c, err)
		return
	}
	to, err := queryDay(c, "to")
	if err != nil {
		h.fail(c, err)
		return
	}
	query := availabilityapp.GetCalendarQuery{VenueID: pathID(c), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Toggle(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	var req toggleSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.IsAvailable == nil {
		badRequest(c, errBadRequest.Withf("is_available is required"))
		return
	}
	cmd := availabilityapp.ToggleSlotCommand{
		OwnerID:   owner.UserID,
		VenueID:   pathID(c),
		Date:      req.Date,
		Slot:      req.Slot,
		Available: *req.IsAvailable,
		Now:       h.now(),
	}
	result, err := commands.Dispatch[availabilityapp.ToggleSlotCommand, dto.AvailabilityEntry](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Replace(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	var req replaceCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := availabilityapp.ReplaceCalendarCommand{
		OwnerID: owner.UserID,
		VenueID: pathID(c),
		Entries: req.Entries,
		Now:     h.now(),
	}
	result, err := commands.Dispatch[availabilityapp.ReplaceCalendarCommand, *availabilityapp.ReplaceCalendarResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
