package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	bookingapp "venuebook/internal/app/handlers/booking"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
	"venuebook/internal/domain/shared/daterange"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHandler struct {
	Endpoint
}

type createBookingRequest struct {
	VenueID             string              `json:"venue_id"`
	EventDate           daterange.Day       `json:"event_date"`
	Slot                string              `json:"slot"`
	EventType           string              `json:"event_type"`
	SpecialRequirements string              `json:"special_requirements"`
	FacilityIDs         []string            `json:"facility_ids"`
	Customer            dto.CustomerDetails `json:"customer_details"`
	Amount              int64               `json:"amount"`
	PaymentMethod       string              `json:"payment_method"`
	TrxID               string              `json:"trx_id"`
}

type transitionBookingRequest struct {
	Status string `json:"status"`
}

func (h BookingHandler) Create(c *gin.Context) {
	customer, ok := requireRole(c, principal.RoleCustomer)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CustomerID:          customer.UserID,
		VenueID:             req.VenueID,
		EventDate:           req.EventDate,
		Slot:                req.Slot,
		EventType:           req.EventType,
		SpecialRequirements: req.SpecialRequirements,
		Customer:            req.Customer,
		FacilityIDs:         req.FacilityIDs,
		Payment: bookingapp.PaymentInput{
			Amount: req.Amount,
			Method: req.PaymentMethod,
			TrxID:  req.TrxID,
		},
		Now:             h.now(),
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	viewer, ok := requireRole(c)
	if !ok {
		return
	}
	query := bookingapp.GetBookingQuery{Viewer: viewer, BookingID: pathID(c)}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Transition(c *gin.Context) {
	actor, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	var req transitionBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.TransitionBookingCommand{
		Actor:     actor,
		BookingID: pathID(c),
		Status:    req.Status,
		Now:       h.now(),
	}
	result, err := commands.Dispatch[bookingapp.TransitionBookingCommand, dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	customer, ok := requireRole(c, principal.RoleCustomer)
	if !ok {
		return
	}
	limit, offset, err := pagination(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	query := bookingapp.ListCustomerBookingsQuery{
		CustomerID: customer.UserID,
		Status:     c.Query("status"),
		Limit:      limit,
		Offset:     offset,
	}
	result, err := queries.Ask[bookingapp.ListCustomerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListOwner(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	query := bookingapp.ListOwnerBookingsQuery{
		OwnerID: owner.UserID,
		VenueID: c.Query("venue_id"),
		Status:  c.Query("status"),
	}
	var err error
	if query.From, err = queryDay(c, "from"); err != nil {
		h.fail(c, err)
		return
	}
	if query.To, err = queryDay(c, "to"); err != nil {
		h.fail(c, err)
		return
	}
	if query.Limit, query.Offset, err = pagination(c); err != nil {
		h.fail(c, err)
		return
	}
	result, err := queries.Ask[bookingapp.ListOwnerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
