package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	paymentapp "venuebook/internal/app/handlers/payments"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
)

type PaymentHandler struct {
	Endpoint
}

type updatePaymentRequest struct {
	PaymentStatus string `json:"payment_status"`
}

func (h PaymentHandler) UpdateStatus(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := paymentapp.UpdatePaymentStatusCommand{
		OwnerID:   owner.UserID,
		PaymentID: pathID(c),
		Status:    req.PaymentStatus,
		Now:       h.now(),
	}
	result, err := commands.Dispatch[paymentapp.UpdatePaymentStatusCommand, dto.Payment](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PaymentHandler) ListOwner(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	query := paymentapp.ListOwnerPaymentsQuery{
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
	result, err := queries.Ask[paymentapp.ListOwnerPaymentsQuery, dto.PaymentCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentHTTP = PaymentHandler{}
