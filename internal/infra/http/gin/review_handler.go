package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	reviewapp "venuebook/internal/app/handlers/reviews"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
)

type ReviewHandler struct {
	Endpoint
}

type submitReviewRequest struct {
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

type submitReviewResponse struct {
	ReviewID string     `json:"review_id"`
	Review   dto.Review `json:"review"`
}

func (h ReviewHandler) Submit(c *gin.Context) {
	customer, ok := requireRole(c, principal.RoleCustomer)
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := reviewapp.SubmitReviewCommand{
		AuthorID:  customer.UserID,
		BookingID: pathID(c),
		Rating:    req.Rating,
		Text:      req.ReviewText,
		Now:       h.now(),
	}
	result, err := commands.Dispatch[reviewapp.SubmitReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitReviewResponse{ReviewID: result.ID, Review: result})
}

func (h ReviewHandler) Check(c *gin.Context) {
	customer, ok := requireRole(c, principal.RoleCustomer)
	if !ok {
		return
	}
	query := reviewapp.CheckReviewQuery{CustomerID: customer.UserID, BookingID: pathID(c)}
	result, err := queries.Ask[reviewapp.CheckReviewQuery, dto.ReviewCheck](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewHandler) ListForVenue(c *gin.Context) {
	limit, offset, err := pagination(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	query := reviewapp.ListVenueReviewsQuery{VenueID: pathID(c), Limit: limit, Offset: offset}
	result, err := queries.Ask[reviewapp.ListVenueReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewHandler) ListOwner(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	limit, offset, err := pagination(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	minRating, err := queryInt(c, "rating_min")
	if err != nil {
		h.fail(c, err)
		return
	}
	query := reviewapp.ListOwnerReviewsQuery{
		OwnerID:   owner.UserID,
		VenueID:   c.Query("venue_id"),
		MinRating: minRating,
		Sort:      c.Query("sort_by"),
		Limit:     limit,
		Offset:    offset,
	}
	result, err := queries.Ask[reviewapp.ListOwnerReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewHTTP = ReviewHandler{}
