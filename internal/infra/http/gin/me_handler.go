package ginserver

import (
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	notificationapp "venuebook/internal/app/handlers/notifications"
	ownerapp "venuebook/internal/app/handlers/owner"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
)

type NotificationHandler struct {
	Endpoint
}

func (h NotificationHandler) List(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	isRead, err := queryBool(c, "is_read")
	if err != nil {
		h.fail(c, err)
		return
	}
	limit, offset, err := pagination(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	query := notificationapp.ListNotificationsQuery{
		UserID: user.UserID,
		IsRead: isRead,
		Type:   c.Query("type"),
		Limit:  limit,
		Offset: offset,
	}
	result, err := queries.Ask[notificationapp.ListNotificationsQuery, dto.NotificationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	cmd := notificationapp.MarkNotificationReadCommand{UserID: user.UserID, NotificationID: pathID(c), Now: h.now()}
	result, err := commands.Dispatch[notificationapp.MarkNotificationReadCommand, dto.Notification](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	cmd := notificationapp.MarkAllNotificationsReadCommand{UserID: user.UserID, Now: h.now()}
	result, err := commands.Dispatch[notificationapp.MarkAllNotificationsReadCommand, notificationapp.MarkAllResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type OwnerHandler struct {
	Endpoint
}

func (h OwnerHandler) Dashboard(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	cmd := ownerapp.DashboardCommand{OwnerID: owner.UserID, Now: h.now()}
	result, err := commands.Dispatch[ownerapp.DashboardCommand, dto.OwnerDashboard](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OwnerHandler) Analytics(c *gin.Context) {
	owner, ok := requireRole(c, principal.RoleOwner)
	if !ok {
		return
	}
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, errInvalidQuery.Withf("year must be a number"))
			return
		}
		year = parsed
	}
	query := ownerapp.AnalyticsQuery{OwnerID: owner.UserID, Year: year}
	result, err := queries.Ask[ownerapp.AnalyticsQuery, dto.OwnerAnalytics](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var (
	_ NotificationHTTP = NotificationHandler{}
	_ OwnerHTTP        = OwnerHandler{}
)
