package notifications

import (
	"context"
	"strings"
	"time"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/dto"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/queries"
	"venuebook/internal/app/uow"
	domainnotification "venuebook/internal/domain/notification"
)

const (
	listNotificationsKey = "notifications.list"
	markReadKey          = "notifications.mark_read"
	markAllReadKey       = "notifications.mark_all_read"

	defaultPageSize = 50
)

var anyRole = []principal.Role{principal.RoleCustomer, principal.RoleOwner, principal.RoleAdmin}

type ListNotificationsQuery struct {
	UserID string
	IsRead *bool
	Type   string
	Limit  int
	Offset int
}

func (q ListNotificationsQuery) Key() string { return listNotificationsKey }

func (q ListNotificationsQuery) AllowedRoles() []principal.Role { return anyRole }

type ListNotificationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListNotificationsHandler) Handle(ctx context.Context, q ListNotificationsQuery) (dto.NotificationCollection, error) {
	caller, err := principal.Caller(ctx, q.UserID)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	filter := domainnotification.Filter{
		UserID: caller.UserID,
		IsRead: q.IsRead,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if strings.TrimSpace(q.Type) != "" {
		t, err := domainnotification.ParseType(q.Type)
		if err != nil {
			return dto.NotificationCollection{}, err
		}
		filter.Type = t
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Notifications().List(execCtx, filter)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	unread, err := unit.Notifications().CountUnread(execCtx, caller.UserID)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	out := dto.NotificationCollection{Items: make([]dto.Notification, 0, len(items)), UnreadCount: unread}
	for _, n := range items {
		out.Items = append(out.Items, dto.MapNotification(n))
	}
	return out, nil
}

type MarkNotificationReadCommand struct {
	UserID         string
	NotificationID string
	Now            time.Time
}

func (c MarkNotificationReadCommand) Key() string { return markReadKey }

func (c MarkNotificationReadCommand) AllowedRoles() []principal.Role { return anyRole }

type MarkNotificationReadHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MarkNotificationReadHandler) Handle(ctx context.Context, cmd MarkNotificationReadCommand) (dto.Notification, error) {
	caller, err := principal.Caller(ctx, cmd.UserID)
	if err != nil {
		return dto.Notification{}, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Notification{}, err
	}
	defer unit.Close()

	n, err := unit.Notifications().ByID(unit.Ctx, domainnotification.ID(strings.TrimSpace(cmd.NotificationID)))
	if err != nil {
		return dto.Notification{}, err
	}
	if n.UserID != caller.UserID {
		return dto.Notification{}, domainnotification.ErrNotRecipient
	}
	if !n.IsRead {
		now := handlersupport.Now(cmd.Now)
		if err := unit.Notifications().MarkRead(unit.Ctx, n.ID, now); err != nil {
			return dto.Notification{}, err
		}
		n.IsRead = true
		n.ReadAt = now
	}
	if err := unit.Commit(); err != nil {
		return dto.Notification{}, err
	}
	return dto.MapNotification(n), nil
}

type MarkAllNotificationsReadCommand struct {
	UserID string
	Now    time.Time
}

func (c MarkAllNotificationsReadCommand) Key() string { return markAllReadKey }

func (c MarkAllNotificationsReadCommand) AllowedRoles() []principal.Role { return anyRole }

type MarkAllResult struct {
	Updated int `json:"updated"`
}

type MarkAllNotificationsReadHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MarkAllNotificationsReadHandler) Handle(ctx context.Context, cmd MarkAllNotificationsReadCommand) (MarkAllResult, error) {
	caller, err := principal.Caller(ctx, cmd.UserID)
	if err != nil {
		return MarkAllResult{}, err
	}
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return MarkAllResult{}, err
	}
	defer unit.Close()

	updated, err := unit.Notifications().MarkAllRead(unit.Ctx, caller.UserID, handlersupport.Now(cmd.Now))
	if err != nil {
		return MarkAllResult{}, err
	}
	if err := unit.Commit(); err != nil {
		return MarkAllResult{}, err
	}
	return MarkAllResult{Updated: updated}, nil
}

var _ queries.Handler[ListNotificationsQuery, dto.NotificationCollection] = (*ListNotificationsHandler)(nil)
var _ commands.Handler[MarkNotificationReadCommand, dto.Notification] = (*MarkNotificationReadHandler)(nil)
var _ commands.Handler[MarkAllNotificationsReadCommand, MarkAllResult] = (*MarkAllNotificationsReadHandler)(nil)
