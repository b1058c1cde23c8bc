package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"venuebook/internal/app/commands"
	handlersupport "venuebook/internal/app/handlers/support"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/uow"
	domainnotification "venuebook/internal/domain/notification"
)

const deliverNotificationKey = "notifications.deliver"

// DeliverNotificationCommand materialises an intent. Delivery is at-least-once, so an
// intent whose dedup key is already stored is reported as a duplicate, not an error.
type DeliverNotificationCommand struct {
	Intent domainnotification.Intent
	Now    time.Time
}

func (c DeliverNotificationCommand) Key() string { return deliverNotificationKey }

func (c DeliverNotificationCommand) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleSystem}
}

func (c DeliverNotificationCommand) Validate() error { return c.Intent.Validate() }

type DeliverResult struct {
	NotificationID string `json:"notification_id,omitempty"`
	Duplicate      bool   `json:"duplicate"`
}

type DeliverNotificationHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *DeliverNotificationHandler) Handle(ctx context.Context, cmd DeliverNotificationCommand) (DeliverResult, error) {
	unit, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return DeliverResult{}, err
	}
	defer unit.Close()

	n, err := domainnotification.New(domainnotification.ID(uuid.NewString()), cmd.Intent, handlersupport.Now(cmd.Now))
	if err != nil {
		return DeliverResult{}, err
	}
	if err := unit.Notifications().Save(unit.Ctx, n); err != nil {
		if errors.Is(err, domainnotification.ErrDuplicate) {
			if h.Logger != nil {
				h.Logger.Debug("notification already delivered", "dedup_key", n.DedupKey)
			}
			return DeliverResult{Duplicate: true}, nil
		}
		return DeliverResult{}, err
	}
	if err := unit.Commit(); err != nil {
		return DeliverResult{}, err
	}
	return DeliverResult{NotificationID: string(n.ID)}, nil
}

// Direct delivers intents in-process through the command bus. Bus is assigned once the
// middleware chain that uses this notifier has been built.
type Direct struct {
	Bus commands.Bus
}

func (d *Direct) Notify(ctx context.Context, intent domainnotification.Intent) error {
	if d.Bus == nil {
		return commands.ErrNilBus
	}
	_, err := d.Bus.Dispatch(principal.WithContext(ctx, principal.System), DeliverNotificationCommand{Intent: intent})
	return err
}

var _ commands.Handler[DeliverNotificationCommand, DeliverResult] = (*DeliverNotificationHandler)(nil)
