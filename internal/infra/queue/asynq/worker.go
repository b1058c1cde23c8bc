package asynqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"venuebook/internal/app/commands"
	notificationapp "venuebook/internal/app/handlers/notifications"
	"venuebook/internal/app/principal"
	domainnotification "venuebook/internal/domain/notification"
	"venuebook/internal/domain/shared/fault"
)

// DeliveryHandler materialises queued intents by dispatching DeliverNotificationCommand.
type DeliveryHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
	Clock    func() time.Time
}

func (h DeliveryHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var intent domainnotification.Intent
	if err := json.Unmarshal(task.Payload(), &intent); err != nil {
		return fmt.Errorf("decode intent: %v: %w", err, asynq.SkipRetry)
	}
	now := time.Now().UTC()
	if h.Clock != nil {
		now = h.Clock().UTC()
	}
	ctx = principal.WithContext(ctx, principal.System)
	res, err := commands.Dispatch[notificationapp.DeliverNotificationCommand, notificationapp.DeliverResult](ctx, h.Commands, notificationapp.DeliverNotificationCommand{Intent: intent, Now: now})
	if err != nil {
		if fault.KindOf(err) == fault.KindValidation {
			// a malformed intent will not improve on retry
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	if h.Logger != nil {
		h.Logger.Debug("notification delivered",
			"notification_id", res.NotificationID,
			"duplicate", res.Duplicate,
			"user_id", intent.UserID,
		)
	}
	return nil
}

// NewServeMux routes notification tasks to h.
func NewServeMux(h DeliveryHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeDeliverNotification, h)
	return mux
}

// NewServer configures an asynq server consuming queue with the given concurrency.
func NewServer(redisOpt asynq.RedisConnOpt, queue string, concurrency int, logger *slog.Logger) *asynq.Server {
	if queue == "" {
		queue = DefaultQueue
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	cfg := asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	}
	if logger != nil {
		cfg.Logger = slogAdapter{logger: logger}
		cfg.ErrorHandler = asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warn("notification task failed", "type", task.Type(), "retry", retried, "max_retry", maxRetry, "error", err)
		})
	}
	return asynq.NewServer(redisOpt, cfg)
}

// slogAdapter lets asynq log through slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Debug(args ...interface{}) { a.logger.Debug(fmt.Sprint(args...)) }
func (a slogAdapter) Info(args ...interface{})  { a.logger.Info(fmt.Sprint(args...)) }
func (a slogAdapter) Warn(args ...interface{})  { a.logger.Warn(fmt.Sprint(args...)) }
func (a slogAdapter) Error(args ...interface{}) { a.logger.Error(fmt.Sprint(args...)) }
func (a slogAdapter) Fatal(args ...interface{}) { a.logger.Error(fmt.Sprint(args...)) }

var _ asynq.Handler = DeliveryHandler{}
