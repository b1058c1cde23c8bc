// Package asynqueue delivers notification intents through a Redis-backed asynq queue.
package asynqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"venuebook/internal/app/policies"
	domainnotification "venuebook/internal/domain/notification"
)

const (
	TypeDeliverNotification = "notification:deliver"
	DefaultQueue            = "notifications"
	maxDeliveryRetries      = 10
)

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Notifier enqueues one task per intent. The dedup key doubles as the asynq task id, so
// an intent already waiting in the queue is not enqueued twice.
type Notifier struct {
	Client Enqueuer
	Queue  string
	Logger *slog.Logger
}

func NewNotifier(client Enqueuer, queue string, logger *slog.Logger) *Notifier {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Notifier{Client: client, Queue: queue, Logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, intent domainnotification.Intent) error {
	if err := intent.Validate(); err != nil {
		return err
	}
	task, err := NewDeliverTask(intent)
	if err != nil {
		return err
	}
	info, err := n.Client.EnqueueContext(ctx, task,
		asynq.Queue(n.Queue),
		asynq.MaxRetry(maxDeliveryRetries),
		asynq.TaskID(intent.DedupKey),
		asynq.Timeout(30*time.Second),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("asynq: enqueue %s: %w", intent.DedupKey, err)
	}
	if n.Logger != nil {
		n.Logger.Debug("notification enqueued", "task_id", info.ID, "queue", info.Queue, "user_id", intent.UserID)
	}
	return nil
}

func NewDeliverTask(intent domainnotification.Intent) (*asynq.Task, error) {
	payload, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("asynq: encode intent: %w", err)
	}
	return asynq.NewTask(TypeDeliverNotification, payload), nil
}

var _ policies.Notifier = (*Notifier)(nil)
