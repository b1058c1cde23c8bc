package asynqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"venuebook/internal/app/commands"
	notificationapp "venuebook/internal/app/handlers/notifications"
	"venuebook/internal/app/principal"
	domainnotification "venuebook/internal/domain/notification"
)

var intent = domainnotification.Intent{
	UserID:    "owner-1",
	Title:     "New Booking Request",
	Message:   "You have a new booking request",
	Type:      domainnotification.TypeBooking,
	BookingID: "b-1",
	DedupKey:  "booking.requested:b-1",
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t-1", Queue: DefaultQueue}, nil
}

func TestNotifierEnqueuesIntent(t *testing.T) {
	client := &fakeEnqueuer{}
	if err := NewNotifier(client, "", nil).Notify(context.Background(), intent); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(client.tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(client.tasks))
	}
	task := client.tasks[0]
	if task.Type() != TypeDeliverNotification {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	var got domainnotification.Intent
	if err := json.Unmarshal(task.Payload(), &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got != intent {
		t.Fatalf("payload mismatch: %+v", got)
	}
}

func TestNotifierTreatsQueuedDuplicateAsSuccess(t *testing.T) {
	client := &fakeEnqueuer{err: asynq.ErrTaskIDConflict}
	if err := NewNotifier(client, "", nil).Notify(context.Background(), intent); err != nil {
		t.Fatalf("expected duplicate to be ignored, got %v", err)
	}
}

func TestNotifierRejectsInvalidIntent(t *testing.T) {
	client := &fakeEnqueuer{}
	bad := intent
	bad.UserID = ""
	if err := NewNotifier(client, "", nil).Notify(context.Background(), bad); !errors.Is(err, domainnotification.ErrRecipient) {
		t.Fatalf("expected recipient error, got %v", err)
	}
	if len(client.tasks) != 0 {
		t.Fatal("invalid intent was enqueued")
	}
}

type busFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f busFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) { return f(ctx, cmd) }

func TestDeliveryHandlerDispatchesAsSystem(t *testing.T) {
	var caller principal.Principal
	var delivered domainnotification.Intent
	h := DeliveryHandler{Commands: busFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
		caller, _ = principal.FromContext(ctx)
		delivered = cmd.(notificationapp.DeliverNotificationCommand).Intent
		return notificationapp.DeliverResult{NotificationID: "n-1"}, nil
	})}
	task, err := NewDeliverTask(intent)
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if caller != principal.System || delivered != intent {
		t.Fatalf("unexpected dispatch caller=%+v intent=%+v", caller, delivered)
	}
}

func TestDeliveryHandlerRetryPolicy(t *testing.T) {
	transient := errors.New("store unavailable")
	tests := []struct {
		name      string
		payload   []byte
		err       error
		skipRetry bool
	}{
		{name: "bad payload", payload: []byte("{"), skipRetry: true},
		{name: "invalid intent", payload: mustJSON(t, domainnotification.Intent{}), err: domainnotification.ErrRecipient, skipRetry: true},
		{name: "transient failure", payload: mustJSON(t, intent), err: transient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := DeliveryHandler{Commands: busFunc(func(context.Context, commands.Command) (any, error) {
				return nil, tt.err
			})}
			err := h.ProcessTask(context.Background(), asynq.NewTask(TypeDeliverNotification, tt.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, asynq.SkipRetry); got != tt.skipRetry {
				t.Fatalf("skip retry = %v, want %v (%v)", got, tt.skipRetry, err)
			}
		})
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}
