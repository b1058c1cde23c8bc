package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"venuebook/internal/app/commands"
	"venuebook/internal/app/notify"
	"venuebook/internal/app/outbox"
	"venuebook/internal/app/principal"
	"venuebook/internal/app/uow"
	domainavailability "venuebook/internal/domain/availability"
	domainbooking "venuebook/internal/domain/booking"
	domainnotification "venuebook/internal/domain/notification"
	domainpayment "venuebook/internal/domain/payment"
	domainreview "venuebook/internal/domain/review"
	"venuebook/internal/domain/shared/fault"
	domainvenue "venuebook/internal/domain/venue"
)

type createThing struct {
	Name    string
	IdemKey string
}

func (c createThing) Key() string            { return "thing.create" }
func (c createThing) IdempotencyKey() string { return c.IdemKey }
func (c createThing) ResultPrototype() any   { return &thingResult{} }
func (c createThing) AllowedRoles() []principal.Role {
	return []principal.Role{principal.RoleCustomer}
}
func (c createThing) Validate() error {
	if c.Name == "" {
		return fault.Validation("name_required", "name is required")
	}
	return nil
}

type thingResult struct {
	ID string `json:"id"`
}

type memoryIdempotency struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func (s *memoryIdempotency) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memoryIdempotency) Save(_ context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

type countingBus struct {
	calls int
	err   error
}

func (b *countingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.calls++
	notify.Raise(ctx, domainnotification.Intent{UserID: "u", Title: "t", Type: domainnotification.TypeSystem, DedupKey: "k"})
	if b.err != nil {
		return nil, b.err
	}
	return &thingResult{ID: "thing-1"}, nil
}

func customerCtx() context.Context {
	return principal.WithContext(context.Background(), principal.Principal{UserID: "customer-1", Role: principal.RoleCustomer})
}

func TestIdempotencyReplaysResultAndFault(t *testing.T) {
	store := &memoryIdempotency{items: map[string]IdempotencyRecord{}}
	base := &countingBus{}
	bus := ChainCommands(base, Idempotency(store, nil))
	ctx := customerCtx()

	first, err := commands.Dispatch[createThing, *thingResult](ctx, bus, createThing{Name: "a", IdemKey: "k1"})
	if err != nil {
		t.Fatalf("first dispatch error = %v", err)
	}
	second, err := commands.Dispatch[createThing, *thingResult](ctx, bus, createThing{Name: "a", IdemKey: "k1"})
	if err != nil {
		t.Fatalf("replay error = %v", err)
	}
	if base.calls != 1 || first.ID != second.ID {
		t.Errorf("calls = %d, results %v / %v", base.calls, first, second)
	}

	base.err = domainbooking.ErrSlotUnavailable
	_, err = commands.Dispatch[createThing, *thingResult](ctx, bus, createThing{Name: "a", IdemKey: "k2"})
	if !errors.Is(err, domainbooking.ErrSlotUnavailable) {
		t.Fatalf("error = %v", err)
	}
	base.err = nil
	_, err = commands.Dispatch[createThing, *thingResult](ctx, bus, createThing{Name: "a", IdemKey: "k2"})
	if !errors.Is(err, domainbooking.ErrSlotUnavailable) || fault.KindOf(err) != fault.KindValidation {
		t.Errorf("replayed error = %v (kind %s), want slot unavailable validation fault", err, fault.KindOf(err))
	}
	if base.calls != 2 {
		t.Errorf("calls = %d, want 2", base.calls)
	}
}

func TestIdempotencyDoesNotCacheUpstreamErrors(t *testing.T) {
	store := &memoryIdempotency{items: map[string]IdempotencyRecord{}}
	base := &countingBus{err: errors.New("db down")}
	bus := ChainCommands(base, Idempotency(store, nil))
	ctx := customerCtx()
	_, _ = bus.Dispatch(ctx, createThing{Name: "a", IdemKey: "k"})
	base.err = nil
	if _, err := bus.Dispatch(ctx, createThing{Name: "a", IdemKey: "k"}); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if base.calls != 2 {
		t.Errorf("calls = %d, want 2", base.calls)
	}
}

func TestValidationAndAuthorization(t *testing.T) {
	base := &countingBus{}
	bus := ChainCommands(base, Validation(SelfValidator{}), Authorization(RoleAuthorizer{}))

	if _, err := bus.Dispatch(customerCtx(), createThing{}); fault.KindOf(err) != fault.KindValidation {
		t.Errorf("missing name error = %v", err)
	}
	if _, err := bus.Dispatch(context.Background(), createThing{Name: "a"}); !errors.Is(err, principal.ErrUnauthenticated) {
		t.Errorf("anonymous error = %v", err)
	}
	owner := principal.WithContext(context.Background(), principal.Principal{UserID: "o", Role: principal.RoleOwner})
	if _, err := bus.Dispatch(owner, createThing{Name: "a"}); !errors.Is(err, principal.ErrForbidden) {
		t.Errorf("owner error = %v", err)
	}
	if base.calls != 0 {
		t.Errorf("handler reached %d times", base.calls)
	}
}

type recordingNotifier struct {
	intents []domainnotification.Intent
}

func (n *recordingNotifier) Notify(_ context.Context, intent domainnotification.Intent) error {
	n.intents = append(n.intents, intent)
	return errors.New("queue down")
}

type fakeUnit struct {
	committed  bool
	rolledBack bool
}

func (u *fakeUnit) Venues() domainvenue.Repository               { return nil }
func (u *fakeUnit) Availability() domainavailability.Repository  { return nil }
func (u *fakeUnit) Bookings() domainbooking.Repository           { return nil }
func (u *fakeUnit) Payments() domainpayment.Repository           { return nil }
func (u *fakeUnit) Reviews() domainreview.Repository             { return nil }
func (u *fakeUnit) Notifications() domainnotification.Repository { return nil }
func (u *fakeUnit) Outbox() outbox.Outbox                        { return nil }
func (u *fakeUnit) Commit(context.Context) error                 { u.committed = true; return nil }
func (u *fakeUnit) Rollback(context.Context) error               { u.rolledBack = true; return nil }

type fakeFactory struct {
	units []*fakeUnit
}

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	f.units = append(f.units, u)
	return u, nil
}

func TestNotificationsDispatchOnlyAfterCommit(t *testing.T) {
	notifier := &recordingNotifier{}
	factory := &fakeFactory{}
	base := &countingBus{}
	bus := ChainCommands(base, Notifications(notifier, nil), Transaction(factory, nil))

	if _, err := bus.Dispatch(customerCtx(), createThing{Name: "a"}); err != nil {
		t.Fatalf("dispatch error = %v (notifier failures must not fail the command)", err)
	}
	if len(notifier.intents) != 1 || !factory.units[0].committed {
		t.Fatalf("intents = %d, committed = %v", len(notifier.intents), factory.units[0].committed)
	}

	base.err = domainbooking.ErrInvalidTransition
	if _, err := bus.Dispatch(customerCtx(), createThing{Name: "a"}); err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.intents) != 1 {
		t.Errorf("intents after failed command = %d, want 1", len(notifier.intents))
	}
	if !factory.units[1].rolledBack || factory.units[1].committed {
		t.Errorf("failed command unit: committed=%v rolledBack=%v", factory.units[1].committed, factory.units[1].rolledBack)
	}
}
