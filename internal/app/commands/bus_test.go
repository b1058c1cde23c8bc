package commands

import (
	"context"
	"errors"
	"testing"
)

type pingCommand struct{ Value int }

func (pingCommand) Key() string { return "test.ping" }

type pingHandler struct{}

func (pingHandler) Handle(ctx context.Context, cmd pingCommand) (int, error) {
	return cmd.Value * 2, nil
}

func TestDispatchRoutesByKey(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, int](bus, pingHandler{})

	got, err := Dispatch[pingCommand, int](context.Background(), bus, pingCommand{Value: 21})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Dispatch() = %d, want 42", got)
	}
	if keys := bus.Keys(); len(keys) != 1 || keys[0] != "test.ping" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestDispatchErrors(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryBus()

	if _, err := Dispatch[pingCommand, int](ctx, bus, pingCommand{}); !errors.Is(err, ErrHandlerNotFound) {
		t.Errorf("unregistered: error = %v, want %v", err, ErrHandlerNotFound)
	}
	if _, err := Dispatch[pingCommand, int](ctx, nil, pingCommand{}); !errors.Is(err, ErrNilBus) {
		t.Errorf("nil bus: error = %v, want %v", err, ErrNilBus)
	}

	RegisterHandler[pingCommand, int](bus, pingHandler{})
	if _, err := Dispatch[pingCommand, string](ctx, bus, pingCommand{}); !errors.Is(err, ErrResultType) {
		t.Errorf("wrong result type: error = %v, want %v", err, ErrResultType)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, int](bus, pingHandler{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	RegisterHandler[pingCommand, int](bus, pingHandler{})
}
