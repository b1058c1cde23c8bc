package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesOnCode(t *testing.T) {
	sentinel := Validation("slot_unavailable", "slot not available")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "same value", err: sentinel, want: true},
		{name: "wrapped", err: fmt.Errorf("create: %w", sentinel), want: true},
		{name: "rehydrated copy", err: New(KindValidation, "slot_unavailable", "other text"), want: true},
		{name: "specialised message", err: sentinel.Withf("slot %s taken", "evening"), want: true},
		{name: "different code", err: Validation("invalid_transition", "nope"), want: false},
		{name: "plain error", err: errors.New("slot not available"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, sentinel); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("wrap: %w", NotFound("booking_not_found", "booking not found"))); got != KindNotFound {
		t.Errorf("KindOf() = %v, want %v", got, KindNotFound)
	}
	if got := KindOf(errors.New("dial tcp: refused")); got != KindUpstream {
		t.Errorf("KindOf() = %v, want %v", got, KindUpstream)
	}
}
