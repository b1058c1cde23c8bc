package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"venuebook/internal/domain/shared/events"
)

type sampleEvent struct {
	BookingID string
	At        time.Time
}

func (e sampleEvent) EventName() string     { return "booking.requested" }
func (e sampleEvent) AggregateID() string   { return e.BookingID }
func (e sampleEvent) OccurredAt() time.Time { return e.At }

type aggregate struct {
	events.EventRecorder
}

type sliceOutbox struct {
	records []EventRecord
}

func (o *sliceOutbox) Add(_ context.Context, rec EventRecord) error {
	o.records = append(o.records, rec)
	return nil
}

func TestDrainEncodesAndClears(t *testing.T) {
	agg := &aggregate{}
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	agg.Record(sampleEvent{BookingID: "booking-1", At: at})
	box := &sliceOutbox{}

	if err := Drain(context.Background(), box, JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}, agg); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(box.records) != 1 {
		t.Fatalf("records = %d, want 1", len(box.records))
	}
	rec := box.records[0]
	if rec.ID != "evt-1" || rec.Name != "booking.requested" || rec.Aggregate != "booking-1" || !rec.OccurredAt.Equal(at) {
		t.Errorf("record = %+v", rec)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["BookingID"] != "booking-1" {
		t.Errorf("payload = %v", payload)
	}
	if len(agg.PendingEvents()) != 0 {
		t.Error("Drain() must clear pending events")
	}
}
