package daterange

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "valid", raw: "2025-06-01", want: "2025-06-01"},
		{name: "trimmed", raw: " 2025-06-01 ", want: "2025-06-01"},
		{name: "empty", raw: "", wantErr: true},
		{name: "timestamp", raw: "2025-06-01T10:00:00Z", wantErr: true},
		{name: "out of range", raw: "2025-13-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDay(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDay() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDay) {
					t.Errorf("ParseDay() error = %v, want %v", err, ErrInvalidDay)
				}
				return
			}
			if got.String() != tt.want {
				t.Errorf("ParseDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDayOfTruncatesToUTCDate(t *testing.T) {
	loc := time.FixedZone("PKT", 5*3600)
	ts := time.Date(2025, 6, 2, 3, 0, 0, 0, loc)
	if got := DayOf(ts).String(); got != "2025-06-01" {
		t.Errorf("DayOf() = %v, want 2025-06-01", got)
	}
}

func TestDayJSONRoundTrip(t *testing.T) {
	type payload struct {
		Date Day `json:"date"`
	}
	var p payload
	if err := json.Unmarshal([]byte(`{"date":"2025-06-01"}`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !p.Date.Equal(NewDay(2025, time.June, 1)) {
		t.Errorf("Date = %v, want 2025-06-01", p.Date)
	}
	if err := json.Unmarshal([]byte(`{"date":"June 1"}`), &p); err == nil {
		t.Error("Unmarshal() expected error for malformed date")
	}
}

func TestRangeContains(t *testing.T) {
	r, err := NewRange(MustDay("2025-06-01"), MustDay("2025-06-30"))
	if err != nil {
		t.Fatalf("NewRange() error = %v", err)
	}
	if !r.Contains(MustDay("2025-06-01")) || !r.Contains(MustDay("2025-06-30")) {
		t.Error("Contains() should include both bounds")
	}
	if r.Contains(MustDay("2025-07-01")) {
		t.Error("Contains() should exclude days after the range")
	}
	open := Range{From: MustDay("2025-06-01")}
	if !open.Contains(MustDay("2030-01-01")) {
		t.Error("open range should contain later days")
	}
	if _, err := NewRange(MustDay("2025-06-02"), MustDay("2025-06-01")); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("NewRange() error = %v, want %v", err, ErrInvalidRange)
	}
}
