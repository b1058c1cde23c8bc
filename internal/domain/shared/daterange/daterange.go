package daterange

import (
	"strings"
	"time"

	"venuebook/internal/domain/shared/fault"
)

const layout = "2006-01-02"

var (
	ErrInvalidDay   = fault.Validation("invalid_date", "daterange: date must be formatted as YYYY-MM-DD")
	ErrInvalidRange = fault.Validation("invalid_range", "daterange: range end must not be before start")
)

// Day is a calendar date without time of day, anchored at UTC midnight.
type Day struct {
	t time.Time
}

// DayOf truncates t to its UTC calendar date.
func DayOf(t time.Time) Day {
	if t.IsZero() {
		return Day{}
	}
	y, m, d := t.UTC().Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDay(raw string) (Day, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Day{}, ErrInvalidDay
	}
	t, err := time.Parse(layout, raw)
	if err != nil {
		return Day{}, ErrInvalidDay
	}
	return Day{t: t}, nil
}

// MustDay parses raw and panics on malformed input; meant for tests and fixtures.
func MustDay(raw string) Day {
	d, err := ParseDay(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Day) Time() time.Time { return d.t }

func (d Day) IsZero() bool { return d.t.IsZero() }

func (d Day) Before(other Day) bool { return d.t.Before(other.t) }

func (d Day) After(other Day) bool { return d.t.After(other.t) }

func (d Day) Equal(other Day) bool { return d.t.Equal(other.t) }

func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

func (d Day) Year() int { return d.t.Year() }

func (d Day) Month() time.Month { return d.t.Month() }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(layout)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Range is a closed interval of days. A zero bound leaves that side open.
type Range struct {
	From Day
	To   Day
}

func NewRange(from, to Day) (Range, error) {
	r := Range{From: from, To: to}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

func (r Range) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return ErrInvalidRange
	}
	return nil
}

func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

func (r Range) Contains(d Day) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}
