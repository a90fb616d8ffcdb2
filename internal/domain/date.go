package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar day in UTC. Its text form is YYYY-MM-DD and the zero
// value encodes as an empty string.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON shadows the promoted time.Time encoder.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: date must be a string", ErrValidation)
	}
	return d.UnmarshalText([]byte(s[1 : len(s)-1]))
}

// DaysUntil returns the fractional number of days from d to other.
func (d Date) DaysUntil(other Date) float64 {
	return other.Sub(d.Time).Hours() / 24
}

// Window is an inclusive date range. A zero bound is open.
type Window struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

func (w Window) Contains(d Date) bool {
	if d.IsZero() {
		return false
	}
	if !w.From.IsZero() && d.Before(w.From.Time) {
		return false
	}
	if !w.To.IsZero() && d.After(w.To.Time) {
		return false
	}
	return true
}

// Bounded reports whether both ends of the window are set.
func (w Window) Bounded() bool {
	return !w.From.IsZero() && !w.To.IsZero()
}

func (w Window) Validate() error {
	if w.Bounded() && w.To.Before(w.From.Time) {
		return fmt.Errorf("%w: window ends (%s) before it starts (%s)", ErrValidation, w.To, w.From)
	}
	return nil
}

// Key identifies the window in cache keys and logs.
func (w Window) Key() string {
	from, to := w.From.String(), w.To.String()
	if from == "" {
		from = "open"
	}
	if to == "" {
		to = "open"
	}
	return from + ".." + to
}
