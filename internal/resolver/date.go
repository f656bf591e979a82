package resolver

import (
	"errors"
	"fmt"
	"time"
)

// Format identifies which accepted layout a date string was parsed with
type Format int

const (
	// FormatISO is the canonical YYYY-MM-DD layout
	FormatISO Format = iota
	// FormatLegacy is the DD-MM-YYYY fallback layout
	FormatLegacy
)

// ErrNotParseable is returned when a date string matches no accepted format
var ErrNotParseable = errors.New("date matches no accepted format")

var layouts = []struct {
	layout string
	format Format
}{
	{"2006-01-02", FormatISO},
	{"02-01-2006", FormatLegacy},
}

// Date is a calendar date with no time-of-day component
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of an instant in the given location
func DateOf(t time.Time, loc *time.Location) Date {
	year, month, day := t.In(loc).Date()
	return Date{Year: year, Month: month, Day: day}
}

// String formats the date in the canonical ISO layout
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Midnight returns the instant at 00:00 of the date in the given location
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// ParseDate parses a date string against the accepted layouts in order.
// The first layout that consumes the full string wins; anything else is
// ErrNotParseable. Parsing is pure.
func ParseDate(raw string) (Date, Format, error) {
	for _, l := range layouts {
		t, err := time.Parse(l.layout, raw)
		if err != nil {
			continue
		}
		return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, l.format, nil
	}
	return Date{}, 0, ErrNotParseable
}
