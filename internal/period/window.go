// Package period computes the closed-inclusive date windows used to filter
// dated records: report ranges, attendance days and AI summary periods.
package period

import (
	"time"

	"github.com/mamadbah2/farmhand/internal/domain/apperr"
)

// Kind names a calendar window.
type Kind string

const (
	Day    Kind = "day"
	Week   Kind = "week"
	Month  Kind = "month"
	Year   Kind = "year"
	Custom Kind = "custom"
)

// DateLayout is the wire format of date-only values.
const DateLayout = "2006-01-02"

const lastMillisecond = 999 * int(time.Millisecond)

// Range is a closed-inclusive [Start, End] instant range.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ParseKind validates a window kind.
func ParseKind(value string) (Kind, error) {
	switch k := Kind(value); k {
	case Day, Week, Month, Year, Custom:
		return k, nil
	}
	return "", apperr.Validation("invalid range %q", value)
}

// Window returns the window of the given kind containing anchor, in anchor's location.
func Window(kind Kind, anchor time.Time) (Range, error) {
	switch kind {
	case Day:
		return DayOf(anchor), nil
	case Week:
		start := StartOfDay(anchor.AddDate(0, 0, -int(anchor.Weekday())))
		return Range{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}, nil
	case Month:
		start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		last := time.Date(anchor.Year(), anchor.Month()+1, 0, 0, 0, 0, 0, anchor.Location())
		return Range{Start: start, End: EndOfDay(last)}, nil
	case Year:
		start := time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, anchor.Location())
		last := time.Date(anchor.Year(), time.December, 31, 0, 0, 0, 0, anchor.Location())
		return Range{Start: start, End: EndOfDay(last)}, nil
	case Custom:
		if anchor.IsZero() {
			return Range{}, apperr.Validation("date is required")
		}
		return DayOf(anchor), nil
	default:
		return Range{}, apperr.Validation("invalid range %q", kind)
	}
}

// Previous returns the window immediately preceding the one containing anchor.
// It is computed from the millisecond before the current start so that month
// lengths never shift the result into the wrong month.
func Previous(kind Kind, anchor time.Time) (Range, error) {
	current, err := Window(kind, anchor)
	if err != nil {
		return Range{}, err
	}
	if kind == Custom {
		kind = Day
	}
	return Window(kind, current.Start.Add(-time.Millisecond))
}

// DayOf returns the day bounds of t.
func DayOf(t time.Time) Range {
	return Range{Start: StartOfDay(t), End: EndOfDay(t)}
}

// StartOfDay returns midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, lastMillisecond, t.Location())
}

// ParseDate parses a date-only ("2006-01-02") or RFC3339 value into the
// calendar day it names in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperr.Validation("date is required")
	}
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q", value)
	}
	return StartOfDay(t.In(loc)), nil
}
