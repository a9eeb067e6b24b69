// Package calendar provides the date math the scheduling engine is built on:
// ISO week boundaries (Monday-start), date formatting, and day comparisons.
// Everything here is pure; callers inject "now" where it matters.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

const (
	isoLayout   = "2006-01-02"
	shortLayout = "02/01"
)

// ErrInvalidDate is returned when a string cannot be parsed as a calendar date.
var ErrInvalidDate = errors.New("invalid calendar date")

// Normalize truncates a time to midnight UTC. All dates handled by the
// engine are day-granular; normalizing at the boundary keeps comparisons
// honest regardless of the caller's location or clock precision.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MondayOf returns the Monday of the ISO week containing t.
// Sunday counts as day 7 of the preceding week, so a week start is
// never a Sunday.
func MondayOf(t time.Time) time.Time {
	d := Normalize(t)
	offset := int(d.Weekday()) - int(time.Monday)
	if d.Weekday() == time.Sunday {
		offset = 6
	}
	return d.AddDate(0, 0, -offset)
}

// IsMonday reports whether t falls on a Monday.
func IsMonday(t time.Time) bool {
	return t.Weekday() == time.Monday
}

// WeekDates returns the seven dates of the week starting at monday.
func WeekDates(monday time.Time) []time.Time {
	start := Normalize(monday)
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

// FormatISO renders a date as "YYYY-MM-DD".
func FormatISO(t time.Time) string {
	return t.Format(isoLayout)
}

// FormatShort renders a date as "DD/MM", the compact form used in week
// names and grid headers.
func FormatShort(t time.Time) string {
	return t.Format(shortLayout)
}

// ParseISO parses a "YYYY-MM-DD" string into a normalized date.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Normalize(t), nil
}

// IsToday reports whether t and now fall on the same calendar day.
// The caller supplies now; the package never reads the wall clock.
func IsToday(t, now time.Time) bool {
	return SameDay(t, now)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// WeekdayName returns the lowercase English weekday name for t.
func WeekdayName(t time.Time) string {
	switch t.Weekday() {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// DaysBetween returns the number of whole days from from to to.
// Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	return int(Normalize(to).Sub(Normalize(from)).Hours() / 24)
}

// DatesInRange returns every date in [from, to] inclusive, in order.
// Returns nil when to precedes from.
func DatesInRange(from, to time.Time) []time.Time {
	start, end := Normalize(from), Normalize(to)
	if end.Before(start) {
		return nil
	}
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// RangesOverlap reports whether the inclusive ranges [aStart, aEnd] and
// [bStart, bEnd] share at least one day.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !Normalize(aStart).After(Normalize(bEnd)) && !Normalize(aEnd).Before(Normalize(bStart))
}
