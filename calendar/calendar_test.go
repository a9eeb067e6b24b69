package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/schedule-engine/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// WEEK BOUNDARIES
// =============================================================================

func TestMondayOf_MidWeek(t *testing.T) {
	// GIVEN: Wednesday March 5, 2025
	// WHEN: Computing the week's Monday
	// THEN: March 3

	monday := calendar.MondayOf(date(2025, time.March, 5))
	assert.Equal(t, date(2025, time.March, 3), monday)
}

func TestMondayOf_Sunday_BelongsToPrecedingWeek(t *testing.T) {
	// GIVEN: Sunday March 9, 2025
	// WHEN: Computing the week's Monday
	// THEN: March 3, not March 10 - Sunday is day 7 of the ISO week

	monday := calendar.MondayOf(date(2025, time.March, 9))
	assert.Equal(t, date(2025, time.March, 3), monday)
}

func TestMondayOf_Monday_IsIdentity(t *testing.T) {
	monday := date(2025, time.March, 3)
	assert.Equal(t, monday, calendar.MondayOf(monday))
	assert.True(t, calendar.IsMonday(monday))
}

func TestWeekDates_SevenConsecutiveDays(t *testing.T) {
	dates := calendar.WeekDates(date(2025, time.March, 3))
	require.Len(t, dates, 7)
	assert.Equal(t, date(2025, time.March, 3), dates[0])
	assert.Equal(t, date(2025, time.March, 9), dates[6])
	for i := 1; i < 7; i++ {
		assert.Equal(t, 1, calendar.DaysBetween(dates[i-1], dates[i]))
	}
}

// =============================================================================
// NORMALIZATION AND PARSING
// =============================================================================

func TestNormalize_DropsClockAndZone(t *testing.T) {
	// GIVEN: A timestamp late in the day in a non-UTC zone
	loc := time.FixedZone("X", -5*3600)
	ts := time.Date(2025, time.March, 5, 23, 45, 12, 999, loc)

	// WHEN: Normalizing
	got := calendar.Normalize(ts)

	// THEN: Midnight UTC of the same calendar day the wall clock showed
	assert.Equal(t, date(2025, time.March, 5), got)
}

func TestParseISO_RoundTrip(t *testing.T) {
	d, err := calendar.ParseISO("2025-03-05")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 5), d)
	assert.Equal(t, "2025-03-05", calendar.FormatISO(d))
	assert.Equal(t, "05/03", calendar.FormatShort(d))
}

func TestParseISO_Invalid(t *testing.T) {
	for _, s := range []string{"", "03/05/2025", "2025-13-01", "not a date"} {
		_, err := calendar.ParseISO(s)
		assert.ErrorIs(t, err, calendar.ErrInvalidDate, "input %q", s)
	}
}

func TestWeekdayName_Lowercase(t *testing.T) {
	assert.Equal(t, "monday", calendar.WeekdayName(date(2025, time.March, 3)))
	assert.Equal(t, "sunday", calendar.WeekdayName(date(2025, time.March, 9)))
}

// =============================================================================
// RANGES
// =============================================================================

func TestDaysBetween_Signed(t *testing.T) {
	a, b := date(2025, time.March, 3), date(2025, time.March, 10)
	assert.Equal(t, 7, calendar.DaysBetween(a, b))
	assert.Equal(t, -7, calendar.DaysBetween(b, a))
	assert.Equal(t, 0, calendar.DaysBetween(a, a))
}

func TestDatesInRange_Inclusive(t *testing.T) {
	dates := calendar.DatesInRange(date(2025, time.March, 10), date(2025, time.March, 12))
	require.Len(t, dates, 3)
	assert.Equal(t, date(2025, time.March, 10), dates[0])
	assert.Equal(t, date(2025, time.March, 12), dates[2])

	assert.Nil(t, calendar.DatesInRange(date(2025, time.March, 12), date(2025, time.March, 10)))
}

func TestRangesOverlap(t *testing.T) {
	mar10, mar12 := date(2025, time.March, 10), date(2025, time.March, 12)

	// Touching at a single shared day counts.
	assert.True(t, calendar.RangesOverlap(mar10, mar12, mar12, date(2025, time.March, 20)))
	// Fully disjoint does not.
	assert.False(t, calendar.RangesOverlap(mar10, mar12, date(2025, time.March, 13), date(2025, time.March, 20)))
	// Containment does.
	assert.True(t, calendar.RangesOverlap(mar10, mar12, date(2025, time.March, 1), date(2025, time.March, 31)))
}

func TestSameDay_IgnoresClock(t *testing.T) {
	morning := time.Date(2025, time.March, 5, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, time.March, 5, 22, 0, 0, 0, time.UTC)
	assert.True(t, calendar.SameDay(morning, evening))
	assert.True(t, calendar.IsToday(morning, evening))
	assert.False(t, calendar.SameDay(morning, date(2025, time.March, 6)))
}
