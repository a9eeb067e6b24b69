package schedule_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/schedule-engine/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// DEFAULT ENTRY
// =============================================================================

func TestDefaultDayEntry_MorningPreset(t *testing.T) {
	e := schedule.DefaultDayEntry("emp-1", date(2025, time.March, 5))

	assert.Equal(t, "emp-1", e.EmployeeID)
	assert.Equal(t, "wednesday", e.WeekdayName)
	assert.Equal(t, "08:00", e.ShiftStart)
	assert.Equal(t, "17:00", e.ShiftEnd)
	assert.Equal(t, "12:00", e.LunchStart)
	assert.Equal(t, "13:00", e.LunchEnd)
	assert.Equal(t, schedule.DayNormal, e.DayType)
	assert.Equal(t, schedule.ShiftMorning, e.ShiftPeriod)
	assert.Equal(t, schedule.ProvenanceManual, e.Provenance)
	assert.False(t, e.Locked())
}

// =============================================================================
// DAY PATCH VALIDATION
// =============================================================================

func TestDayPatch_Validate_NonNormalClearsTimes(t *testing.T) {
	// GIVEN: A rest-day patch that still carries shift times
	p := schedule.DayPatch{
		DayType:    schedule.DayRest,
		ShiftStart: "08:00", ShiftEnd: "17:00",
		LunchStart: "12:00", LunchEnd: "13:00",
	}

	// WHEN: Validating
	got, err := p.Validate()

	// THEN: All times and the period are cleared
	require.NoError(t, err)
	assert.Empty(t, got.ShiftStart)
	assert.Empty(t, got.ShiftEnd)
	assert.Empty(t, got.LunchStart)
	assert.Empty(t, got.LunchEnd)
	assert.Empty(t, string(got.ShiftPeriod))
}

func TestDayPatch_Validate_AfternoonClearsLunch(t *testing.T) {
	p := schedule.DayPatch{
		DayType:     schedule.DayNormal,
		ShiftPeriod: schedule.ShiftAfternoon,
		ShiftStart:  "14:00", ShiftEnd: "22:00",
		LunchStart: "18:00", LunchEnd: "19:00",
	}

	got, err := p.Validate()
	require.NoError(t, err)
	assert.Empty(t, got.LunchStart)
	assert.Empty(t, got.LunchEnd)
}

func TestDayPatch_Validate_DefaultsPeriodToMorning(t *testing.T) {
	p := schedule.DayPatch{
		DayType:    schedule.DayNormal,
		ShiftStart: "09:00", ShiftEnd: "18:00",
	}
	got, err := p.Validate()
	require.NoError(t, err)
	assert.Equal(t, schedule.ShiftMorning, got.ShiftPeriod)
}

func TestDayPatch_Validate_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		patch schedule.DayPatch
		field string
	}{
		{"unknown day type", schedule.DayPatch{DayType: "siesta"}, "day_type"},
		{"bad clock format", schedule.DayPatch{DayType: schedule.DayNormal, ShiftStart: "8:00", ShiftEnd: "17:00"}, "shift_start"},
		{"inverted shift", schedule.DayPatch{DayType: schedule.DayNormal, ShiftStart: "17:00", ShiftEnd: "08:00"}, "shift_end"},
		{"lunch half set", schedule.DayPatch{DayType: schedule.DayNormal, ShiftStart: "08:00", ShiftEnd: "17:00", LunchStart: "12:00"}, "lunch_start"},
		{"inverted lunch", schedule.DayPatch{DayType: schedule.DayNormal, ShiftStart: "08:00", ShiftEnd: "17:00", LunchStart: "13:00", LunchEnd: "12:00"}, "lunch_end"},
		{"lunch outside shift", schedule.DayPatch{DayType: schedule.DayNormal, ShiftStart: "08:00", ShiftEnd: "17:00", LunchStart: "07:00", LunchEnd: "09:00"}, "lunch_start"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.patch.Validate()
			require.Error(t, err)

			var verr *schedule.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, schedule.ErrInvalidRange)
		})
	}
}

func TestDayPatch_Apply_AlwaysManual(t *testing.T) {
	// GIVEN: An entry stamped by an approved request
	e := schedule.DefaultDayEntry("emp-1", date(2025, time.March, 5))
	e.Provenance = schedule.ProvenanceApprovedRequest
	e.SourceRequestID = "req-1"

	// WHEN: Applying a validated patch
	p, err := schedule.DayPatch{
		DayType: schedule.DayNormal, ShiftStart: "09:00", ShiftEnd: "18:00",
	}.Validate()
	require.NoError(t, err)
	got := p.Apply(e)

	// THEN: The result is manual and carries no source request
	assert.Equal(t, schedule.ProvenanceManual, got.Provenance)
	assert.Empty(t, got.SourceRequestID)
	assert.Equal(t, "09:00", got.ShiftStart)
	assert.Equal(t, e.EmployeeID, got.EmployeeID)
	assert.Equal(t, e.Date, got.Date)
}

// =============================================================================
// WEEK LIFECYCLE
// =============================================================================

func TestWeekSchedule_CanTransition(t *testing.T) {
	cases := []struct {
		from, to schedule.WeekStatus
		ok       bool
	}{
		{schedule.WeekDraft, schedule.WeekActive, true},
		{schedule.WeekActive, schedule.WeekHistorical, true},
		{schedule.WeekActive, schedule.WeekDraft, true},
		{schedule.WeekDraft, schedule.WeekHistorical, false},
		{schedule.WeekHistorical, schedule.WeekActive, false},
		{schedule.WeekHistorical, schedule.WeekDraft, false},
		{schedule.WeekDraft, schedule.WeekDraft, false},
	}
	for _, tc := range cases {
		w := schedule.WeekSchedule{Status: tc.from}
		assert.Equal(t, tc.ok, w.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestWeekSchedule_Deletable_DraftOnly(t *testing.T) {
	assert.True(t, schedule.WeekSchedule{Status: schedule.WeekDraft}.Deletable())
	assert.False(t, schedule.WeekSchedule{Status: schedule.WeekActive}.Deletable())
	assert.False(t, schedule.WeekSchedule{Status: schedule.WeekHistorical}.Deletable())
}

func TestWeekName_ShortDateRange(t *testing.T) {
	name := schedule.WeekName(date(2025, time.March, 3))
	assert.Equal(t, "Week of 03/03 to 09/03", name)
}

// =============================================================================
// SCHEDULED HOURS
// =============================================================================

func TestEntryHours_ShiftMinusLunch(t *testing.T) {
	e := schedule.DefaultDayEntry("emp-1", date(2025, time.March, 5))
	// 08:00-17:00 minus 12:00-13:00 lunch = 8h
	assert.True(t, schedule.EntryHours(e).Equal(decimal.NewFromInt(8)))
}

func TestEntryHours_AfternoonNoLunch(t *testing.T) {
	e := schedule.DefaultDayEntry("emp-1", date(2025, time.March, 5))
	e.ShiftPeriod = schedule.ShiftAfternoon
	e.ShiftStart, e.ShiftEnd = "14:00", "22:00"
	e.LunchStart, e.LunchEnd = "", ""
	assert.True(t, schedule.EntryHours(e).Equal(decimal.NewFromInt(8)))
}

func TestEntryHours_NonNormalIsZero(t *testing.T) {
	e := schedule.DefaultDayEntry("emp-1", date(2025, time.March, 5))
	e.DayType = schedule.DayVacation
	e.ShiftStart, e.ShiftEnd, e.LunchStart, e.LunchEnd = "", "", "", ""
	assert.True(t, schedule.EntryHours(e).IsZero())
}

func TestEntryHours_HalfHours(t *testing.T) {
	e := schedule.DefaultDayEntry("emp-1", date(2025, time.March, 5))
	e.ShiftStart, e.ShiftEnd = "09:00", "17:30"
	e.LunchStart, e.LunchEnd = "13:00", "14:00"
	assert.True(t, schedule.EntryHours(e).Equal(decimal.RequireFromString("7.5")))
}
