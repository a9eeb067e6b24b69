package schedule

import (
	"fmt"
	"time"

	"github.com/warp/schedule-engine/calendar"
)

// =============================================================================
// WEEK SCHEDULE - Monday-to-Sunday aggregate
// =============================================================================

// WeekStatus is the lifecycle state of a week schedule.
type WeekStatus string

const (
	WeekDraft      WeekStatus = "draft"
	WeekActive     WeekStatus = "active"
	WeekHistorical WeekStatus = "historical"
)

// Valid reports whether s is a known week status.
func (s WeekStatus) Valid() bool {
	switch s {
	case WeekDraft, WeekActive, WeekHistorical:
		return true
	}
	return false
}

// WeekSchedule groups the day entries of one calendar week for all
// employees. StartDate is always a Monday and EndDate is always
// StartDate plus six days.
type WeekSchedule struct {
	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    WeekStatus
	CreatedBy string
	CreatedAt time.Time
}

// Contains reports whether the date falls inside the week.
func (w WeekSchedule) Contains(date time.Time) bool {
	d := calendar.Normalize(date)
	return !d.Before(w.StartDate) && !d.After(w.EndDate)
}

// Deletable reports whether the week may be removed. Only drafts qualify;
// active and historical weeks are part of the record.
func (w WeekSchedule) Deletable() bool {
	return w.Status == WeekDraft
}

// CanTransition reports whether the week may move to the target status.
// Legal moves: draft->active, active->historical, and active->draft as a
// correction path.
func (w WeekSchedule) CanTransition(to WeekStatus) bool {
	switch {
	case w.Status == WeekDraft && to == WeekActive:
		return true
	case w.Status == WeekActive && to == WeekHistorical:
		return true
	case w.Status == WeekActive && to == WeekDraft:
		return true
	}
	return false
}

// WeekName builds the display name for a week starting at monday,
// e.g. "Week of 03/03 to 09/03".
func WeekName(monday time.Time) string {
	start := calendar.Normalize(monday)
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("Week of %s to %s", calendar.FormatShort(start), calendar.FormatShort(end))
}
