/*
Package schedule implements the weekly schedule engine: the per-employee,
per-date day entries, the Monday-to-Sunday week aggregates that group them,
and the rules for who may change what.

KEY CONCEPTS IN THIS FILE (types.go):
  - DayEntry: the atomic schedule unit for one employee on one date
  - DayType: normal / rest / compensated / vacation / permission
  - Provenance: whether an entry was set by hand or stamped by an
    approved leave request (stamped entries reject direct edits)
  - DayPatch: the strict, validated shape of a day edit

DESIGN PRINCIPLES:
  1. Provenance is an explicit tag, not inferred from nullable foreign
     keys, so the immutability rule is independently testable.
  2. Clock times are zero-padded "HH:MM" strings; the empty string means
     unset. Zero-padding makes lexicographic comparison correct.
  3. Validation happens before any write; stores overwrite blindly.

SEE ALSO:
  - engine.go: operations that create and mutate these types
  - week.go: WeekSchedule aggregate and its lifecycle
*/
package schedule

import (
	"time"

	"github.com/warp/schedule-engine/calendar"
)

// =============================================================================
// ENUMS
// =============================================================================

// DayType classifies a scheduled day.
type DayType string

const (
	DayNormal      DayType = "normal"
	DayRest        DayType = "rest"
	DayCompensated DayType = "compensated"
	DayVacation    DayType = "vacation"
	DayPermission  DayType = "permission"
)

// Valid reports whether d is a known day type.
func (d DayType) Valid() bool {
	switch d {
	case DayNormal, DayRest, DayCompensated, DayVacation, DayPermission:
		return true
	}
	return false
}

// ShiftPeriod distinguishes the two shift presets. Only meaningful when
// the day type is normal.
type ShiftPeriod string

const (
	ShiftMorning   ShiftPeriod = "morning"
	ShiftAfternoon ShiftPeriod = "afternoon"
)

// Provenance records how a day entry got its current value.
type Provenance string

const (
	// ProvenanceManual marks an entry set by a schedule edit or generated
	// as a week default.
	ProvenanceManual Provenance = "manual"

	// ProvenanceApprovedRequest marks an entry stamped by an approved
	// leave request. Such entries are immutable until the request is
	// rejected or corrected.
	ProvenanceApprovedRequest Provenance = "from_approved_request"
)

// =============================================================================
// DAY ENTRY
// =============================================================================

// Default shift presets, taken over from the legacy weekly grid.
const (
	DefaultShiftStart = "08:00"
	DefaultShiftEnd   = "17:00"
	DefaultLunchStart = "12:00"
	DefaultLunchEnd   = "13:00"

	AfternoonShiftStart = "14:00"
	AfternoonShiftEnd   = "22:00"
)

// DayEntry is the schedule for one employee on one calendar date.
// Entries are keyed by (EmployeeID, Date); WeekdayName is derived.
type DayEntry struct {
	EmployeeID  string
	Date        time.Time
	WeekdayName string

	// Clock times in "HH:MM"; empty means unset. All four are empty
	// whenever DayType is not normal.
	ShiftStart string
	ShiftEnd   string
	LunchStart string
	LunchEnd   string

	DayType     DayType
	ShiftPeriod ShiftPeriod

	Provenance      Provenance
	SourceRequestID string // set iff Provenance is ProvenanceApprovedRequest
}

// Locked reports whether the entry is owned by an approved leave request
// and therefore rejects direct edits.
func (e DayEntry) Locked() bool {
	return e.Provenance == ProvenanceApprovedRequest
}

// DefaultDayEntry returns the generated placeholder for an employee on a
// date: a normal morning shift 08:00-17:00 with a 12:00-13:00 lunch.
func DefaultDayEntry(employeeID string, date time.Time) DayEntry {
	d := calendar.Normalize(date)
	return DayEntry{
		EmployeeID:  employeeID,
		Date:        d,
		WeekdayName: calendar.WeekdayName(d),
		ShiftStart:  DefaultShiftStart,
		ShiftEnd:    DefaultShiftEnd,
		LunchStart:  DefaultLunchStart,
		LunchEnd:    DefaultLunchEnd,
		DayType:     DayNormal,
		ShiftPeriod: ShiftMorning,
		Provenance:  ProvenanceManual,
	}
}

// =============================================================================
// DAY PATCH - strict edit payload
// =============================================================================

// DayPatch is the validated shape of a day edit. The legacy system passed
// untyped payloads here; every field is now explicit and checked against
// the DayEntry invariants before a write happens.
type DayPatch struct {
	DayType     DayType
	ShiftPeriod ShiftPeriod
	ShiftStart  string
	ShiftEnd    string
	LunchStart  string
	LunchEnd    string
}

// Validate checks the patch against the day-entry invariants and returns
// the normalized patch that should be written. Normalization mirrors the
// legacy editor: a non-normal day clears all times, and an afternoon
// shift clears the lunch fields regardless of input.
func (p DayPatch) Validate() (DayPatch, error) {
	if !p.DayType.Valid() {
		return p, &ValidationError{Field: "day_type", Value: string(p.DayType), Message: "unknown day type"}
	}

	if p.DayType != DayNormal {
		p.ShiftStart, p.ShiftEnd, p.LunchStart, p.LunchEnd = "", "", "", ""
		p.ShiftPeriod = ""
		return p, nil
	}

	if p.ShiftPeriod == "" {
		p.ShiftPeriod = ShiftMorning
	}
	if p.ShiftPeriod != ShiftMorning && p.ShiftPeriod != ShiftAfternoon {
		return p, &ValidationError{Field: "shift_period", Value: string(p.ShiftPeriod), Message: "unknown shift period"}
	}

	if !validClock(p.ShiftStart) {
		return p, &ValidationError{Field: "shift_start", Value: p.ShiftStart, Message: "expected HH:MM"}
	}
	if !validClock(p.ShiftEnd) {
		return p, &ValidationError{Field: "shift_end", Value: p.ShiftEnd, Message: "expected HH:MM"}
	}
	if p.ShiftStart >= p.ShiftEnd {
		return p, &ValidationError{Field: "shift_end", Value: p.ShiftEnd, Message: "shift must end after it starts"}
	}

	// No lunch break is modeled for the afternoon shift.
	if p.ShiftPeriod == ShiftAfternoon {
		p.LunchStart, p.LunchEnd = "", ""
		return p, nil
	}

	if (p.LunchStart == "") != (p.LunchEnd == "") {
		return p, &ValidationError{Field: "lunch_start", Value: p.LunchStart, Message: "lunch start and end must be set together"}
	}
	if p.LunchStart != "" {
		if !validClock(p.LunchStart) {
			return p, &ValidationError{Field: "lunch_start", Value: p.LunchStart, Message: "expected HH:MM"}
		}
		if !validClock(p.LunchEnd) {
			return p, &ValidationError{Field: "lunch_end", Value: p.LunchEnd, Message: "expected HH:MM"}
		}
		if p.LunchStart >= p.LunchEnd {
			return p, &ValidationError{Field: "lunch_end", Value: p.LunchEnd, Message: "lunch must end after it starts"}
		}
		if p.LunchStart < p.ShiftStart || p.LunchEnd > p.ShiftEnd {
			return p, &ValidationError{Field: "lunch_start", Value: p.LunchStart, Message: "lunch must fall within the shift"}
		}
	}

	return p, nil
}

// Apply produces the entry that results from writing the (already
// validated) patch over an existing entry. Key fields and provenance are
// preserved; an edited entry is always manual.
func (p DayPatch) Apply(e DayEntry) DayEntry {
	e.DayType = p.DayType
	e.ShiftPeriod = p.ShiftPeriod
	e.ShiftStart = p.ShiftStart
	e.ShiftEnd = p.ShiftEnd
	e.LunchStart = p.LunchStart
	e.LunchEnd = p.LunchEnd
	e.Provenance = ProvenanceManual
	e.SourceRequestID = ""
	return e
}

// validClock reports whether s is a zero-padded "HH:MM" clock time.
func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return hh < 24 && mm < 60
}
