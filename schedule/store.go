/*
store.go - Persistence interfaces for weeks and day entries

PURPOSE:
  Defines the boundary between the schedule engine and the database.
  Stores persist blindly; every provenance and authorization check
  happens in the engine (or the leave service) BEFORE a write reaches
  a store.

KEY INTERFACES:
  DayStore:  authoritative (employee_id, date) -> DayEntry map
  WeekStore: WeekSchedule records and their lifecycle fields

ATOMIC BULK WRITES:
  BulkPutDays is all-or-nothing. Approving a leave request stamps one
  entry per day in the range; either every stamp lands or none do.

IMPLEMENTATIONS:
  - store/memory: in-memory, for tests and dev
  - store/sqlite: production SQLite

SEE ALSO:
  - engine.go: the only caller that mutates through these interfaces
  - leave/store.go: the request store and the transactional composite
*/
package schedule

import (
	"context"
	"time"
)

// DayStore is the authoritative map from (employee_id, date) to DayEntry.
type DayStore interface {
	// GetDay returns the entry for an employee on a date, or nil when no
	// entry exists.
	GetDay(ctx context.Context, employeeID string, date time.Time) (*DayEntry, error)

	// PutDay overwrites the entry unconditionally. Callers are responsible
	// for provenance and permission checks before calling.
	PutDay(ctx context.Context, entry DayEntry) error

	// BulkPutDays writes all entries atomically: readers observe either
	// none or all of them.
	BulkPutDays(ctx context.Context, entries []DayEntry) error

	// ListDays returns every entry with a date in [from, to], ordered by
	// employee then date.
	ListDays(ctx context.Context, from, to time.Time) ([]DayEntry, error)

	// ListEmployeeDays returns one employee's entries in [from, to],
	// ordered by date.
	ListEmployeeDays(ctx context.Context, employeeID string, from, to time.Time) ([]DayEntry, error)

	// DeleteDays removes every entry in [from, to]. Used only when a
	// draft week is deleted.
	DeleteDays(ctx context.Context, from, to time.Time) error
}

// WeekStore persists WeekSchedule records.
type WeekStore interface {
	SaveWeek(ctx context.Context, w WeekSchedule) error

	// GetWeek returns the week by ID, or ErrNotFound.
	GetWeek(ctx context.Context, id string) (*WeekSchedule, error)

	// ListWeeks returns all weeks ordered by start date descending.
	ListWeeks(ctx context.Context) ([]WeekSchedule, error)

	// FindWeeksOverlapping returns weeks in any of the given statuses
	// whose [start, end] intersects [from, to].
	FindWeeksOverlapping(ctx context.Context, from, to time.Time, statuses []WeekStatus) ([]WeekSchedule, error)

	// UpdateWeekStatus sets the status of a week.
	UpdateWeekStatus(ctx context.Context, id string, status WeekStatus) error

	// DeleteWeek removes the week record. Entry cleanup is the engine's
	// job via DayStore.DeleteDays.
	DeleteWeek(ctx context.Context, id string) error
}

// OverrideSource supplies the day entries implied by currently approved
// leave requests in a date range. Week generation consults it so copied
// weeks re-derive request-driven days from live state instead of
// duplicating stale entries.
type OverrideSource interface {
	ApprovedDayOverrides(ctx context.Context, from, to time.Time) ([]DayEntry, error)
}
