/*
errors.go - Typed errors shared by the schedule and leave engines

PURPOSE:
  One place for the error kinds every operation returns. Callers branch
  with errors.Is; structured variants carry enough context (field name,
  offending value) to render a user-facing message.

ERROR KINDS:
  ErrInvalidRange      start > end, or a week start that is not a Monday
  ErrPermissionDenied  actor's role may not perform the operation
  ErrLocked            day entry derived from an approved request
  ErrInvalidState      illegal lifecycle transition
  ErrConflict          concurrent-write race or duplicate week
  ErrNotFound          referenced week/entry/request does not exist
  ErrUnavailable       persistence failure; always retryable

SEE ALSO:
  - calendar.ErrInvalidDate: unparseable date strings
  - engine.go, leave/service.go: producers of these errors
*/
package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRange is returned when a date range is inverted or a week
	// start is not a Monday.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrPermissionDenied is returned when the acting role may not perform
	// the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrLocked is returned when editing a day entry that is owned by an
	// approved leave request.
	ErrLocked = errors.New("day entry locked by approved request")

	// ErrInvalidState is returned on an illegal lifecycle transition, such
	// as deleting a non-draft week or deciding a non-pending request.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrConflict is returned when a concurrent write won the race, or when
	// generating a week that overlaps an existing draft/active week.
	ErrConflict = errors.New("conflicting state")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable wraps persistence-layer failures. Callers may retry;
	// the engine never retries internally.
	ErrUnavailable = errors.New("storage unavailable")
)

// ValidationError reports a day-entry patch that violates an invariant.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRange }

// LockedDayError identifies the approved request that owns a day entry.
type LockedDayError struct {
	EmployeeID      string
	Date            time.Time
	SourceRequestID string
}

func (e *LockedDayError) Error() string {
	return fmt.Sprintf("day %s for employee %s is set by approved request %s",
		e.Date.Format("2006-01-02"), e.EmployeeID, e.SourceRequestID)
}

func (e *LockedDayError) Unwrap() error { return ErrLocked }

// TransitionError reports an illegal week or request status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidState }

// IsRetryable reports whether the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrConflict)
}

// IsClientError reports whether the error is due to invalid caller input
// rather than system state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrInvalidState)
}
