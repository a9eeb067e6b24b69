package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/warp/schedule-engine/calendar"
	"github.com/warp/schedule-engine/roster"
	"github.com/warp/schedule-engine/schedule"
)

// =============================================================================
// CONFLICT CHECKER - read-only, advisory, never blocking
// =============================================================================

// Checker scans open leave requests for overlaps with a candidate range.
// It reads request and roster state and writes nothing.
type Checker struct {
	Requests RequestStore
	Roster   roster.Roster
}

// NewChecker creates a conflict checker over the given stores.
func NewChecker(requests RequestStore, r roster.Roster) *Checker {
	return &Checker{Requests: requests, Roster: r}
}

// CheckConflicts finds pending and approved requests overlapping the
// candidate range [dateStart, dateEnd] and partitions them into self
// conflicts (same employee) and peer conflicts (different employee, same
// role). excludeRequestID skips one request, so re-checking during an
// edit does not report the request against itself. Two requests from
// different roles never conflict: role is the only peer-grouping key.
func (c *Checker) CheckConflicts(ctx context.Context, employeeID string, role roster.Role, dateStart, dateEnd time.Time, excludeRequestID string) (*ConflictReport, error) {
	dateStart = calendar.Normalize(dateStart)
	dateEnd = calendar.Normalize(dateEnd)
	if dateEnd.Before(dateStart) {
		return nil, fmt.Errorf("%w: date_start %s after date_end %s", schedule.ErrInvalidRange,
			calendar.FormatISO(dateStart), calendar.FormatISO(dateEnd))
	}

	open, err := c.Requests.ListOpenRequestsOverlapping(ctx, dateStart, dateEnd)
	if err != nil {
		return nil, err
	}

	report := &ConflictReport{}
	for _, r := range open {
		if r.ID == excludeRequestID {
			continue
		}
		conflict := Conflict{
			ConflictingRequestID: r.ID,
			EmployeeID:           r.EmployeeID,
			EmployeeName:         c.employeeName(ctx, r.EmployeeID),
			DateStart:            r.DateStart,
			DateEnd:              r.DateEnd,
		}
		switch {
		case r.EmployeeID == employeeID:
			conflict.Scope = ScopeSelf
			report.SelfConflicts = append(report.SelfConflicts, conflict)
		case roster.Role(r.EmployeeRole) == role:
			conflict.Scope = ScopePeer
			report.PeerConflicts = append(report.PeerConflicts, conflict)
		}
	}
	report.HasConflicts = len(report.SelfConflicts) > 0 || len(report.PeerConflicts) > 0
	return report, nil
}

func (c *Checker) employeeName(ctx context.Context, id string) string {
	if c.Roster == nil {
		return ""
	}
	emp, err := c.Roster.GetEmployee(ctx, id)
	if err != nil || emp == nil {
		return ""
	}
	return emp.Name
}

// Note renders the machine-generated warning appended to a request's
// reason when conflicts were found, e.g.
// "conflicts with request #ab12cd34 (self, 2025-03-10 to 2025-03-12)".
func (r *ConflictReport) Note() string {
	if !r.HasConflicts {
		return ""
	}
	var parts []string
	for _, c := range append(append([]Conflict{}, r.SelfConflicts...), r.PeerConflicts...) {
		parts = append(parts, fmt.Sprintf("conflicts with request #%s (%s, %s to %s)",
			shortID(c.ConflictingRequestID), c.Scope,
			calendar.FormatISO(c.DateStart), calendar.FormatISO(c.DateEnd)))
	}
	return "[warning] " + strings.Join(parts, "; ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
