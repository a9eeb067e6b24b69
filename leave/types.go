/*
Package leave implements the leave-request side of the scheduling engine:
the request lifecycle (pending -> approved | rejected, with a narrow
status-correction path), and the advisory conflict checker that warns
about overlapping requests without ever blocking one.

KEY CONCEPTS IN THIS FILE (types.go):
  - LeaveRequest: an employee's ask over an inclusive date range
  - RequestType -> DayType mapping used when approval stamps the schedule
  - Conflict: an ephemeral overlap finding, scoped self or peer

POLICY:
  Conflicts warn, they do not prevent. A request always submits; the
  conflict summary is appended to the reason so approvers see it.

SEE ALSO:
  - checker.go: overlap detection
  - service.go: lifecycle operations and schedule stamping
*/
package leave

import (
	"time"

	"github.com/warp/schedule-engine/schedule"
)

// RequestType classifies what the employee is asking for.
type RequestType string

const (
	TypeVacation     RequestType = "vacation"
	TypeRest         RequestType = "rest"
	TypeCompensation RequestType = "compensation"
	TypePermission   RequestType = "permission"
	TypeLicense      RequestType = "license"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	switch t {
	case TypeVacation, TypeRest, TypeCompensation, TypePermission, TypeLicense:
		return true
	}
	return false
}

// DayType returns the schedule day type an approved request of this type
// stamps onto the week. Permission and license share a day type.
func (t RequestType) DayType() schedule.DayType {
	switch t {
	case TypeVacation:
		return schedule.DayVacation
	case TypeRest:
		return schedule.DayRest
	case TypeCompensation:
		return schedule.DayCompensated
	default:
		return schedule.DayPermission
	}
}

// Status is the lifecycle state of a leave request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Resolved reports whether the request has been decided either way.
func (s Status) Resolved() bool {
	return s == StatusApproved || s == StatusRejected
}

// LeaveRequest is an employee's ask for time off over an inclusive range.
// Once resolved, type and dates are frozen; only the status may still be
// corrected by a sufficiently privileged approver.
type LeaveRequest struct {
	ID           string
	EmployeeID   string
	EmployeeRole string
	Type         RequestType
	DateStart    time.Time
	DateEnd      time.Time
	Reason       string
	Status       Status
	CreatedAt    time.Time
	ApprovedBy   string
	ApprovedAt   *time.Time
}

// ConflictScope distinguishes whose request the overlap is with.
type ConflictScope string

const (
	ScopeSelf ConflictScope = "self"
	ScopePeer ConflictScope = "peer"
)

// Conflict is one overlap finding. Conflicts are computed on demand and
// never persisted.
type Conflict struct {
	ConflictingRequestID string
	EmployeeID           string
	EmployeeName         string
	DateStart            time.Time
	DateEnd              time.Time
	Scope                ConflictScope
}

// ConflictReport is the advisory result of a conflict check.
type ConflictReport struct {
	HasConflicts  bool
	SelfConflicts []Conflict
	PeerConflicts []Conflict
}
