/*
service.go - Leave-request lifecycle with transactional guarantees

PURPOSE:
  Owns the request state machine. Approval is TRANSACTIONAL: the status
  transition and the schedule stamps commit together or not at all.
  Two approvers racing on the same pending request resolve via the
  store's status precondition - exactly one wins, the loser gets a
  conflict error.

STATE MACHINE:
  pending -> approved   stamps one DayEntry per date in range
  pending -> rejected   no schedule effect
  approved <-> rejected status correction by a higher authority; the
                        approved->rejected direction rolls the stamped
                        entries back to the week default

CONFLICT POLICY:
  Create and Edit run the advisory checker and append its note to the
  reason. They never fail because of conflicts - warn, don't prevent.

SEE ALSO:
  - checker.go: the advisory overlap scan
  - store.go: the transactional composite this service runs on
  - schedule/engine.go: the other (manual) writer of day entries
*/
package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/schedule-engine/calendar"
	"github.com/warp/schedule-engine/roster"
	"github.com/warp/schedule-engine/schedule"
)

// Service drives the leave-request lifecycle.
type Service struct {
	Store   Store
	Checker *Checker
	Log     *logrus.Logger
}

// NewService creates the lifecycle service over a transactional store.
func NewService(store Store, r roster.Roster) *Service {
	return &Service{
		Store:   store,
		Checker: NewChecker(store, r),
		Log:     logrus.New(),
	}
}

// =============================================================================
// CREATE / EDIT
// =============================================================================

// Create submits a new leave request. The range must not be inverted;
// beyond that the request always succeeds - when the checker finds
// overlaps, their summary is appended to the reason instead of blocking.
func (s *Service) Create(ctx context.Context, employeeID string, role roster.Role, reqType RequestType, dateStart, dateEnd time.Time, reason string) (*LeaveRequest, error) {
	if !reqType.Valid() {
		return nil, &schedule.ValidationError{Field: "type", Value: string(reqType), Message: "unknown request type"}
	}
	dateStart = calendar.Normalize(dateStart)
	dateEnd = calendar.Normalize(dateEnd)
	if dateEnd.Before(dateStart) {
		return nil, fmt.Errorf("%w: date_start %s after date_end %s", schedule.ErrInvalidRange,
			calendar.FormatISO(dateStart), calendar.FormatISO(dateEnd))
	}

	report, err := s.Checker.CheckConflicts(ctx, employeeID, role, dateStart, dateEnd, "")
	if err != nil {
		return nil, err
	}
	if report.HasConflicts {
		reason = mergeNote(reason, report.Note())
	}

	req := LeaveRequest{
		ID:           uuid.NewString(),
		EmployeeID:   employeeID,
		EmployeeRole: string(role),
		Type:         reqType,
		DateStart:    dateStart,
		DateEnd:      dateEnd,
		Reason:       reason,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.SaveRequest(ctx, req); err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"employee":   employeeID,
		"type":       reqType,
		"from":       calendar.FormatISO(dateStart),
		"to":         calendar.FormatISO(dateEnd),
		"conflicts":  report.HasConflicts,
	}).Info("created leave request")

	return &req, nil
}

// EditPatch is the owner-editable slice of a pending request.
type EditPatch struct {
	Type      RequestType
	DateStart time.Time
	DateEnd   time.Time
	Reason    string
}

// Edit rewrites a pending request. Only the owning employee may edit, and
// only while the request is pending. The checker runs again, excluding
// the request itself, and its note is appended - still advisory.
func (s *Service) Edit(ctx context.Context, requestID string, patch EditPatch, editorID string) (*LeaveRequest, error) {
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.EmployeeID != editorID {
		return nil, fmt.Errorf("%w: only the owner may edit a request", schedule.ErrPermissionDenied)
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: request is %s, only pending requests are editable", schedule.ErrInvalidState, req.Status)
	}
	if !patch.Type.Valid() {
		return nil, &schedule.ValidationError{Field: "type", Value: string(patch.Type), Message: "unknown request type"}
	}
	start := calendar.Normalize(patch.DateStart)
	end := calendar.Normalize(patch.DateEnd)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: date_start %s after date_end %s", schedule.ErrInvalidRange,
			calendar.FormatISO(start), calendar.FormatISO(end))
	}

	report, err := s.Checker.CheckConflicts(ctx, req.EmployeeID, roster.Role(req.EmployeeRole), start, end, req.ID)
	if err != nil {
		return nil, err
	}
	reason := patch.Reason
	if report.HasConflicts {
		reason = mergeNote(reason, report.Note())
	}

	req.Type = patch.Type
	req.DateStart = start
	req.DateEnd = end
	req.Reason = reason

	ok, err := s.Store.UpdateRequestIfPending(ctx, *req)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: request was decided while editing", schedule.ErrConflict)
	}
	return req, nil
}

// =============================================================================
// DECIDE - the critical transactional operation
// =============================================================================

// Decide resolves a pending request. On approval, one DayEntry per date
// in the range is stamped into the schedule with provenance
// from_approved_request - atomically with the status transition. On
// rejection nothing touches the schedule. A request that is no longer
// pending fails with ErrInvalidState; losing a decide race fails with
// ErrConflict.
func (s *Service) Decide(ctx context.Context, requestID string, newStatus Status, decidedBy string) (*LeaveRequest, error) {
	if newStatus != StatusApproved && newStatus != StatusRejected {
		return nil, &schedule.ValidationError{Field: "status", Value: string(newStatus), Message: "decision must be approved or rejected"}
	}
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: request already %s", schedule.ErrInvalidState, req.Status)
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx Store) error {
		won, err := tx.TransitionStatus(ctx, requestID, StatusPending, newStatus, decidedBy, now)
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("%w: request %s was decided concurrently", schedule.ErrConflict, requestID)
		}
		// Re-read inside the transaction: an owner edit may have rewritten
		// the range between the pending check above and winning the
		// precondition, and the stamp must follow the persisted row.
		req, err = tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if newStatus == StatusApproved {
			if err := tx.BulkPutDays(ctx, stampEntries(req)); err != nil {
				return fmt.Errorf("stamping schedule days: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = newStatus
	req.ApprovedBy = decidedBy
	req.ApprovedAt = &now

	s.Log.WithFields(logrus.Fields{
		"request_id": requestID,
		"status":     newStatus,
		"decided_by": decidedBy,
	}).Info("decided leave request")

	return req, nil
}

// =============================================================================
// STATUS CORRECTION
// =============================================================================

// CorrectStatus flips an already-resolved request to the other outcome.
// The corrector must not own the request; requests from peer-level roles
// may be corrected by a supervisor or admin, requests from supervisors
// (or admins) only by an admin. approved->rejected rolls the stamped
// day entries back to the week default; rejected->approved stamps them.
func (s *Service) CorrectStatus(ctx context.Context, requestID string, newStatus Status, correctorRole roster.Role, correctorID string) (*LeaveRequest, error) {
	if !newStatus.Resolved() {
		return nil, &schedule.ValidationError{Field: "status", Value: string(newStatus), Message: "correction must target approved or rejected"}
	}
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.Resolved() {
		return nil, fmt.Errorf("%w: only resolved requests may be corrected", schedule.ErrInvalidState)
	}
	if req.Status == newStatus {
		return nil, fmt.Errorf("%w: request is already %s", schedule.ErrInvalidState, newStatus)
	}
	if req.EmployeeID == correctorID {
		return nil, fmt.Errorf("%w: cannot correct your own request", schedule.ErrPermissionDenied)
	}
	if !allowedToCorrect(roster.Role(req.EmployeeRole), correctorRole) {
		return nil, fmt.Errorf("%w: role %s may not correct a request from role %s",
			schedule.ErrPermissionDenied, correctorRole, req.EmployeeRole)
	}

	now := time.Now().UTC()
	prev := req.Status
	err = s.Store.WithTx(ctx, func(tx Store) error {
		won, err := tx.TransitionStatus(ctx, requestID, prev, newStatus, correctorID, now)
		if err != nil {
			return err
		}
		if !won {
			return fmt.Errorf("%w: request %s changed concurrently", schedule.ErrConflict, requestID)
		}
		// Same discipline as Decide: stamp and rollback follow the row as
		// persisted inside the transaction, not the pre-check read.
		req, err = tx.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		switch newStatus {
		case StatusApproved:
			return tx.BulkPutDays(ctx, stampEntries(req))
		case StatusRejected:
			return rollbackEntries(ctx, tx, req)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = newStatus
	req.ApprovedBy = correctorID
	req.ApprovedAt = &now

	s.Log.WithFields(logrus.Fields{
		"request_id": requestID,
		"from":       prev,
		"to":         newStatus,
		"corrector":  correctorID,
	}).Warn("corrected leave request status")

	return req, nil
}

// allowedToCorrect implements the authorization ladder for corrections:
// supervisor and admin requests require an admin, everything else a
// supervisor or admin.
func allowedToCorrect(owner, corrector roster.Role) bool {
	if owner == roster.RoleSupervisor || owner == roster.RoleAdmin {
		return corrector == roster.RoleAdmin
	}
	return corrector.Privileged()
}

// =============================================================================
// SCHEDULE STAMPING
// =============================================================================

// stampEntries builds the day entries an approved request writes: one per
// date in the inclusive range, typed after the request, all times unset.
func stampEntries(req *LeaveRequest) []schedule.DayEntry {
	dayType := req.Type.DayType()
	dates := calendar.DatesInRange(req.DateStart, req.DateEnd)
	entries := make([]schedule.DayEntry, 0, len(dates))
	for _, date := range dates {
		entries = append(entries, schedule.DayEntry{
			EmployeeID:      req.EmployeeID,
			Date:            date,
			WeekdayName:     calendar.WeekdayName(date),
			DayType:         dayType,
			Provenance:      schedule.ProvenanceApprovedRequest,
			SourceRequestID: req.ID,
		})
	}
	return entries
}

// rollbackEntries reverts entries stamped by this request to the week
// default. Entries the request does not own (already re-stamped by a
// newer request, or manually rewritten after a prior correction) are
// left alone.
func rollbackEntries(ctx context.Context, tx Store, req *LeaveRequest) error {
	entries, err := tx.ListEmployeeDays(ctx, req.EmployeeID, req.DateStart, req.DateEnd)
	if err != nil {
		return err
	}
	var restored []schedule.DayEntry
	for _, e := range entries {
		if e.SourceRequestID == req.ID {
			restored = append(restored, schedule.DefaultDayEntry(e.EmployeeID, e.Date))
		}
	}
	return tx.BulkPutDays(ctx, restored)
}

// ApprovedDayOverrides implements schedule.OverrideSource: the entries
// implied by currently approved requests intersecting [from, to]. Week
// generation uses this to re-derive request-stamped days instead of
// copying them.
func (s *Service) ApprovedDayOverrides(ctx context.Context, from, to time.Time) ([]schedule.DayEntry, error) {
	open, err := s.Store.ListOpenRequestsOverlapping(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var entries []schedule.DayEntry
	for i := range open {
		if open[i].Status != StatusApproved {
			continue
		}
		for _, e := range stampEntries(&open[i]) {
			if !e.Date.Before(calendar.Normalize(from)) && !e.Date.After(calendar.Normalize(to)) {
				entries = append(entries, e)
			}
		}
	}
	return entries, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// MyRequests returns the employee's own request history, newest first.
func (s *Service) MyRequests(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	return s.Store.ListEmployeeRequests(ctx, employeeID)
}

// PendingRequests returns the approval queue, oldest first. Restricted to
// privileged roles.
func (s *Service) PendingRequests(ctx context.Context, role roster.Role) ([]LeaveRequest, error) {
	if !role.Privileged() {
		return nil, fmt.Errorf("%w: role %s may not list pending requests", schedule.ErrPermissionDenied, role)
	}
	return s.Store.ListPendingRequests(ctx)
}

// AllRequests returns the full request history, newest first. Restricted
// to privileged roles.
func (s *Service) AllRequests(ctx context.Context, role roster.Role) ([]LeaveRequest, error) {
	if !role.Privileged() {
		return nil, fmt.Errorf("%w: role %s may not list all requests", schedule.ErrPermissionDenied, role)
	}
	return s.Store.ListRequests(ctx)
}

func mergeNote(reason, note string) string {
	if reason == "" {
		return note
	}
	return strings.TrimRight(reason, " ") + "\n" + note
}
