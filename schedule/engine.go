/*
engine.go - Week and day-entry orchestration

PURPOSE:
  The Engine is the only component that mutates schedules. It owns
  authorization (admin/supervisor for edits), provenance enforcement
  (request-stamped days reject direct edits), and the week lifecycle.
  It is stateless between calls; all state lives in the stores.

OPERATIONS:
  GenerateWeek     build a draft week of default entries, optionally
                   copying the manual entries of an earlier week
  CopyWeek         GenerateWeek shifted to a new Monday
  EditDay          validated single-day edit
  EditDayBulk      one patch over many dates; locked days are skipped,
                   not errors - partial success is the contract
  ChangeWeekStatus draft->active->historical (active->draft to correct)
  DeleteWeek       drafts only; cascades the week's day entries
  ListVisibleWeeks role- and recency-bounded week listing
  WeekDetail       week + entries grouped per employee

SINGLE ACTIVE WEEK:
  Activating a week historicizes any other active week. The legacy
  system only filtered client-side by recency; the server now enforces
  the exclusivity. See DESIGN.md for the decision record.

SEE ALSO:
  - types.go: DayEntry invariants and patch validation
  - store.go: the persistence boundary
  - leave/service.go: the other writer of day entries (via approval)
*/
package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/warp/schedule-engine/calendar"
	"github.com/warp/schedule-engine/roster"
)

// Engine orchestrates week creation, day edits, and the week lifecycle.
type Engine struct {
	Weeks     WeekStore
	Days      DayStore
	Roster    roster.Roster
	Overrides OverrideSource // optional; re-derives request-stamped days on copy
	Log       *logrus.Logger
}

// NewEngine creates an engine over the given stores and roster.
func NewEngine(weeks WeekStore, days DayStore, r roster.Roster) *Engine {
	return &Engine{
		Weeks:  weeks,
		Days:   days,
		Roster: r,
		Log:    logrus.New(),
	}
}

// =============================================================================
// WEEK GENERATION
// =============================================================================

// GenerateWeek creates a draft week starting at the given Monday with one
// default entry per active employee per day. When copyFrom names an
// existing week, its manually set entries are copied with dates shifted
// by the week delta; entries stamped by an approved request are never
// copied - they are re-derived from live request state instead.
func (en *Engine) GenerateWeek(ctx context.Context, start time.Time, createdBy string, copyFrom string) (*WeekSchedule, error) {
	start = calendar.Normalize(start)
	if !calendar.IsMonday(start) {
		return nil, fmt.Errorf("%w: week must start on a Monday, got %s (%s)",
			ErrInvalidRange, calendar.FormatISO(start), calendar.WeekdayName(start))
	}
	end := start.AddDate(0, 0, 6)

	overlapping, err := en.Weeks.FindWeeksOverlapping(ctx, start, end, []WeekStatus{WeekDraft, WeekActive})
	if err != nil {
		return nil, err
	}
	if len(overlapping) > 0 {
		return nil, fmt.Errorf("%w: week %s already covers %s", ErrConflict,
			overlapping[0].ID, calendar.FormatISO(start))
	}

	employees, err := en.Roster.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	type dayKey struct {
		emp  string
		date string
	}
	entries := make(map[dayKey]DayEntry)
	inRoster := make(map[string]bool, len(employees))
	for _, emp := range employees {
		inRoster[emp.ID] = true
		for _, date := range calendar.WeekDates(start) {
			entries[dayKey{emp.ID, calendar.FormatISO(date)}] = DefaultDayEntry(emp.ID, date)
		}
	}

	if copyFrom != "" {
		src, err := en.Weeks.GetWeek(ctx, copyFrom)
		if err != nil {
			return nil, err
		}
		delta := calendar.DaysBetween(src.StartDate, start)
		srcEntries, err := en.Days.ListDays(ctx, src.StartDate, src.EndDate)
		if err != nil {
			return nil, err
		}
		for _, e := range srcEntries {
			if e.Locked() || !inRoster[e.EmployeeID] {
				continue
			}
			e.Date = e.Date.AddDate(0, 0, delta)
			e.WeekdayName = calendar.WeekdayName(e.Date)
			entries[dayKey{e.EmployeeID, calendar.FormatISO(e.Date)}] = e
		}
	}

	// Overlay live approved-request overrides for the new date range.
	if en.Overrides != nil {
		overrides, err := en.Overrides.ApprovedDayOverrides(ctx, start, end)
		if err != nil {
			return nil, err
		}
		for _, e := range overrides {
			if !inRoster[e.EmployeeID] {
				continue
			}
			entries[dayKey{e.EmployeeID, calendar.FormatISO(e.Date)}] = e
		}
	}

	week := WeekSchedule{
		ID:        uuid.NewString(),
		Name:      WeekName(start),
		StartDate: start,
		EndDate:   end,
		Status:    WeekDraft,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := en.Weeks.SaveWeek(ctx, week); err != nil {
		return nil, err
	}

	batch := make([]DayEntry, 0, len(entries))
	for _, e := range entries {
		batch = append(batch, e)
	}
	if err := en.Days.BulkPutDays(ctx, batch); err != nil {
		// Remove the week record again or a retry would trip the overlap
		// check against an empty orphan.
		if delErr := en.Weeks.DeleteWeek(ctx, week.ID); delErr != nil {
			en.Log.WithError(delErr).WithField("week_id", week.ID).
				Error("failed to clean up week after entry write error")
		}
		return nil, err
	}

	en.Log.WithFields(logrus.Fields{
		"week_id":   week.ID,
		"start":     calendar.FormatISO(start),
		"employees": len(employees),
		"copied":    copyFrom != "",
	}).Info("generated week schedule")

	return &week, nil
}

// CopyWeek generates a new draft week at newStart seeded from the entries
// of an existing week.
func (en *Engine) CopyWeek(ctx context.Context, weekID string, newStart time.Time, createdBy string) (*WeekSchedule, error) {
	return en.GenerateWeek(ctx, newStart, createdBy, weekID)
}

// =============================================================================
// DAY EDITS
// =============================================================================

// EditDay applies a validated patch to one employee's day. Only admins
// and supervisors may edit, and entries stamped by an approved request
// are locked until the request is resolved the other way.
func (en *Engine) EditDay(ctx context.Context, weekID, employeeID string, date time.Time, patch DayPatch, role roster.Role) (*DayEntry, error) {
	if !role.Privileged() {
		return nil, fmt.Errorf("%w: role %s may not edit schedules", ErrPermissionDenied, role)
	}
	week, err := en.Weeks.GetWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	date = calendar.Normalize(date)
	if !week.Contains(date) {
		return nil, fmt.Errorf("%w: %s is outside week %s", ErrInvalidRange, calendar.FormatISO(date), week.Name)
	}

	validated, err := patch.Validate()
	if err != nil {
		return nil, err
	}

	base, err := en.Days.GetDay(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	if base == nil {
		def := DefaultDayEntry(employeeID, date)
		base = &def
	}
	if base.Locked() {
		return nil, &LockedDayError{EmployeeID: employeeID, Date: date, SourceRequestID: base.SourceRequestID}
	}

	entry := validated.Apply(*base)
	if err := en.Days.PutDay(ctx, entry); err != nil {
		return nil, err
	}

	en.Log.WithFields(logrus.Fields{
		"week_id":  weekID,
		"employee": employeeID,
		"date":     calendar.FormatISO(date),
		"day_type": entry.DayType,
	}).Info("edited schedule day")

	return &entry, nil
}

// EditDayBulk applies one patch to several dates for the same employee.
// Dates locked by an approved request are skipped rather than failing the
// batch; the returned slice holds only the entries actually written.
func (en *Engine) EditDayBulk(ctx context.Context, weekID, employeeID string, dates []time.Time, patch DayPatch, role roster.Role) ([]DayEntry, error) {
	if !role.Privileged() {
		return nil, fmt.Errorf("%w: role %s may not edit schedules", ErrPermissionDenied, role)
	}
	week, err := en.Weeks.GetWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	validated, err := patch.Validate()
	if err != nil {
		return nil, err
	}

	var changed []DayEntry
	for _, date := range dates {
		date = calendar.Normalize(date)
		if !week.Contains(date) {
			return nil, fmt.Errorf("%w: %s is outside week %s", ErrInvalidRange, calendar.FormatISO(date), week.Name)
		}
		base, err := en.Days.GetDay(ctx, employeeID, date)
		if err != nil {
			return nil, err
		}
		if base == nil {
			def := DefaultDayEntry(employeeID, date)
			base = &def
		}
		if base.Locked() {
			continue
		}
		changed = append(changed, validated.Apply(*base))
	}

	if err := en.Days.BulkPutDays(ctx, changed); err != nil {
		return nil, err
	}

	en.Log.WithFields(logrus.Fields{
		"week_id":  weekID,
		"employee": employeeID,
		"applied":  len(changed),
		"skipped":  len(dates) - len(changed),
	}).Info("bulk edited schedule days")

	return changed, nil
}

// =============================================================================
// WEEK LIFECYCLE
// =============================================================================

// ChangeWeekStatus moves a week through its lifecycle. Activating a week
// historicizes any other currently active week, keeping at most one week
// active system-wide.
func (en *Engine) ChangeWeekStatus(ctx context.Context, weekID string, newStatus WeekStatus) (*WeekSchedule, error) {
	if !newStatus.Valid() {
		return nil, &ValidationError{Field: "status", Value: string(newStatus), Message: "unknown week status"}
	}
	week, err := en.Weeks.GetWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	if !week.CanTransition(newStatus) {
		return nil, &TransitionError{From: string(week.Status), To: string(newStatus)}
	}

	if newStatus == WeekActive {
		all, err := en.Weeks.ListWeeks(ctx)
		if err != nil {
			return nil, err
		}
		for _, other := range all {
			if other.ID != week.ID && other.Status == WeekActive {
				if err := en.Weeks.UpdateWeekStatus(ctx, other.ID, WeekHistorical); err != nil {
					return nil, err
				}
				en.Log.WithField("week_id", other.ID).Info("historicized previously active week")
			}
		}
	}

	if err := en.Weeks.UpdateWeekStatus(ctx, week.ID, newStatus); err != nil {
		return nil, err
	}
	week.Status = newStatus

	en.Log.WithFields(logrus.Fields{"week_id": week.ID, "status": newStatus}).Info("changed week status")
	return week, nil
}

// DeleteWeek removes a draft week and every day entry it generated.
func (en *Engine) DeleteWeek(ctx context.Context, weekID string) error {
	week, err := en.Weeks.GetWeek(ctx, weekID)
	if err != nil {
		return err
	}
	if !week.Deletable() {
		return fmt.Errorf("%w: only draft weeks may be deleted, week is %s", ErrInvalidState, week.Status)
	}
	if err := en.Days.DeleteDays(ctx, week.StartDate, week.EndDate); err != nil {
		return err
	}
	if err := en.Weeks.DeleteWeek(ctx, weekID); err != nil {
		return err
	}
	en.Log.WithField("week_id", weekID).Info("deleted draft week")
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// ListVisibleWeeks returns the weeks the role may see as of a date.
// Non-privileged roles see only active weeks. Every role sees at most one
// week starting before the current ISO week (the previous week) plus the
// current and future weeks.
func (en *Engine) ListVisibleWeeks(ctx context.Context, role roster.Role, asOf time.Time) ([]WeekSchedule, error) {
	all, err := en.Weeks.ListWeeks(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := calendar.MondayOf(asOf).AddDate(0, 0, -7)

	var visible []WeekSchedule
	for _, w := range all {
		if w.StartDate.Before(cutoff) {
			continue
		}
		if !role.Privileged() && w.Status != WeekActive {
			continue
		}
		visible = append(visible, w)
	}
	return visible, nil
}

// CurrentWeek returns the active week containing asOf, or ErrNotFound.
func (en *Engine) CurrentWeek(ctx context.Context, asOf time.Time) (*WeekSchedule, error) {
	all, err := en.Weeks.ListWeeks(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range all {
		if w.Status == WeekActive && w.Contains(asOf) {
			week := w
			return &week, nil
		}
	}
	return nil, fmt.Errorf("%w: no active week covers %s", ErrNotFound, calendar.FormatISO(asOf))
}

// WeekForDate returns the week containing the date, preferring an active
// week over drafts and historical ones.
func (en *Engine) WeekForDate(ctx context.Context, date time.Time) (*WeekSchedule, error) {
	all, err := en.Weeks.ListWeeks(ctx)
	if err != nil {
		return nil, err
	}
	var found *WeekSchedule
	for i := range all {
		if !all[i].Contains(date) {
			continue
		}
		if all[i].Status == WeekActive {
			return &all[i], nil
		}
		if found == nil {
			found = &all[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no week covers %s", ErrNotFound, calendar.FormatISO(date))
	}
	return found, nil
}

// EmployeeWeek is one employee's slice of a week: days keyed by ISO date.
type EmployeeWeek struct {
	Employee roster.Employee
	Days     map[string]DayEntry
}

// WeekDetail is a week with its entries grouped per employee, the shape
// the weekly grid renders.
type WeekDetail struct {
	Week      WeekSchedule
	Employees []EmployeeWeek
}

// WeekDetail loads a week and all of its day entries grouped by employee.
// Employees are ordered as the roster lists them; entries belonging to
// employees no longer on the active roster are appended last.
func (en *Engine) WeekDetail(ctx context.Context, weekID string) (*WeekDetail, error) {
	week, err := en.Weeks.GetWeek(ctx, weekID)
	if err != nil {
		return nil, err
	}
	entries, err := en.Days.ListDays(ctx, week.StartDate, week.EndDate)
	if err != nil {
		return nil, err
	}
	active, err := en.Roster.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[string]map[string]DayEntry)
	for _, e := range entries {
		if byEmployee[e.EmployeeID] == nil {
			byEmployee[e.EmployeeID] = make(map[string]DayEntry)
		}
		byEmployee[e.EmployeeID][calendar.FormatISO(e.Date)] = e
	}

	detail := &WeekDetail{Week: *week}
	seen := make(map[string]bool)
	for _, emp := range active {
		days, ok := byEmployee[emp.ID]
		if !ok {
			continue
		}
		seen[emp.ID] = true
		detail.Employees = append(detail.Employees, EmployeeWeek{Employee: emp, Days: days})
	}
	var offRoster []string
	for id := range byEmployee {
		if !seen[id] {
			offRoster = append(offRoster, id)
		}
	}
	sort.Strings(offRoster)
	for _, id := range offRoster {
		detail.Employees = append(detail.Employees, EmployeeWeek{Employee: roster.Employee{ID: id}, Days: byEmployee[id]})
	}
	return detail, nil
}
