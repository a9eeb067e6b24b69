// Package memory provides an in-memory implementation of every storage
// interface the engine uses. It backs tests and dev runs; production uses
// store/sqlite.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/schedule-engine/calendar"
	"github.com/warp/schedule-engine/leave"
	"github.com/warp/schedule-engine/roster"
	"github.com/warp/schedule-engine/schedule"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type dayKey struct {
	EmployeeID string
	Date       string // ISO date
}

// Store keeps everything in maps guarded by one RWMutex. WithTx
// serializes writers and restores a snapshot when the callback fails,
// giving the same all-or-nothing behavior as a database transaction.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	days      map[dayKey]schedule.DayEntry
	weeks     map[string]schedule.WeekSchedule
	requests  map[string]leave.LeaveRequest
	employees map[string]roster.Employee
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		days:      make(map[dayKey]schedule.DayEntry),
		weeks:     make(map[string]schedule.WeekSchedule),
		requests:  make(map[string]leave.LeaveRequest),
		employees: make(map[string]roster.Employee),
	}
}

// Interface checks.
var (
	_ schedule.DayStore  = (*Store)(nil)
	_ schedule.WeekStore = (*Store)(nil)
	_ leave.Store        = (*Store)(nil)
	_ roster.Roster      = (*Store)(nil)
)

// =============================================================================
// DAY STORE
// =============================================================================

func (m *Store) GetDay(_ context.Context, employeeID string, date time.Time) (*schedule.DayEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.days[dayKey{employeeID, calendar.FormatISO(calendar.Normalize(date))}]; ok {
		return &e, nil
	}
	return nil, nil
}

func (m *Store) PutDay(_ context.Context, entry schedule.DayEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putDayLocked(entry)
	return nil
}

func (m *Store) BulkPutDays(_ context.Context, entries []schedule.DayEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.putDayLocked(e)
	}
	return nil
}

func (m *Store) putDayLocked(e schedule.DayEntry) {
	e.Date = calendar.Normalize(e.Date)
	m.days[dayKey{e.EmployeeID, calendar.FormatISO(e.Date)}] = e
}

func (m *Store) ListDays(_ context.Context, from, to time.Time) ([]schedule.DayEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listDaysLocked("", from, to), nil
}

func (m *Store) ListEmployeeDays(_ context.Context, employeeID string, from, to time.Time) ([]schedule.DayEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listDaysLocked(employeeID, from, to), nil
}

func (m *Store) listDaysLocked(employeeID string, from, to time.Time) []schedule.DayEntry {
	start, end := calendar.Normalize(from), calendar.Normalize(to)
	var out []schedule.DayEntry
	for _, e := range m.days {
		if employeeID != "" && e.EmployeeID != employeeID {
			continue
		}
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func (m *Store) DeleteDays(_ context.Context, from, to time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, end := calendar.Normalize(from), calendar.Normalize(to)
	for k, e := range m.days {
		if !e.Date.Before(start) && !e.Date.After(end) {
			delete(m.days, k)
		}
	}
	return nil
}

// =============================================================================
// WEEK STORE
// =============================================================================

func (m *Store) SaveWeek(_ context.Context, w schedule.WeekSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weeks[w.ID] = w
	return nil
}

func (m *Store) GetWeek(_ context.Context, id string) (*schedule.WeekSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.weeks[id]; ok {
		return &w, nil
	}
	return nil, schedule.ErrNotFound
}

func (m *Store) ListWeeks(_ context.Context) ([]schedule.WeekSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schedule.WeekSchedule, 0, len(m.weeks))
	for _, w := range m.weeks {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (m *Store) FindWeeksOverlapping(_ context.Context, from, to time.Time, statuses []schedule.WeekStatus) ([]schedule.WeekSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[schedule.WeekStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	var out []schedule.WeekSchedule
	for _, w := range m.weeks {
		if wanted[w.Status] && calendar.RangesOverlap(w.StartDate, w.EndDate, from, to) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *Store) UpdateWeekStatus(_ context.Context, id string, status schedule.WeekStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.weeks[id]
	if !ok {
		return schedule.ErrNotFound
	}
	w.Status = status
	m.weeks[id] = w
	return nil
}

func (m *Store) DeleteWeek(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.weeks[id]; !ok {
		return schedule.ErrNotFound
	}
	delete(m.weeks, id)
	return nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

func (m *Store) SaveRequest(_ context.Context, r leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

func (m *Store) GetRequest(_ context.Context, id string) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		return &r, nil
	}
	return nil, schedule.ErrNotFound
}

func (m *Store) ListRequests(_ context.Context) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequestsLocked(func(leave.LeaveRequest) bool { return true }, true), nil
}

func (m *Store) ListEmployeeRequests(_ context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequestsLocked(func(r leave.LeaveRequest) bool { return r.EmployeeID == employeeID }, true), nil
}

func (m *Store) ListPendingRequests(_ context.Context) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequestsLocked(func(r leave.LeaveRequest) bool { return r.Status == leave.StatusPending }, false), nil
}

func (m *Store) ListOpenRequestsOverlapping(_ context.Context, from, to time.Time) ([]leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filterRequestsLocked(func(r leave.LeaveRequest) bool {
		open := r.Status == leave.StatusPending || r.Status == leave.StatusApproved
		return open && calendar.RangesOverlap(r.DateStart, r.DateEnd, from, to)
	}, false), nil
}

func (m *Store) filterRequestsLocked(keep func(leave.LeaveRequest) bool, newestFirst bool) []leave.LeaveRequest {
	var out []leave.LeaveRequest
	for _, r := range m.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Store) TransitionStatus(_ context.Context, id string, from, to leave.Status, decidedBy string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return false, schedule.ErrNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	r.ApprovedBy = decidedBy
	t := at
	r.ApprovedAt = &t
	m.requests[id] = r
	return true, nil
}

func (m *Store) UpdateRequestIfPending(_ context.Context, r leave.LeaveRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.requests[r.ID]
	if !ok {
		return false, schedule.ErrNotFound
	}
	if existing.Status != leave.StatusPending {
		return false, nil
	}
	m.requests[r.ID] = r
	return true, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx serializes writers and snapshots the maps so a failing callback
// leaves no partial state behind.
func (m *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapDays, snapRequests := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snapDays, snapRequests)
		return err
	}
	return nil
}

func (m *Store) snapshot() (map[dayKey]schedule.DayEntry, map[string]leave.LeaveRequest) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	days := make(map[dayKey]schedule.DayEntry, len(m.days))
	for k, v := range m.days {
		days[k] = v
	}
	requests := make(map[string]leave.LeaveRequest, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}
	return days, requests
}

func (m *Store) restore(days map[dayKey]schedule.DayEntry, requests map[string]leave.LeaveRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days = days
	m.requests = requests
}

// =============================================================================
// ROSTER
// =============================================================================

// SaveEmployee seeds the roster. Tests and the seeding endpoint use it;
// the engine itself only reads.
func (m *Store) SaveEmployee(_ context.Context, e roster.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Store) ListActive(_ context.Context) ([]roster.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []roster.Employee
	for _, e := range m.employees {
		if e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) GetEmployee(_ context.Context, id string) (*roster.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.employees[id]; ok {
		return &e, nil
	}
	return nil, schedule.ErrNotFound
}
