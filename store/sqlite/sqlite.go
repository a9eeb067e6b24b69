/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements schedule.DayStore, schedule.WeekStore, leave.RequestStore,
  leave.Store (transactions) and roster.Roster over one database. The
  same patterns apply to PostgreSQL; only dialect details differ.

KEY TABLES:
  employees       roster snapshot (read path for the engine, seeded
                  by the API or by tests)
  week_schedules  WeekSchedule records and lifecycle status
  day_entries     (employee_id, date) -> entry; the weekly grid
  leave_requests  request records with status and decision audit fields

CONCURRENCY:
  Status transitions are conditional UPDATEs carrying the expected
  current status in the WHERE clause. Zero rows affected means another
  writer won the race; callers turn that into ErrConflict. No row locks
  are held outside a transaction.

WAL MODE:
  The database opens with WAL and foreign keys on: readers don't block
  the single writer, and source_request_id stays consistent.

MIGRATION:
  Schema is auto-migrated on New(). Use ":memory:" for tests.

SEE ALSO:
  - schedule/store.go, leave/store.go: interface definitions
  - store/memory: in-memory twin used by unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/schedule-engine/calendar"
	"github.com/warp/schedule-engine/leave"
	"github.com/warp/schedule-engine/roster"
	"github.com/warp/schedule-engine/schedule"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// Interface checks.
var (
	_ schedule.DayStore  = (*Store)(nil)
	_ schedule.WeekStore = (*Store)(nil)
	_ leave.Store        = (*Store)(nil)
	_ roster.Roster      = (*Store)(nil)
)

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS employees (
		id     TEXT PRIMARY KEY,
		name   TEXT NOT NULL,
		role   TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS week_schedules (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		status     TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_weeks_status_start ON week_schedules(status, start_date);

	CREATE TABLE IF NOT EXISTS day_entries (
		employee_id       TEXT NOT NULL,
		date              TEXT NOT NULL,
		weekday_name      TEXT NOT NULL,
		shift_start       TEXT NOT NULL DEFAULT '',
		shift_end         TEXT NOT NULL DEFAULT '',
		lunch_start       TEXT NOT NULL DEFAULT '',
		lunch_end         TEXT NOT NULL DEFAULT '',
		day_type          TEXT NOT NULL,
		shift_period      TEXT NOT NULL DEFAULT '',
		provenance        TEXT NOT NULL,
		source_request_id TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (employee_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_day_entries_date ON day_entries(date);
	CREATE INDEX IF NOT EXISTS idx_day_entries_source ON day_entries(source_request_id);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id            TEXT PRIMARY KEY,
		employee_id   TEXT NOT NULL,
		employee_role TEXT NOT NULL,
		type          TEXT NOT NULL,
		date_start    TEXT NOT NULL,
		date_end      TEXT NOT NULL,
		reason        TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		approved_by   TEXT NOT NULL DEFAULT '',
		approved_at   TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_requests_employee ON leave_requests(employee_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON leave_requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_dates ON leave_requests(date_start, date_end);
	`
	_, err := s.db.Exec(schemaSQL)
	return err
}

// querier abstracts *sql.DB and *sql.Tx so the same query code runs
// inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// storeErr maps driver failures to the retryable ErrUnavailable kind.
// Not-found conditions are handled before this point.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", schedule.ErrUnavailable, op, err)
}

// =============================================================================
// DAY STORE
// =============================================================================

func (s *Store) GetDay(ctx context.Context, employeeID string, date time.Time) (*schedule.DayEntry, error) {
	return getDay(ctx, s.db, employeeID, date)
}

func (s *Store) PutDay(ctx context.Context, entry schedule.DayEntry) error {
	return putDay(ctx, s.db, entry)
}

// BulkPutDays writes all entries inside one transaction so readers see
// either none or all of them.
func (s *Store) BulkPutDays(ctx context.Context, entries []schedule.DayEntry) error {
	return s.WithTx(ctx, func(tx leave.Store) error {
		return tx.BulkPutDays(ctx, entries)
	})
}

func (s *Store) ListDays(ctx context.Context, from, to time.Time) ([]schedule.DayEntry, error) {
	return listDays(ctx, s.db, "", from, to)
}

func (s *Store) ListEmployeeDays(ctx context.Context, employeeID string, from, to time.Time) ([]schedule.DayEntry, error) {
	return listDays(ctx, s.db, employeeID, from, to)
}

func (s *Store) DeleteDays(ctx context.Context, from, to time.Time) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM day_entries WHERE date >= ? AND date <= ?`,
		calendar.FormatISO(from), calendar.FormatISO(to))
	if err != nil {
		return storeErr("delete day entries", err)
	}
	return nil
}

func getDay(ctx context.Context, q querier, employeeID string, date time.Time) (*schedule.DayEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT employee_id, date, weekday_name, shift_start, shift_end,
		       lunch_start, lunch_end, day_type, shift_period, provenance, source_request_id
		FROM day_entries WHERE employee_id = ? AND date = ?`,
		employeeID, calendar.FormatISO(calendar.Normalize(date)))
	entry, err := scanDay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get day entry", err)
	}
	return entry, nil
}

func putDay(ctx context.Context, q querier, e schedule.DayEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO day_entries
			(employee_id, date, weekday_name, shift_start, shift_end,
			 lunch_start, lunch_end, day_type, shift_period, provenance, source_request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			weekday_name = excluded.weekday_name,
			shift_start = excluded.shift_start,
			shift_end = excluded.shift_end,
			lunch_start = excluded.lunch_start,
			lunch_end = excluded.lunch_end,
			day_type = excluded.day_type,
			shift_period = excluded.shift_period,
			provenance = excluded.provenance,
			source_request_id = excluded.source_request_id`,
		e.EmployeeID, calendar.FormatISO(calendar.Normalize(e.Date)), e.WeekdayName,
		e.ShiftStart, e.ShiftEnd, e.LunchStart, e.LunchEnd,
		string(e.DayType), string(e.ShiftPeriod), string(e.Provenance), e.SourceRequestID)
	if err != nil {
		return storeErr("put day entry", err)
	}
	return nil
}

func listDays(ctx context.Context, q querier, employeeID string, from, to time.Time) ([]schedule.DayEntry, error) {
	query := `
		SELECT employee_id, date, weekday_name, shift_start, shift_end,
		       lunch_start, lunch_end, day_type, shift_period, provenance, source_request_id
		FROM day_entries WHERE date >= ? AND date <= ?`
	args := []any{calendar.FormatISO(from), calendar.FormatISO(to)}
	if employeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, employeeID)
	}
	query += ` ORDER BY employee_id, date`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list day entries", err)
	}
	defer rows.Close()

	var out []schedule.DayEntry
	for rows.Next() {
		entry, err := scanDay(rows)
		if err != nil {
			return nil, storeErr("scan day entry", err)
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDay(row rowScanner) (*schedule.DayEntry, error) {
	var e schedule.DayEntry
	var date, dayType, period, provenance string
	err := row.Scan(&e.EmployeeID, &date, &e.WeekdayName, &e.ShiftStart, &e.ShiftEnd,
		&e.LunchStart, &e.LunchEnd, &dayType, &period, &provenance, &e.SourceRequestID)
	if err != nil {
		return nil, err
	}
	e.Date, err = calendar.ParseISO(date)
	if err != nil {
		return nil, err
	}
	e.DayType = schedule.DayType(dayType)
	e.ShiftPeriod = schedule.ShiftPeriod(period)
	e.Provenance = schedule.Provenance(provenance)
	return &e, nil
}

// =============================================================================
// WEEK STORE
// =============================================================================

func (s *Store) SaveWeek(ctx context.Context, w schedule.WeekSchedule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO week_schedules (id, name, start_date, end_date, status, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, start_date = excluded.start_date,
			end_date = excluded.end_date, status = excluded.status`,
		w.ID, w.Name, calendar.FormatISO(w.StartDate), calendar.FormatISO(w.EndDate),
		string(w.Status), w.CreatedBy, w.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return storeErr("save week", err)
	}
	return nil
}

func (s *Store) GetWeek(ctx context.Context, id string) (*schedule.WeekSchedule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, status, created_by, created_at
		FROM week_schedules WHERE id = ?`, id)
	w, err := scanWeek(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: week %s", schedule.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("get week", err)
	}
	return w, nil
}

func (s *Store) ListWeeks(ctx context.Context) ([]schedule.WeekSchedule, error) {
	return s.queryWeeks(ctx, `
		SELECT id, name, start_date, end_date, status, created_by, created_at
		FROM week_schedules ORDER BY start_date DESC`)
}

func (s *Store) FindWeeksOverlapping(ctx context.Context, from, to time.Time, statuses []schedule.WeekStatus) ([]schedule.WeekSchedule, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := []any{calendar.FormatISO(to), calendar.FormatISO(from)}
	for _, st := range statuses {
		args = append(args, string(st))
	}
	return s.queryWeeks(ctx, `
		SELECT id, name, start_date, end_date, status, created_by, created_at
		FROM week_schedules
		WHERE start_date <= ? AND end_date >= ? AND status IN (`+placeholders+`)
		ORDER BY start_date`, args...)
}

func (s *Store) UpdateWeekStatus(ctx context.Context, id string, status schedule.WeekStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE week_schedules SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return storeErr("update week status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: week %s", schedule.ErrNotFound, id)
	}
	return nil
}

func (s *Store) DeleteWeek(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM week_schedules WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete week", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: week %s", schedule.ErrNotFound, id)
	}
	return nil
}

func (s *Store) queryWeeks(ctx context.Context, query string, args ...any) ([]schedule.WeekSchedule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query weeks", err)
	}
	defer rows.Close()

	var out []schedule.WeekSchedule
	for rows.Next() {
		w, err := scanWeek(rows)
		if err != nil {
			return nil, storeErr("scan week", err)
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func scanWeek(row rowScanner) (*schedule.WeekSchedule, error) {
	var w schedule.WeekSchedule
	var start, end, status, createdAt string
	if err := row.Scan(&w.ID, &w.Name, &start, &end, &status, &w.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if w.StartDate, err = calendar.ParseISO(start); err != nil {
		return nil, err
	}
	if w.EndDate, err = calendar.ParseISO(end); err != nil {
		return nil, err
	}
	w.Status = schedule.WeekStatus(status)
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &w, nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

const requestColumns = `id, employee_id, employee_role, type, date_start, date_end,
	reason, status, created_at, approved_by, approved_at`

func (s *Store) SaveRequest(ctx context.Context, r leave.LeaveRequest) error {
	return saveRequest(ctx, s.db, r)
}

func (s *Store) GetRequest(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	return getRequest(ctx, s.db, id)
}

func (s *Store) ListRequests(ctx context.Context) ([]leave.LeaveRequest, error) {
	return queryRequests(ctx, s.db, `SELECT `+requestColumns+` FROM leave_requests ORDER BY created_at DESC`)
}

func (s *Store) ListEmployeeRequests(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	return queryRequests(ctx, s.db, `SELECT `+requestColumns+`
		FROM leave_requests WHERE employee_id = ? ORDER BY created_at DESC`, employeeID)
}

func (s *Store) ListPendingRequests(ctx context.Context) ([]leave.LeaveRequest, error) {
	return queryRequests(ctx, s.db, `SELECT `+requestColumns+`
		FROM leave_requests WHERE status = ? ORDER BY created_at`, string(leave.StatusPending))
}

func (s *Store) ListOpenRequestsOverlapping(ctx context.Context, from, to time.Time) ([]leave.LeaveRequest, error) {
	return listOpenOverlapping(ctx, s.db, from, to)
}

func (s *Store) TransitionStatus(ctx context.Context, id string, from, to leave.Status, decidedBy string, at time.Time) (bool, error) {
	return transitionStatus(ctx, s.db, id, from, to, decidedBy, at)
}

func (s *Store) UpdateRequestIfPending(ctx context.Context, r leave.LeaveRequest) (bool, error) {
	return updateIfPending(ctx, s.db, r)
}

func saveRequest(ctx context.Context, q querier, r leave.LeaveRequest) error {
	var approvedAt any
	if r.ApprovedAt != nil {
		approvedAt = r.ApprovedAt.UTC().Format(time.RFC3339)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type, date_start = excluded.date_start,
			date_end = excluded.date_end, reason = excluded.reason,
			status = excluded.status, approved_by = excluded.approved_by,
			approved_at = excluded.approved_at`,
		r.ID, r.EmployeeID, r.EmployeeRole, string(r.Type),
		calendar.FormatISO(r.DateStart), calendar.FormatISO(r.DateEnd),
		r.Reason, string(r.Status), r.CreatedAt.UTC().Format(time.RFC3339),
		r.ApprovedBy, approvedAt)
	if err != nil {
		return storeErr("save request", err)
	}
	return nil
}

func getRequest(ctx context.Context, q querier, id string) (*leave.LeaveRequest, error) {
	row := q.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: request %s", schedule.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("get request", err)
	}
	return r, nil
}

func listOpenOverlapping(ctx context.Context, q querier, from, to time.Time) ([]leave.LeaveRequest, error) {
	return queryRequests(ctx, q, `SELECT `+requestColumns+`
		FROM leave_requests
		WHERE status IN (?, ?) AND date_start <= ? AND date_end >= ?
		ORDER BY created_at`,
		string(leave.StatusPending), string(leave.StatusApproved),
		calendar.FormatISO(to), calendar.FormatISO(from))
}

func transitionStatus(ctx context.Context, q querier, id string, from, to leave.Status, decidedBy string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE leave_requests SET status = ?, approved_by = ?, approved_at = ?
		WHERE id = ? AND status = ?`,
		string(to), decidedBy, at.UTC().Format(time.RFC3339), id, string(from))
	if err != nil {
		return false, storeErr("transition request status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("transition request status", err)
	}
	return n > 0, nil
}

func updateIfPending(ctx context.Context, q querier, r leave.LeaveRequest) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE leave_requests SET type = ?, date_start = ?, date_end = ?, reason = ?
		WHERE id = ? AND status = ?`,
		string(r.Type), calendar.FormatISO(r.DateStart), calendar.FormatISO(r.DateEnd),
		r.Reason, r.ID, string(leave.StatusPending))
	if err != nil {
		return false, storeErr("update request", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("update request", err)
	}
	return n > 0, nil
}

func queryRequests(ctx context.Context, q querier, query string, args ...any) ([]leave.LeaveRequest, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query requests", err)
	}
	defer rows.Close()

	var out []leave.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, storeErr("scan request", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRequest(row rowScanner) (*leave.LeaveRequest, error) {
	var r leave.LeaveRequest
	var reqType, start, end, status, createdAt string
	var approvedAt sql.NullString
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeRole, &reqType, &start, &end,
		&r.Reason, &status, &createdAt, &r.ApprovedBy, &approvedAt)
	if err != nil {
		return nil, err
	}
	r.Type = leave.RequestType(reqType)
	r.Status = leave.Status(status)
	if r.DateStart, err = calendar.ParseISO(start); err != nil {
		return nil, err
	}
	if r.DateEnd, err = calendar.ParseISO(end); err != nil {
		return nil, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if approvedAt.Valid {
		t, err := time.Parse(time.RFC3339, approvedAt.String)
		if err == nil {
			r.ApprovedAt = &t
		}
	}
	return &r, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn inside a database transaction. fn receives a store view
// bound to the transaction; an error rolls everything back.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}

	view := &txStore{tx: tx}
	if err := fn(view); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

// txStore is the transaction-bound view handed to WithTx callbacks.
type txStore struct {
	tx *sql.Tx
}

var _ leave.Store = (*txStore)(nil)

func (t *txStore) GetDay(ctx context.Context, employeeID string, date time.Time) (*schedule.DayEntry, error) {
	return getDay(ctx, t.tx, employeeID, date)
}

func (t *txStore) PutDay(ctx context.Context, entry schedule.DayEntry) error {
	return putDay(ctx, t.tx, entry)
}

func (t *txStore) BulkPutDays(ctx context.Context, entries []schedule.DayEntry) error {
	for _, e := range entries {
		if err := putDay(ctx, t.tx, e); err != nil {
			return err
		}
	}
	return nil
}

func (t *txStore) ListDays(ctx context.Context, from, to time.Time) ([]schedule.DayEntry, error) {
	return listDays(ctx, t.tx, "", from, to)
}

func (t *txStore) ListEmployeeDays(ctx context.Context, employeeID string, from, to time.Time) ([]schedule.DayEntry, error) {
	return listDays(ctx, t.tx, employeeID, from, to)
}

func (t *txStore) DeleteDays(ctx context.Context, from, to time.Time) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM day_entries WHERE date >= ? AND date <= ?`,
		calendar.FormatISO(from), calendar.FormatISO(to))
	if err != nil {
		return storeErr("delete day entries", err)
	}
	return nil
}

func (t *txStore) SaveRequest(ctx context.Context, r leave.LeaveRequest) error {
	return saveRequest(ctx, t.tx, r)
}

func (t *txStore) GetRequest(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	return getRequest(ctx, t.tx, id)
}

func (t *txStore) ListRequests(ctx context.Context) ([]leave.LeaveRequest, error) {
	return queryRequests(ctx, t.tx, `SELECT `+requestColumns+` FROM leave_requests ORDER BY created_at DESC`)
}

func (t *txStore) ListEmployeeRequests(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	return queryRequests(ctx, t.tx, `SELECT `+requestColumns+`
		FROM leave_requests WHERE employee_id = ? ORDER BY created_at DESC`, employeeID)
}

func (t *txStore) ListPendingRequests(ctx context.Context) ([]leave.LeaveRequest, error) {
	return queryRequests(ctx, t.tx, `SELECT `+requestColumns+`
		FROM leave_requests WHERE status = ? ORDER BY created_at`, string(leave.StatusPending))
}

func (t *txStore) ListOpenRequestsOverlapping(ctx context.Context, from, to time.Time) ([]leave.LeaveRequest, error) {
	return listOpenOverlapping(ctx, t.tx, from, to)
}

func (t *txStore) TransitionStatus(ctx context.Context, id string, from, to leave.Status, decidedBy string, at time.Time) (bool, error) {
	return transitionStatus(ctx, t.tx, id, from, to, decidedBy, at)
}

func (t *txStore) UpdateRequestIfPending(ctx context.Context, r leave.LeaveRequest) (bool, error) {
	return updateIfPending(ctx, t.tx, r)
}

// WithTx on an already-open transaction just runs the callback; SQLite
// has no nested transactions and the outer one already guards atomicity.
func (t *txStore) WithTx(_ context.Context, fn func(leave.Store) error) error {
	return fn(t)
}

// =============================================================================
// ROSTER
// =============================================================================

// SaveEmployee seeds or updates a roster record.
func (s *Store) SaveEmployee(ctx context.Context, e roster.Employee) error {
	active := 0
	if e.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, role, active) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, role = excluded.role, active = excluded.active`,
		e.ID, e.Name, string(e.Role), active)
	if err != nil {
		return storeErr("save employee", err)
	}
	return nil
}

func (s *Store) ListActive(ctx context.Context) ([]roster.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, role, active FROM employees WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, storeErr("list employees", err)
	}
	defer rows.Close()

	var out []roster.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, storeErr("scan employee", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*roster.Employee, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, role, active FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: employee %s", schedule.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("get employee", err)
	}
	return e, nil
}

func scanEmployee(row rowScanner) (*roster.Employee, error) {
	var e roster.Employee
	var role string
	var active int
	if err := row.Scan(&e.ID, &e.Name, &role, &active); err != nil {
		return nil, err
	}
	e.Role = roster.Role(role)
	e.Active = active == 1
	return &e, nil
}
