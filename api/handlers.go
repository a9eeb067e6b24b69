/*
handlers.go - HTTP API handlers for the weekly schedule system

PURPOSE:
  Exposes the schedule engine and the leave-request service via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                 List active employees
    POST   /api/employees                 Seed/update an employee

  Weeks:
    POST   /api/weeks                     Generate a week (optionally copying)
    GET    /api/weeks                     Weeks visible to the caller's role
    GET    /api/weeks/current             Active week covering today
    GET    /api/weeks/by-date?date=       Week covering a given date
    GET    /api/weeks/{id}                Week header
    GET    /api/weeks/{id}/detail         Grid: entries grouped per employee
    GET    /api/weeks/{id}/hours          Scheduled-hours summary
    PUT    /api/weeks/{id}/status         Lifecycle transition
    DELETE /api/weeks/{id}                Delete a draft week
    PUT    /api/weeks/{id}/days/{employeeID}/{date}  Edit one day
    PUT    /api/weeks/{id}/days           Bulk edit (locked days skipped)

  Requests:
    POST   /api/requests                  Submit a leave request
    GET    /api/requests                  All requests (privileged)
    GET    /api/requests/mine             Caller's own requests
    GET    /api/requests/pending          Pending queue (privileged)
    GET    /api/requests/check            Advisory conflict check
    GET    /api/requests/{id}             One request
    PUT    /api/requests/{id}             Edit a pending request (owner)
    POST   /api/requests/{id}/decide      Approve or reject (privileged)
    POST   /api/requests/{id}/correct     Flip a resolved decision

IDENTITY:
  The caller identifies via the X-Employee-ID and X-Employee-Role
  headers. There is no session layer; an upstream gateway is expected
  to set these after authenticating.

ERROR HANDLING:
  Domain error kinds map to HTTP status:
  - 400: invalid input, invalid dates/ranges
  - 401: missing or malformed identity headers
  - 403: role not allowed
  - 404: not found
  - 409: overlap conflicts, lost decide races
  - 422: illegal lifecycle transition
  - 423: day locked by an approved request
  - 503: storage unavailable

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/schedule-engine/calendar"
	"github.com/warp/schedule-engine/leave"
	"github.com/warp/schedule-engine/roster"
	"github.com/warp/schedule-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Directory is the roster with a write path, used to seed employees.
// Both stores implement it.
type Directory interface {
	roster.Roster
	SaveEmployee(ctx context.Context, e roster.Employee) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine    *schedule.Engine
	Requests  *leave.Service
	Directory Directory
	Log       *logrus.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewHandler creates a handler over the engine, the request service and
// the employee directory.
func NewHandler(engine *schedule.Engine, requests *leave.Service, dir Directory, log *logrus.Logger) *Handler {
	return &Handler{
		Engine:    engine,
		Requests:  requests,
		Directory: dir,
		Log:       log,
		Now:       time.Now,
	}
}

// actor is the authenticated caller, taken from identity headers.
type actor struct {
	ID   string
	Role roster.Role
}

// requireActor extracts the caller from X-Employee-ID / X-Employee-Role.
// Writes a 401 and returns false when either is missing or invalid.
func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (actor, bool) {
	id := r.Header.Get("X-Employee-ID")
	role := roster.Role(r.Header.Get("X-Employee-Role"))
	if id == "" || !role.Valid() {
		writeError(w, http.StatusUnauthorized, "Missing or invalid identity headers", nil)
		return actor{}, false
	}
	return actor{ID: id, Role: role}, true
}

// requirePrivileged is requireActor plus a supervisor/admin gate.
func (h *Handler) requirePrivileged(w http.ResponseWriter, r *http.Request) (actor, bool) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return actor{}, false
	}
	if !a.Role.Privileged() {
		writeError(w, http.StatusForbidden, "Requires a supervisor or admin role", nil)
		return actor{}, false
	}
	return a, true
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the active roster.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	employees, err := h.Directory.ListActive(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SeedEmployee creates or updates a roster record.
func (h *Handler) SeedEmployee(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requirePrivileged(w, r)
	if !ok {
		return
	}
	var req SeedEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role := roster.Role(req.Role)
	if req.ID == "" || req.Name == "" || !role.Valid() {
		writeError(w, http.StatusBadRequest, "id, name and a valid role are required", nil)
		return
	}
	emp := roster.Employee{ID: req.ID, Name: req.Name, Role: role, Active: true}
	if req.Active != nil {
		emp.Active = *req.Active
	}
	if err := h.Directory.SaveEmployee(r.Context(), emp); err != nil {
		h.writeDomainError(w, "Failed to save employee", err)
		return
	}
	h.Log.WithFields(logrus.Fields{"employee_id": emp.ID, "by": a.ID}).Info("seeded employee")
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// WEEK HANDLERS
// =============================================================================

// GenerateWeek creates a draft week, optionally copying another week.
func (h *Handler) GenerateWeek(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requirePrivileged(w, r)
	if !ok {
		return
	}
	var req GenerateWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := calendar.ParseISO(req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week_start date", err)
		return
	}
	week, err := h.Engine.GenerateWeek(r.Context(), start, a.ID, req.CopyFromID)
	if err != nil {
		h.writeDomainError(w, "Failed to generate week", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWeekDTO(*week))
}

// ListWeeks returns the weeks the caller's role may see.
func (h *Handler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	weeks, err := h.Engine.ListVisibleWeeks(r.Context(), a.Role, h.Now())
	if err != nil {
		h.writeDomainError(w, "Failed to list weeks", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDTOs(weeks))
}

// CurrentWeek returns the active week covering today.
func (h *Handler) CurrentWeek(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	week, err := h.Engine.CurrentWeek(r.Context(), h.Now())
	if err != nil {
		h.writeDomainError(w, "No active week", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDTO(*week))
}

// WeekByDate returns the week covering ?date=YYYY-MM-DD.
func (h *Handler) WeekByDate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	date, err := calendar.ParseISO(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date parameter", err)
		return
	}
	week, err := h.Engine.WeekForDate(r.Context(), date)
	if err != nil {
		h.writeDomainError(w, "No week covers that date", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDTO(*week))
}

// GetWeek returns one week header.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	week, err := h.Engine.Weeks.GetWeek(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get week", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDTO(*week))
}

// GetWeekDetail returns the grid: a week's entries grouped per employee.
func (h *Handler) GetWeekDetail(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	detail, err := h.Engine.WeekDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to load week detail", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDetailDTO(detail))
}

// GetWeekHours returns the scheduled-hours summary per employee.
func (h *Handler) GetWeekHours(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireActor(w, r); !ok {
		return
	}
	summary, err := h.Engine.WeekHoursSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to compute hours", err)
		return
	}
	dtos := make([]EmployeeHoursDTO, len(summary))
	for i, s := range summary {
		dtos[i] = EmployeeHoursDTO{
			EmployeeID: s.EmployeeID,
			Name:       s.Name,
			WorkDays:   s.WorkDays,
			Hours:      s.Hours.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ChangeWeekStatus moves a week through its lifecycle.
func (h *Handler) ChangeWeekStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requirePrivileged(w, r); !ok {
		return
	}
	var req ChangeWeekStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	week, err := h.Engine.ChangeWeekStatus(r.Context(), chi.URLParam(r, "id"), schedule.WeekStatus(req.Status))
	if err != nil {
		h.writeDomainError(w, "Failed to change week status", err)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDTO(*week))
}

// DeleteWeek removes a draft week and its entries.
func (h *Handler) DeleteWeek(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requirePrivileged(w, r); !ok {
		return
	}
	if err := h.Engine.DeleteWeek(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete week", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EditDay edits one employee's day inside a week.
func (h *Handler) EditDay(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	date, err := calendar.ParseISO(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date in path", err)
		return
	}
	var req EditDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	entry, err := h.Engine.EditDay(r.Context(), chi.URLParam(r, "id"),
		chi.URLParam(r, "employeeID"), date, req.patch(), a.Role)
	if err != nil {
		h.writeDomainError(w, "Failed to edit day", err)
		return
	}
	writeJSON(w, http.StatusOK, toDayEntryDTO(*entry))
}

// EditDaysBulk applies one patch to several dates. Locked days are
// skipped; the response carries only the entries that changed.
func (h *Handler) EditDaysBulk(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req BulkEditDaysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, iso := range req.Dates {
		d, err := calendar.ParseISO(iso)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date "+iso, err)
			return
		}
		dates = append(dates, d)
	}
	changed, err := h.Engine.EditDayBulk(r.Context(), chi.URLParam(r, "id"),
		req.EmployeeID, dates, req.Patch.patch(), a.Role)
	if err != nil {
		h.writeDomainError(w, "Failed to edit days", err)
		return
	}
	dtos := make([]DayEntryDTO, len(changed))
	for i, e := range changed {
		dtos[i] = toDayEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// CreateRequest submits a leave request for the caller.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, end, ok := h.parseRange(w, req.DateStart, req.DateEnd)
	if !ok {
		return
	}
	created, err := h.Requests.Create(r.Context(), a.ID, a.Role,
		leave.RequestType(req.Type), start, end, req.Reason)
	if err != nil {
		h.writeDomainError(w, "Failed to create request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*created))
}

// MyRequests lists the caller's own requests, newest first.
func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	reqs, err := h.Requests.MyRequests(r.Context(), a.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// PendingRequests lists the pending queue, oldest first.
func (h *Handler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	reqs, err := h.Requests.PendingRequests(r.Context(), a.Role)
	if err != nil {
		h.writeDomainError(w, "Failed to list pending requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// AllRequests lists every request, newest first.
func (h *Handler) AllRequests(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	reqs, err := h.Requests.AllRequests(r.Context(), a.Role)
	if err != nil {
		h.writeDomainError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// GetRequest returns one request. The owner and privileged roles may read it.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	req, err := h.Requests.Store.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get request", err)
		return
	}
	if req.EmployeeID != a.ID && !a.Role.Privileged() {
		writeError(w, http.StatusForbidden, "Not your request", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// CheckConflicts runs the advisory overlap check without creating anything.
// Query: ?date_start=&date_end=&exclude=
func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	start, end, ok := h.parseRange(w, q.Get("date_start"), q.Get("date_end"))
	if !ok {
		return
	}
	report, err := h.Requests.Checker.CheckConflicts(r.Context(), a.ID, a.Role, start, end, q.Get("exclude"))
	if err != nil {
		h.writeDomainError(w, "Failed to check conflicts", err)
		return
	}
	writeJSON(w, http.StatusOK, toConflictReportDTO(report))
}

// EditRequest rewrites a pending request owned by the caller.
func (h *Handler) EditRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	var req EditRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, end, ok := h.parseRange(w, req.DateStart, req.DateEnd)
	if !ok {
		return
	}
	patch := leave.EditPatch{
		Type:      leave.RequestType(req.Type),
		DateStart: start,
		DateEnd:   end,
		Reason:    req.Reason,
	}
	updated, err := h.Requests.Edit(r.Context(), chi.URLParam(r, "id"), patch, a.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to edit request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*updated))
}

// DecideRequest approves or rejects a pending request.
func (h *Handler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requirePrivileged(w, r)
	if !ok {
		return
	}
	var req DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	decided, err := h.Requests.Decide(r.Context(), chi.URLParam(r, "id"), leave.Status(req.Status), a.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to decide request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*decided))
}

// CorrectRequest flips a resolved decision to the other outcome.
func (h *Handler) CorrectRequest(w http.ResponseWriter, r *http.Request) {
	a, ok := h.requirePrivileged(w, r)
	if !ok {
		return
	}
	var req DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	corrected, err := h.Requests.CorrectStatus(r.Context(), chi.URLParam(r, "id"),
		leave.Status(req.Status), a.Role, a.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to correct request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*corrected))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) parseRange(w http.ResponseWriter, startISO, endISO string) (time.Time, time.Time, bool) {
	start, err := calendar.ParseISO(startISO)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date_start", err)
		return time.Time{}, time.Time{}, false
	}
	end, err := calendar.ParseISO(endISO)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date_end", err)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// writeDomainError maps domain error kinds to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, schedule.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, schedule.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, schedule.ErrLocked):
		status = http.StatusLocked
	case errors.Is(err, schedule.ErrInvalidState):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, schedule.ErrInvalidRange), errors.Is(err, calendar.ErrInvalidDate):
		status = http.StatusBadRequest
	case errors.Is(err, schedule.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).Error(message)
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
