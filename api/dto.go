/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:  EmployeeDTO, SeedEmployeeRequest
  Week:      WeekDTO, WeekDetailDTO, EmployeeWeekDTO, DayEntryDTO,
             GenerateWeekRequest, ChangeWeekStatusRequest
  Day edits: EditDayRequest, BulkEditDaysRequest
  Hours:     EmployeeHoursDTO
  Leave:     RequestDTO, CreateRequestRequest, EditRequestRequest,
             DecideRequestRequest, ConflictDTO, ConflictReportDTO

DATE FORMAT:
  All dates cross the wire as ISO "YYYY-MM-DD" strings; clock times as
  zero-padded "HH:MM". Timestamps are RFC3339.

VALIDATION:
  Validation is done in handlers and the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - schedule/types.go, leave/types.go: Domain counterparts
*/
package api

import (
	"time"

	"github.com/warp/schedule-engine/calendar"
	"github.com/warp/schedule-engine/leave"
	"github.com/warp/schedule-engine/roster"
	"github.com/warp/schedule-engine/schedule"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

type SeedEmployeeRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Active *bool  `json:"active,omitempty"`
}

func toEmployeeDTO(e roster.Employee) EmployeeDTO {
	return EmployeeDTO{ID: e.ID, Name: e.Name, Role: string(e.Role), Active: e.Active}
}

// =============================================================================
// WEEKS
// =============================================================================

type WeekDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at,omitempty"`
}

type GenerateWeekRequest struct {
	WeekStart  string `json:"week_start"`
	CopyFromID string `json:"copy_from_id,omitempty"`
}

type ChangeWeekStatusRequest struct {
	Status string `json:"status"`
}

type DayEntryDTO struct {
	EmployeeID      string `json:"employee_id"`
	Date            string `json:"date"`
	WeekdayName     string `json:"weekday_name"`
	ShiftStart      string `json:"shift_start,omitempty"`
	ShiftEnd        string `json:"shift_end,omitempty"`
	LunchStart      string `json:"lunch_start,omitempty"`
	LunchEnd        string `json:"lunch_end,omitempty"`
	DayType         string `json:"day_type"`
	ShiftPeriod     string `json:"shift_period,omitempty"`
	Provenance      string `json:"provenance"`
	SourceRequestID string `json:"source_request_id,omitempty"`
	Locked          bool   `json:"locked"`
}

type EmployeeWeekDTO struct {
	Employee EmployeeDTO            `json:"employee"`
	Days     map[string]DayEntryDTO `json:"days"`
}

type WeekDetailDTO struct {
	Week      WeekDTO           `json:"week"`
	Employees []EmployeeWeekDTO `json:"employees"`
}

type EditDayRequest struct {
	DayType     string `json:"day_type"`
	ShiftPeriod string `json:"shift_period,omitempty"`
	ShiftStart  string `json:"shift_start,omitempty"`
	ShiftEnd    string `json:"shift_end,omitempty"`
	LunchStart  string `json:"lunch_start,omitempty"`
	LunchEnd    string `json:"lunch_end,omitempty"`
}

type BulkEditDaysRequest struct {
	EmployeeID string         `json:"employee_id"`
	Dates      []string       `json:"dates"`
	Patch      EditDayRequest `json:"patch"`
}

type EmployeeHoursDTO struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	WorkDays   int    `json:"work_days"`
	Hours      string `json:"hours"`
}

func (r EditDayRequest) patch() schedule.DayPatch {
	return schedule.DayPatch{
		DayType:     schedule.DayType(r.DayType),
		ShiftPeriod: schedule.ShiftPeriod(r.ShiftPeriod),
		ShiftStart:  r.ShiftStart,
		ShiftEnd:    r.ShiftEnd,
		LunchStart:  r.LunchStart,
		LunchEnd:    r.LunchEnd,
	}
}

func toWeekDTO(w schedule.WeekSchedule) WeekDTO {
	dto := WeekDTO{
		ID:        w.ID,
		Name:      w.Name,
		StartDate: calendar.FormatISO(w.StartDate),
		EndDate:   calendar.FormatISO(w.EndDate),
		Status:    string(w.Status),
		CreatedBy: w.CreatedBy,
	}
	if !w.CreatedAt.IsZero() {
		dto.CreatedAt = w.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toWeekDTOs(ws []schedule.WeekSchedule) []WeekDTO {
	out := make([]WeekDTO, len(ws))
	for i, w := range ws {
		out[i] = toWeekDTO(w)
	}
	return out
}

func toDayEntryDTO(e schedule.DayEntry) DayEntryDTO {
	return DayEntryDTO{
		EmployeeID:      e.EmployeeID,
		Date:            calendar.FormatISO(e.Date),
		WeekdayName:     e.WeekdayName,
		ShiftStart:      e.ShiftStart,
		ShiftEnd:        e.ShiftEnd,
		LunchStart:      e.LunchStart,
		LunchEnd:        e.LunchEnd,
		DayType:         string(e.DayType),
		ShiftPeriod:     string(e.ShiftPeriod),
		Provenance:      string(e.Provenance),
		SourceRequestID: e.SourceRequestID,
		Locked:          e.Locked(),
	}
}

func toWeekDetailDTO(d *schedule.WeekDetail) WeekDetailDTO {
	out := WeekDetailDTO{Week: toWeekDTO(d.Week), Employees: []EmployeeWeekDTO{}}
	for _, ew := range d.Employees {
		days := make(map[string]DayEntryDTO, len(ew.Days))
		for iso, entry := range ew.Days {
			days[iso] = toDayEntryDTO(entry)
		}
		out.Employees = append(out.Employees, EmployeeWeekDTO{
			Employee: toEmployeeDTO(ew.Employee),
			Days:     days,
		})
	}
	return out
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

type RequestDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeRole string `json:"employee_role"`
	Type         string `json:"type"`
	DateStart    string `json:"date_start"`
	DateEnd      string `json:"date_end"`
	Reason       string `json:"reason,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	ApprovedBy   string `json:"approved_by,omitempty"`
	ApprovedAt   string `json:"approved_at,omitempty"`
}

type CreateRequestRequest struct {
	Type      string `json:"type"`
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Reason    string `json:"reason,omitempty"`
}

type EditRequestRequest struct {
	Type      string `json:"type"`
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Reason    string `json:"reason,omitempty"`
}

type DecideRequestRequest struct {
	Status string `json:"status"`
}

type ConflictDTO struct {
	RequestID  string `json:"request_id"`
	EmployeeID string `json:"employee_id"`
	Employee   string `json:"employee,omitempty"`
	Scope      string `json:"scope"`
	DateStart  string `json:"date_start"`
	DateEnd    string `json:"date_end"`
}

type ConflictReportDTO struct {
	HasConflicts  bool          `json:"has_conflicts"`
	SelfConflicts []ConflictDTO `json:"self_conflicts"`
	PeerConflicts []ConflictDTO `json:"peer_conflicts"`
	Note          string        `json:"note,omitempty"`
}

func toRequestDTO(r leave.LeaveRequest) RequestDTO {
	dto := RequestDTO{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeRole: r.EmployeeRole,
		Type:         string(r.Type),
		DateStart:    calendar.FormatISO(r.DateStart),
		DateEnd:      calendar.FormatISO(r.DateEnd),
		Reason:       r.Reason,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		ApprovedBy:   r.ApprovedBy,
	}
	if r.ApprovedAt != nil {
		dto.ApprovedAt = r.ApprovedAt.Format(time.RFC3339)
	}
	return dto
}

func toRequestDTOs(rs []leave.LeaveRequest) []RequestDTO {
	out := make([]RequestDTO, len(rs))
	for i, r := range rs {
		out[i] = toRequestDTO(r)
	}
	return out
}

func toConflictDTO(c leave.Conflict) ConflictDTO {
	return ConflictDTO{
		RequestID:  c.ConflictingRequestID,
		EmployeeID: c.EmployeeID,
		Employee:   c.EmployeeName,
		Scope:      string(c.Scope),
		DateStart:  calendar.FormatISO(c.DateStart),
		DateEnd:    calendar.FormatISO(c.DateEnd),
	}
}

func toConflictReportDTO(r *leave.ConflictReport) ConflictReportDTO {
	dto := ConflictReportDTO{
		HasConflicts:  r.HasConflicts,
		SelfConflicts: []ConflictDTO{},
		PeerConflicts: []ConflictDTO{},
	}
	if r.HasConflicts {
		dto.Note = r.Note()
	}
	for _, c := range r.SelfConflicts {
		dto.SelfConflicts = append(dto.SelfConflicts, toConflictDTO(c))
	}
	for _, c := range r.PeerConflicts {
		dto.PeerConflicts = append(dto.PeerConflicts, toConflictDTO(c))
	}
	return dto
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
