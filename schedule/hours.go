package schedule

import (
	"context"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEDULED HOURS - decimal arithmetic, no float drift in reports
// =============================================================================

var minutesPerHour = decimal.NewFromInt(60)

// EmployeeHours summarizes one employee's scheduled time in a week.
type EmployeeHours struct {
	EmployeeID string
	Name       string
	WorkDays   int
	Hours      decimal.Decimal
}

// EntryHours returns the scheduled hours of a single day entry: the shift
// span minus the lunch break. Non-normal days contribute zero.
func EntryHours(e DayEntry) decimal.Decimal {
	if e.DayType != DayNormal || e.ShiftStart == "" || e.ShiftEnd == "" {
		return decimal.Zero
	}
	minutes := clockMinutes(e.ShiftEnd) - clockMinutes(e.ShiftStart)
	if e.LunchStart != "" && e.LunchEnd != "" {
		minutes -= clockMinutes(e.LunchEnd) - clockMinutes(e.LunchStart)
	}
	if minutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour)
}

// WeekHoursSummary totals scheduled hours per employee for a week.
// Results are ordered by employee ID.
func (en *Engine) WeekHoursSummary(ctx context.Context, weekID string) ([]EmployeeHours, error) {
	detail, err := en.WeekDetail(ctx, weekID)
	if err != nil {
		return nil, err
	}

	summary := make([]EmployeeHours, 0, len(detail.Employees))
	for _, ew := range detail.Employees {
		row := EmployeeHours{EmployeeID: ew.Employee.ID, Name: ew.Employee.Name, Hours: decimal.Zero}
		for _, entry := range ew.Days {
			h := EntryHours(entry)
			if h.IsPositive() {
				row.WorkDays++
				row.Hours = row.Hours.Add(h)
			}
		}
		summary = append(summary, row)
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].EmployeeID < summary[j].EmployeeID })
	return summary, nil
}

// clockMinutes converts a validated "HH:MM" string to minutes since
// midnight. Callers pass only values that went through DayPatch.Validate.
func clockMinutes(s string) int {
	hh, _ := strconv.Atoi(s[:2])
	mm, _ := strconv.Atoi(s[3:])
	return hh*60 + mm
}
