// Package roster defines the read-only employee directory the scheduling
// engine consumes. The roster itself is owned by an external system; this
// package only fixes the shape of what the engine needs from it: who
// exists, what role they hold, and whether they are active.
package roster

import "context"

// Role is the job role attached to an employee by the identity provider.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleTechnician Role = "technician"
	RoleHelpdesk   Role = "helpdesk"
	RoleNOC        Role = "noc"
)

// Privileged reports whether the role may edit schedules and decide
// leave requests. Only admins and supervisors qualify.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSupervisor
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleTechnician, RoleHelpdesk, RoleNOC:
		return true
	}
	return false
}

// Employee is the roster record as seen by the engine.
type Employee struct {
	ID     string
	Name   string
	Role   Role
	Active bool
}

// Roster provides read access to the employee directory.
// Implementations must return consistent snapshots; the engine never
// writes through this interface.
type Roster interface {
	// ListActive returns every active employee, the set that receives
	// day entries when a week is generated.
	ListActive(ctx context.Context) ([]Employee, error)

	// GetEmployee returns a single employee by ID.
	GetEmployee(ctx context.Context, id string) (*Employee, error)
}
