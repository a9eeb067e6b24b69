package leave

import (
	"context"
	"time"

	"github.com/warp/schedule-engine/schedule"
)

// RequestStore persists leave requests. Status transitions carry their
// precondition into the store so concurrent deciders race safely: a
// conditional update that matches zero rows means the other writer won.
type RequestStore interface {
	SaveRequest(ctx context.Context, r LeaveRequest) error

	// GetRequest returns the request by ID, or schedule.ErrNotFound.
	GetRequest(ctx context.Context, id string) (*LeaveRequest, error)

	// ListRequests returns every request, newest first.
	ListRequests(ctx context.Context) ([]LeaveRequest, error)

	// ListEmployeeRequests returns one employee's requests, newest first.
	ListEmployeeRequests(ctx context.Context, employeeID string) ([]LeaveRequest, error)

	// ListPendingRequests returns all pending requests, oldest first
	// (approval queue order).
	ListPendingRequests(ctx context.Context) ([]LeaveRequest, error)

	// ListOpenRequestsOverlapping returns pending and approved requests
	// whose inclusive [date_start, date_end] intersects [from, to].
	ListOpenRequestsOverlapping(ctx context.Context, from, to time.Time) ([]LeaveRequest, error)

	// TransitionStatus moves the request from one status to another with
	// the from-status as a write precondition. Returns false when the
	// precondition did not hold, which callers surface as a conflict or
	// invalid state.
	TransitionStatus(ctx context.Context, id string, from, to Status, decidedBy string, at time.Time) (bool, error)

	// UpdateRequestIfPending rewrites type, dates, and reason while the
	// request is still pending. Returns false when it no longer is.
	UpdateRequestIfPending(ctx context.Context, r LeaveRequest) (bool, error)
}

// Store is the transactional composite the lifecycle service runs on:
// request records plus the schedule day store, with WithTx giving
// all-or-nothing semantics for approval stamping and rollback.
type Store interface {
	RequestStore
	schedule.DayStore

	// WithTx executes fn atomically. If fn returns an error the whole
	// transaction rolls back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
