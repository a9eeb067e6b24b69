package leave_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/schedule-engine/leave"
	"github.com/warp/schedule-engine/roster"
	"github.com/warp/schedule-engine/schedule"
	"github.com/warp/schedule-engine/store/memory"
)

var (
	mar10 = date(2025, time.March, 10)
	mar12 = date(2025, time.March, 12)
)

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_PendingWithCleanRange(t *testing.T) {
	svc, _ := newTestService(t)

	req, err := svc.Create(context.Background(), "emp-1", roster.RoleTechnician,
		leave.TypeVacation, mar10, mar12, "family trip")
	require.NoError(t, err)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.Equal(t, "family trip", req.Reason)
	assert.Equal(t, "technician", req.EmployeeRole)
	assert.Nil(t, req.ApprovedAt)
}

func TestCreate_ConflictAppendsWarningButSucceeds(t *testing.T) {
	// GIVEN: Bruno holds a pending overlapping request
	svc, _ := newTestService(t)
	ctx := context.Background()
	other, err := svc.Create(ctx, "emp-2", roster.RoleTechnician, leave.TypeRest, mar10, mar12, "")
	require.NoError(t, err)

	// WHEN: Ana requests an overlapping range
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "trip")

	// THEN: Created anyway, with the advisory note merged into the reason
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.True(t, strings.HasPrefix(req.Reason, "trip\n[warning]"), "reason: %q", req.Reason)
	assert.Contains(t, req.Reason, other.ID[:8])
}

func TestCreate_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, "sabbatical", mar10, mar12, "")
	assert.ErrorIs(t, err, schedule.ErrInvalidRange)

	_, err = svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar12, mar10, "")
	assert.ErrorIs(t, err, schedule.ErrInvalidRange)
}

// =============================================================================
// EDIT
// =============================================================================

func TestEdit_OwnerRewritesPendingRequest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "trip")
	require.NoError(t, err)

	patch := leave.EditPatch{
		Type:      leave.TypePermission,
		DateStart: date(2025, time.March, 11),
		DateEnd:   date(2025, time.March, 11),
		Reason:    "appointment",
	}
	updated, err := svc.Edit(ctx, req.ID, patch, "emp-1")
	require.NoError(t, err)

	assert.Equal(t, leave.TypePermission, updated.Type)
	assert.Equal(t, date(2025, time.March, 11), updated.DateStart)
	assert.Equal(t, "appointment", updated.Reason)
	assert.Equal(t, leave.StatusPending, updated.Status)
}

func TestEdit_NonOwnerDenied(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)

	_, err = svc.Edit(ctx, req.ID, leave.EditPatch{Type: leave.TypeRest, DateStart: mar10, DateEnd: mar10}, "emp-2")
	assert.ErrorIs(t, err, schedule.ErrPermissionDenied)
}

func TestEdit_ResolvedRequestNotEditable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, req.ID, leave.StatusApproved, "sup-1")
	require.NoError(t, err)

	_, err = svc.Edit(ctx, req.ID, leave.EditPatch{Type: leave.TypeRest, DateStart: mar10, DateEnd: mar10}, "emp-1")
	assert.ErrorIs(t, err, schedule.ErrInvalidState)
}

// =============================================================================
// DECIDE
// =============================================================================

func TestDecide_ApprovalStampsScheduleDays(t *testing.T) {
	// GIVEN: A pending 3-day vacation request
	svc, store := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)

	// WHEN: A supervisor approves it
	decided, err := svc.Decide(ctx, req.ID, leave.StatusApproved, "sup-1")
	require.NoError(t, err)

	// THEN: Status and audit fields are set
	assert.Equal(t, leave.StatusApproved, decided.Status)
	assert.Equal(t, "sup-1", decided.ApprovedBy)
	require.NotNil(t, decided.ApprovedAt)

	// AND: All three days are stamped, typed and locked
	entries, err := store.ListEmployeeDays(ctx, "emp-1", mar10, mar12)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, schedule.DayVacation, e.DayType)
		assert.Equal(t, schedule.ProvenanceApprovedRequest, e.Provenance)
		assert.Equal(t, req.ID, e.SourceRequestID)
		assert.Empty(t, e.ShiftStart)
		assert.True(t, e.Locked())
	}
}

func TestDecide_RejectionLeavesScheduleUntouched(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, req.ID, leave.StatusRejected, "sup-1")
	require.NoError(t, err)

	entries, err := store.ListEmployeeDays(ctx, "emp-1", mar10, mar12)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecide_SecondDecisionFails(t *testing.T) {
	// GIVEN: An already approved request
	svc, store := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, req.ID, leave.StatusApproved, "sup-1")
	require.NoError(t, err)

	// WHEN: A second approver tries to reject it
	_, err = svc.Decide(ctx, req.ID, leave.StatusRejected, "adm-1")

	// THEN: Invalid state, and the stamped days are unchanged
	assert.ErrorIs(t, err, schedule.ErrInvalidState)
	entries, err := store.ListEmployeeDays(ctx, "emp-1", mar10, mar12)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, schedule.DayVacation, e.DayType)
	}
}

func TestDecide_InvalidTargetStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, req.ID, leave.StatusPending, "sup-1")
	assert.ErrorIs(t, err, schedule.ErrInvalidRange)
}

// editRacingStore lands an owner edit right before a decision's
// transaction begins, interleaving two legal writes to the same pending
// request.
type editRacingStore struct {
	*memory.Store
	edit func()
	once sync.Once
}

func (s *editRacingStore) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.once.Do(s.edit)
	return s.Store.WithTx(ctx, fn)
}

func TestDecide_StampsFollowRangeEditedDuringDecision(t *testing.T) {
	// GIVEN: Ana's pending 3-day vacation request
	base := memory.New()
	ctx := context.Background()
	require.NoError(t, base.SaveEmployee(ctx, roster.Employee{ID: "emp-1", Name: "Ana", Role: roster.RoleTechnician, Active: true}))

	racing := &editRacingStore{Store: base}
	svc := leave.NewService(racing, base)
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)

	// AND: An owner edit that shifts the range a week out, committing
	// after the decision has read the request but before its transaction
	mar17, mar19 := mar10.AddDate(0, 0, 7), mar12.AddDate(0, 0, 7)
	racing.edit = func() {
		moved := *req
		moved.DateStart = mar17
		moved.DateEnd = mar19
		ok, err := base.UpdateRequestIfPending(ctx, moved)
		require.NoError(t, err)
		require.True(t, ok)
	}

	// WHEN: Approving
	decided, err := svc.Decide(ctx, req.ID, leave.StatusApproved, "sup-1")
	require.NoError(t, err)

	// THEN: The returned request carries the persisted (edited) range
	assert.True(t, decided.DateStart.Equal(mar17))
	assert.True(t, decided.DateEnd.Equal(mar19))

	// AND: Stamps land on the persisted range only
	stale, err := base.ListEmployeeDays(ctx, "emp-1", mar10, mar12)
	require.NoError(t, err)
	assert.Empty(t, stale)

	stamped, err := base.ListEmployeeDays(ctx, "emp-1", mar17, mar19)
	require.NoError(t, err)
	require.Len(t, stamped, 3)
	for _, e := range stamped {
		assert.Equal(t, schedule.DayVacation, e.DayType)
		assert.Equal(t, req.ID, e.SourceRequestID)
	}
}

// =============================================================================
// STATUS CORRECTION
// =============================================================================

func TestCorrectStatus_ApprovedToRejected_RollsBackDays(t *testing.T) {
	// GIVEN: An approved request whose days are stamped
	svc, store := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, req.ID, leave.StatusApproved, "sup-1")
	require.NoError(t, err)

	// WHEN: An admin corrects it to rejected
	corrected, err := svc.CorrectStatus(ctx, req.ID, leave.StatusRejected, roster.RoleAdmin, "adm-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, corrected.Status)

	// THEN: The stamped days are restored to the week default
	entries, err := store.ListEmployeeDays(ctx, "emp-1", mar10, mar12)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, schedule.DayNormal, e.DayType)
		assert.Equal(t, schedule.ProvenanceManual, e.Provenance)
		assert.Equal(t, "08:00", e.ShiftStart)
		assert.Empty(t, e.SourceRequestID)
	}
}

func TestCorrectStatus_RejectedToApproved_StampsDays(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeRest, mar10, mar10, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, req.ID, leave.StatusRejected, "sup-1")
	require.NoError(t, err)

	_, err = svc.CorrectStatus(ctx, req.ID, leave.StatusApproved, roster.RoleSupervisor, "sup-1")
	require.NoError(t, err)

	entry, err := store.GetDay(ctx, "emp-1", mar10)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, schedule.DayRest, entry.DayType)
	assert.True(t, entry.Locked())
}

func TestCorrectStatus_RollbackSparesRewrittenDays(t *testing.T) {
	// GIVEN: An approved request, then one of its days manually rewritten
	// would be impossible (locked) - but a day re-stamped by a NEWER
	// request must survive the older request's rollback
	svc, store := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, first.ID, leave.StatusApproved, "sup-1")
	require.NoError(t, err)

	// A later permission request re-stamps March 11 after the first was
	// corrected away and back; simulate by overwriting the stamp owner.
	second, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypePermission,
		date(2025, time.March, 11), date(2025, time.March, 11), "")
	require.NoError(t, err)
	restamp := schedule.DayEntry{
		EmployeeID:      "emp-1",
		Date:            date(2025, time.March, 11),
		WeekdayName:     "tuesday",
		DayType:         schedule.DayPermission,
		Provenance:      schedule.ProvenanceApprovedRequest,
		SourceRequestID: second.ID,
	}
	require.NoError(t, store.PutDay(ctx, restamp))

	// WHEN: Rolling back the first request
	_, err = svc.CorrectStatus(ctx, first.ID, leave.StatusRejected, roster.RoleAdmin, "adm-1")
	require.NoError(t, err)

	// THEN: March 10 and 12 revert, March 11 keeps the newer stamp
	e10, err := store.GetDay(ctx, "emp-1", mar10)
	require.NoError(t, err)
	assert.Equal(t, schedule.DayNormal, e10.DayType)

	e11, err := store.GetDay(ctx, "emp-1", date(2025, time.March, 11))
	require.NoError(t, err)
	assert.Equal(t, schedule.DayPermission, e11.DayType)
	assert.Equal(t, second.ID, e11.SourceRequestID)
}

func TestCorrectStatus_AuthorizationLadder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Peer-owned request: supervisor may correct.
	techReq, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar10, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, techReq.ID, leave.StatusApproved, "sup-1")
	require.NoError(t, err)
	_, err = svc.CorrectStatus(ctx, techReq.ID, leave.StatusRejected, roster.RoleSupervisor, "sup-1")
	assert.NoError(t, err)

	// Supervisor-owned request: a supervisor may NOT correct, an admin may.
	supReq, err := svc.Create(ctx, "sup-1", roster.RoleSupervisor, leave.TypeVacation, mar12, mar12, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, supReq.ID, leave.StatusApproved, "adm-1")
	require.NoError(t, err)

	_, err = svc.CorrectStatus(ctx, supReq.ID, leave.StatusRejected, roster.RoleSupervisor, "sup-2")
	assert.ErrorIs(t, err, schedule.ErrPermissionDenied)

	_, err = svc.CorrectStatus(ctx, supReq.ID, leave.StatusRejected, roster.RoleAdmin, "adm-1")
	assert.NoError(t, err)
}

func TestCorrectStatus_OwnRequestDenied(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "sup-1", roster.RoleSupervisor, leave.TypeVacation, mar10, mar10, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, req.ID, leave.StatusApproved, "adm-1")
	require.NoError(t, err)

	_, err = svc.CorrectStatus(ctx, req.ID, leave.StatusRejected, roster.RoleSupervisor, "sup-1")
	assert.ErrorIs(t, err, schedule.ErrPermissionDenied)
}

func TestCorrectStatus_PendingRequestNotCorrectable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar10, "")
	require.NoError(t, err)

	_, err = svc.CorrectStatus(ctx, req.ID, leave.StatusRejected, roster.RoleAdmin, "adm-1")
	assert.ErrorIs(t, err, schedule.ErrInvalidState)
}

// =============================================================================
// OVERRIDES AND QUERIES
// =============================================================================

func TestApprovedDayOverrides_ClipsToRange(t *testing.T) {
	// GIVEN: An approved request spanning March 10-12
	svc, _ := newTestService(t)
	ctx := context.Background()
	req, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, req.ID, leave.StatusApproved, "sup-1")
	require.NoError(t, err)

	// WHEN: Deriving overrides for a window covering only March 11-20
	entries, err := svc.ApprovedDayOverrides(ctx, date(2025, time.March, 11), date(2025, time.March, 20))
	require.NoError(t, err)

	// THEN: Only the in-window days come back
	require.Len(t, entries, 2)
	assert.Equal(t, date(2025, time.March, 11), entries[0].Date)
	assert.Equal(t, date(2025, time.March, 12), entries[1].Date)
}

func TestApprovedDayOverrides_PendingExcluded(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar12, "")
	require.NoError(t, err)

	entries, err := svc.ApprovedDayOverrides(ctx, mar10, mar12)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQueries_PrivilegeGates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.PendingRequests(ctx, roster.RoleTechnician)
	assert.ErrorIs(t, err, schedule.ErrPermissionDenied)
	_, err = svc.AllRequests(ctx, roster.RoleNOC)
	assert.ErrorIs(t, err, schedule.ErrPermissionDenied)

	_, err = svc.PendingRequests(ctx, roster.RoleSupervisor)
	assert.NoError(t, err)
	_, err = svc.AllRequests(ctx, roster.RoleAdmin)
	assert.NoError(t, err)
}

func TestPendingRequests_OldestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "emp-1", roster.RoleTechnician, leave.TypeVacation, mar10, mar10, "")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.Create(ctx, "emp-2", roster.RoleTechnician, leave.TypeRest, mar12, mar12, "")
	require.NoError(t, err)

	pending, err := svc.PendingRequests(ctx, roster.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
}
