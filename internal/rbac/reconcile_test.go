package rbac_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/dbtest"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/models"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

func TestSyncRoleCatalog(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{}, fixedClock())
	ctx := context.Background()

	dbtest.LegacyRole(t, db, "SuperAdmin", nil, rbac.Wildcard)
	dbtest.LegacyRole(t, db, "Teacher", dbtest.Ptr("B1"), "courses:read", "grades:create", "gradez:create")
	dbtest.LegacyRole(t, db, "Librarian", dbtest.Ptr("B1"), "library:read")
	dbtest.RBACRole(t, db, "Librarian", dbtest.Ptr("B1"), false, "library:update")

	rep, err := rec.SyncRoleCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Created)
	assert.Equal(t, 1, rep.Unchanged)
	assert.NotEmpty(t, rep.RunID)
	assert.Contains(t, rep.Items, rbac.ReportItem{
		Kind: rbac.ItemUnknownPermission, Subject: "Teacher@B1", Detail: "gradez:create",
	})

	var super models.RBACRole
	require.NoError(t, db.Where("role_name = ? AND branch_id IS NULL", "SuperAdmin").First(&super).Error)
	assert.True(t, super.IsSystem, "global counterpart must not become an orphan")

	err = store.View(ctx, func(r rbac.Reader) error {
		names, err := r.FindPermissionsOfRole(super.ID)
		require.NoError(t, err)
		assert.Len(t, names, rbac.DefaultCatalog().Len())

		teacher, err := r.FindRBACRoleByName("Teacher", dbtest.Ptr("B1"))
		require.NoError(t, err)

		names, err = r.FindPermissionsOfRole(teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"courses:read", "grades:create"}, names)

		librarian, err := r.FindRBACRoleByName("Librarian", dbtest.Ptr("B1"))
		require.NoError(t, err)

		names, err = r.FindPermissionsOfRole(librarian.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"library:update"}, names, "existing counterparts stay untouched")

		return nil
	})
	require.NoError(t, err)

	again, err := rec.SyncRoleCatalog(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 3, again.Unchanged)
}

func TestBackfillUserAssignmentsIsIdempotent(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{}, fixedClock())
	ctx := context.Background()

	teacherLegacy := dbtest.LegacyRole(t, db, "Teacher", nil, "courses:read")
	clerkLegacy := dbtest.LegacyRole(t, db, "Clerk", dbtest.Ptr("B2"), "finance:read")
	orphanLegacy := dbtest.LegacyRole(t, db, "Janitor", nil)

	teacherB1 := dbtest.RBACRole(t, db, "Teacher", dbtest.Ptr("B1"), false, "attendance:create")
	clerkB2 := dbtest.RBACRole(t, db, "Clerk", dbtest.Ptr("B2"), false, "finance:read")

	t1 := dbtest.User(t, db, "teacher1", teacherLegacy.ID, dbtest.Ptr("B1"))
	t2 := dbtest.User(t, db, "teacher2", teacherLegacy.ID, dbtest.Ptr("B3"))
	c1 := dbtest.User(t, db, "clerk1", clerkLegacy.ID, dbtest.Ptr("B1"))
	dbtest.User(t, db, "janitor", orphanLegacy.ID, nil)

	rep, err := rec.BackfillUserAssignments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Created)
	assert.Equal(t, 2, rep.Skipped)

	assert.Equal(t, int64(1), dbtest.CountAssignments(t, db, t1.ID, teacherB1.ID, "B1"))
	assert.Equal(t, int64(1), dbtest.CountAssignments(t, db, c1.ID, clerkB2.ID, "B2"),
		"branch-scoped legacy role wins over home branch")
	assert.Zero(t, dbtest.CountAssignments(t, db, t2.ID, teacherB1.ID, "B3"))

	var before, after []models.RoleAssignment
	require.NoError(t, db.Order("id").Find(&before).Error)

	again, err := rec.BackfillUserAssignments(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 2, again.Unchanged)

	require.NoError(t, db.Order("id").Find(&after).Error)
	assert.Equal(t, len(before), len(after))
}

func TestBackfillFallsBackToGlobalCounterpart(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{})

	legacy := dbtest.LegacyRole(t, db, "Principal", nil, "reports:read")
	global := dbtest.RBACRole(t, db, "Principal", nil, true, "reports:read")
	u := dbtest.User(t, db, "principal", legacy.ID, dbtest.Ptr("B4"))

	rep, err := rec.BackfillUserAssignments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, int64(1), dbtest.CountAssignments(t, db, u.ID, global.ID, "B4"))
}

func TestRepairOrphanRolesScenario(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{}, fixedClock())
	ctx := context.Background()

	dbtest.Branch(t, db, "B1", true, epoch)
	orphan := dbtest.RBACRole(t, db, "Counselor", nil, false, "students:read")
	system := dbtest.RBACRole(t, db, "SuperAdmin", nil, true)

	rep, err := rec.RepairOrphanRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Updated)

	var got models.RBACRole
	require.NoError(t, db.First(&got, orphan.ID).Error)
	require.NotNil(t, got.BranchID)
	assert.Equal(t, "B1", *got.BranchID)

	require.NoError(t, db.First(&got, system.ID).Error)
	assert.Nil(t, got.BranchID)

	again, err := rec.RepairOrphanRoles(ctx)
	require.NoError(t, err)
	assert.False(t, again.Changed())
	assert.Empty(t, again.Items)
}

func TestRepairOrphanRolesCarriesAssignments(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{}, fixedClock())
	r := rbac.NewResolver(store, rbac.DefaultCatalog(), fixedClock())

	dbtest.Branch(t, db, "B1", true, epoch)
	legacy := dbtest.LegacyRole(t, db, "Staff", nil)
	orphan := dbtest.RBACRole(t, db, "Counselor", nil, false, "students:read")
	u := dbtest.User(t, db, "counselor", legacy.ID, nil)
	dbtest.Assign(t, db, u.ID, orphan.ID, "", nil)

	assert.True(t, allowed(t, r, u.ID, rbac.PermStudentsRead, "B1"))

	_, err := rec.RepairOrphanRoles(context.Background())
	require.NoError(t, err)

	assert.True(t, allowed(t, r, u.ID, rbac.PermStudentsRead, "B1"))
	assert.Equal(t, int64(1), dbtest.CountAssignments(t, db, u.ID, orphan.ID, ""), "old row is kept")
}

func TestDefaultBranchSelection(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	dbtest.Branch(t, db, "B9", false, epoch.Add(-48*time.Hour))
	dbtest.Branch(t, db, "B3", true, epoch)
	dbtest.Branch(t, db, "B2", true, epoch)
	dbtest.Branch(t, db, "B1", true, epoch.Add(time.Hour))

	testCases := []struct {
		name     string
		cfg      rbac.ReconcilerConfig
		expected string
		err      error
	}{
		{name: "earliest active branch, ties broken by id", expected: "B2"},
		{name: "configured branch", cfg: rbac.ReconcilerConfig{DefaultBranchID: "B1"}, expected: "B1"},
		{
			name: "stored setting",
			cfg: rbac.ReconcilerConfig{DefaultBranchLookup: func(context.Context) (string, error) {
				return "B3", nil
			}},
			expected: "B3",
		},
		{
			name: "configuration wins over stored setting",
			cfg: rbac.ReconcilerConfig{DefaultBranchID: "B1", DefaultBranchLookup: func(context.Context) (string, error) {
				return "B3", nil
			}},
			expected: "B1",
		},
		{name: "inactive configured branch", cfg: rbac.ReconcilerConfig{DefaultBranchID: "B9"}, err: rbac.ErrNoDefaultBranch},
		{name: "unknown configured branch", cfg: rbac.ReconcilerConfig{DefaultBranchID: "B404"}, err: rbac.ErrBranchNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rbac.NewReconciler(store, rbac.DefaultCatalog(), tc.cfg).DefaultBranch(ctx)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestRepairOrphanRolesWithoutActiveBranch(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{})

	dbtest.Branch(t, db, "B1", false, epoch)
	orphan := dbtest.RBACRole(t, db, "Counselor", nil, false)

	rep, err := rec.RepairOrphanRoles(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Changed())
	require.Len(t, rep.Items, 1)
	assert.Equal(t, rbac.ItemNoDefaultBranch, rep.Items[0].Kind)

	var got models.RBACRole
	require.NoError(t, db.First(&got, orphan.ID).Error)
	assert.Nil(t, got.BranchID)
}

func TestDetectDrift(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{})

	dbtest.LegacyRole(t, db, "Teacher", dbtest.Ptr("B1"))
	dbtest.LegacyRole(t, db, "Accountant", dbtest.Ptr("B1"))
	dbtest.LegacyRole(t, db, "Principal", dbtest.Ptr("B2"))
	dbtest.RBACRole(t, db, "Teacher", dbtest.Ptr("B1"), false)
	dbtest.RBACRole(t, db, "Principal", nil, true)
	dbtest.RBACRole(t, db, "Nurse", dbtest.Ptr("B1"), false)
	dbtest.RBACRole(t, db, "Counselor", nil, false)

	rep, err := rec.DetectDrift(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.HasDrift())
	require.ErrorIs(t, rep.Err(), rbac.ErrDriftDetected)

	names := func(refs []rbac.RoleRef) []string {
		out := []string{}
		for _, r := range refs {
			out = append(out, r.Name+"@"+r.BranchID)
		}

		return out
	}

	assert.Equal(t, []string{"Accountant@B1"}, names(rep.LegacyWithoutRBAC))
	assert.ElementsMatch(t, []string{"Principal@", "Nurse@B1", "Counselor@"}, names(rep.RBACWithoutLegacy))
	assert.Equal(t, []string{"Counselor@"}, names(rep.OrphanRoles))

	var n int64
	require.NoError(t, db.Model(&models.RBACRole{}).Count(&n).Error)
	assert.Equal(t, int64(4), n, "drift detection never repairs")
}

func TestDetectDriftAfterRepairListsCrossBranchAssignments(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{DefaultBranchID: "B1"}, fixedClock())
	r := rbac.NewResolver(store, rbac.DefaultCatalog(), fixedClock())
	ctx := context.Background()

	dbtest.Branch(t, db, "B1", true, epoch)
	dbtest.Branch(t, db, "B2", true, epoch)
	staff := dbtest.LegacyRole(t, db, "Counselor", nil)
	orphan := dbtest.RBACRole(t, db, "Counselor", nil, false, "students:read")
	u := dbtest.User(t, db, "counselor", staff.ID, dbtest.Ptr("B2"))
	stale := dbtest.Assign(t, db, u.ID, orphan.ID, "B2", nil)

	before, err := rec.DetectDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, before.CrossBranch, "a global role may be held under any branch")
	require.Len(t, before.OrphanRoles, 1)

	_, err = rec.RepairOrphanRoles(ctx)
	require.NoError(t, err)

	assert.False(t, allowed(t, r, u.ID, rbac.PermStudentsRead, "B2"))
	assert.True(t, allowed(t, r, u.ID, rbac.PermStudentsRead, "B1"))

	after, err := rec.DetectDrift(ctx)
	require.NoError(t, err)
	assert.Empty(t, after.OrphanRoles)
	assert.True(t, after.HasDrift())
	assert.Equal(t, []rbac.AssignmentRef{{
		ID:         stale.ID,
		UserID:     u.ID,
		RoleID:     orphan.ID,
		RoleName:   "Counselor",
		RoleBranch: "B1",
		BranchID:   "B2",
	}}, after.CrossBranch)
}

func TestReconcileAll(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{}, fixedClock())
	r := rbac.NewResolver(store, rbac.DefaultCatalog(), fixedClock())
	ctx := context.Background()

	dbtest.Branch(t, db, "B1", true, epoch)
	legacy := dbtest.LegacyRole(t, db, "Teacher", dbtest.Ptr("B1"), "courses:read")
	u := dbtest.User(t, db, "teacher1", legacy.ID, nil)

	before, err := r.Load(ctx, u.ID)
	require.NoError(t, err)

	sum, err := rec.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, sum.Reports, 3)
	assert.Equal(t, rbac.RoutineSyncRoleCatalog, sum.Reports[0].Routine)
	assert.Equal(t, rbac.RoutineRepairOrphans, sum.Reports[1].Routine)
	assert.Equal(t, rbac.RoutineBackfill, sum.Reports[2].Routine)
	require.NotNil(t, sum.Drift)
	assert.False(t, sum.Drift.HasDrift())

	after, err := r.Load(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Effective("B1"), after.Effective("B1"))

	again, err := rec.ReconcileAll(ctx)
	require.NoError(t, err)

	for _, rep := range again.Reports {
		assert.False(t, rep.Changed(), "%s changed data on the second run", rep.Routine)
	}
}

func TestReconcileStopsOnCancellation(t *testing.T) {
	db, store := setup(t)
	rec := rbac.NewReconciler(store, rbac.DefaultCatalog(), rbac.ReconcilerConfig{})

	legacy := dbtest.LegacyRole(t, db, "Teacher", nil)
	dbtest.RBACRole(t, db, "Teacher", nil, true)
	dbtest.User(t, db, "teacher1", legacy.ID, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rec.BackfillUserAssignments(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	var n int64
	require.NoError(t, db.Model(&models.RoleAssignment{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestParseRoutine(t *testing.T) {
	for _, r := range rbac.Routines() {
		got, err := rbac.ParseRoutine(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := rbac.ParseRoutine("rebuild")
	require.ErrorIs(t, err, rbac.ErrUnknownRoutine)
}
