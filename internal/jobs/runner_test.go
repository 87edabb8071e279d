package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/controller/rbacstore"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/dbtest"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/jobs"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

var created = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newRunner(t *testing.T, locker *jobs.Locker) *jobs.Runner {
	t.Helper()

	db := dbtest.Open(t)
	dbtest.Branch(t, db, "B1", true, created)
	legacy := dbtest.LegacyRole(t, db, "Teacher", dbtest.Ptr("B1"), "courses:read")
	dbtest.User(t, db, "teacher1", legacy.ID, dbtest.Ptr("B1"))

	rec := rbac.NewReconciler(rbacstore.New(db), rbac.DefaultCatalog(), rbac.ReconcilerConfig{})

	return jobs.NewRunner(rec, locker)
}

func TestRunnerRunsEveryRoutine(t *testing.T) {
	runner := newRunner(t, nil)
	ctx := context.Background()

	res, err := runner.Run(ctx, rbac.RoutineSyncRoleCatalog)
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, 1, res.Report.Created)

	res, err = runner.Run(ctx, rbac.RoutineBackfill)
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, 1, res.Report.Created)

	res, err = runner.Run(ctx, rbac.RoutineRepairOrphans)
	require.NoError(t, err)
	require.NotNil(t, res.Report)

	res, err = runner.Run(ctx, rbac.RoutineDetectDrift)
	require.NoError(t, err)
	require.NotNil(t, res.Drift)
	assert.False(t, res.Drift.HasDrift())

	res, err = runner.Run(ctx, rbac.RoutineAll)
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Len(t, res.Summary.Reports, 3)

	_, err = runner.Run(ctx, "rebuild")
	require.ErrorIs(t, err, rbac.ErrUnknownRoutine)
}

func TestRunnerHonoursLock(t *testing.T) {
	_, rdb := newRedis(t)
	locker := jobs.NewLocker(rdb, time.Minute)
	runner := newRunner(t, locker)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, string(rbac.RoutineBackfill))
	require.NoError(t, err)

	_, err = runner.Run(ctx, rbac.RoutineBackfill)
	require.ErrorIs(t, err, jobs.ErrLocked)

	task, err := jobs.NewTask(rbac.RoutineBackfill, jobs.Payload{})
	require.NoError(t, err)
	require.NoError(t, runner.Handle(ctx, task), "a locked run is skipped, not retried")

	require.NoError(t, release(ctx))

	_, err = runner.Run(ctx, rbac.RoutineBackfill)
	require.NoError(t, err)

	_, err = runner.Run(ctx, rbac.RoutineBackfill)
	require.NoError(t, err, "the runner releases its lock after a run")
}

func TestHandleUnknownTaskIsNotRetried(t *testing.T) {
	runner := newRunner(t, nil)

	err := runner.Handle(context.Background(), asynq.NewTask("rbac:rebuild", nil))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.ErrorIs(t, err, rbac.ErrUnknownRoutine)

	err = runner.Handle(context.Background(), asynq.NewTask("mail:send", nil))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRunsRoutine(t *testing.T) {
	runner := newRunner(t, nil)

	task, err := jobs.NewTask(rbac.RoutineAll, jobs.Payload{RequestedBy: 1})
	require.NoError(t, err)
	require.NoError(t, runner.Handle(context.Background(), task))
}
