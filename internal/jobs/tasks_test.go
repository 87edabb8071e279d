package jobs_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/config"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/jobs"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

func TestTaskTypes(t *testing.T) {
	for _, r := range rbac.Routines() {
		task, err := jobs.NewTask(r, jobs.Payload{RequestedBy: 7})
		require.NoError(t, err)
		assert.Equal(t, "rbac:"+string(r), task.Type())

		got, err := jobs.RoutineOf(task.Type())
		require.NoError(t, err)
		assert.Equal(t, r, got)

		var p jobs.Payload
		require.NoError(t, json.Unmarshal(task.Payload(), &p))
		assert.Equal(t, uint64(7), p.RequestedBy)
	}

	_, err := jobs.NewTask("rebuild", jobs.Payload{})
	require.ErrorIs(t, err, rbac.ErrUnknownRoutine)
}

func TestClientEnqueue(t *testing.T) {
	mr, _ := newRedis(t)

	client := jobs.NewClient(jobs.RedisOpt(config.Redis{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	_, err := client.Enqueue(context.Background(), "rebuild", 1)
	require.ErrorIs(t, err, rbac.ErrUnknownRoutine)

	id, err := client.Enqueue(context.Background(), rbac.RoutineDetectDrift, 42)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	inspector := asynq.NewInspector(jobs.RedisOpt(config.Redis{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = inspector.Close() })

	info, err := inspector.GetTaskInfo(jobs.QueueDefault, id)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskType(rbac.RoutineDetectDrift), info.Type)

	var p jobs.Payload
	require.NoError(t, json.Unmarshal(info.Payload, &p))
	assert.Equal(t, uint64(42), p.RequestedBy)
}

func TestNewWorkerRequiresRunner(t *testing.T) {
	_, err := jobs.NewWorker(jobs.WorkerConfig{})
	require.ErrorIs(t, err, jobs.ErrNoRunner)
}

func TestNewWorkerRejectsBadCron(t *testing.T) {
	mr, _ := newRedis(t)

	_, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:     jobs.RedisOpt(config.Redis{Addr: mr.Addr()}),
		Runner:        newRunner(t, nil),
		ReconcileCron: "every day",
	})
	require.Error(t, err)
}

func TestWorkerRunStopsWithContext(t *testing.T) {
	mr, _ := newRedis(t)

	w, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:     jobs.RedisOpt(config.Redis{Addr: mr.Addr()}),
		Concurrency:   1,
		Runner:        newRunner(t, nil),
		ReconcileCron: "@every 1h",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, w.Run(ctx), context.DeadlineExceeded)
}
