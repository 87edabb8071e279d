package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/config"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger/adapter/stdlogger"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

// ErrNoRunner is returned when a worker is built without runner.
var ErrNoRunner = errors.New("jobs: worker needs a runner")

// RedisOpt converts the redis settings for asynq.
func RedisOpt(cfg config.Redis) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// NewRedis opens the redis client used by the run lock.
func NewRedis(cfg config.Redis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts     asynq.RedisConnOpt
	Concurrency   int
	Runner        *Runner
	ReconcileCron string // cron spec of the periodic full reconciliation, none if empty
}

// Worker wraps the asynq server and optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
}

// NewWorker constructs a Worker processing every reconciliation routine.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Runner == nil {
		return nil, ErrNoRunner
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
		Logger: stdlogger.NewComponent("asynq"),
	})

	mux := asynq.NewServeMux()
	for _, routine := range rbac.Routines() {
		mux.HandleFunc(TaskType(routine), cfg.Runner.Handle)
	}

	w := &Worker{server: srv, mux: mux}

	if cfg.ReconcileCron != "" {
		task, err := NewTask(rbac.RoutineAll, Payload{})
		if err != nil {
			return nil, err
		}

		w.scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{
			Location: time.UTC,
			Logger:   stdlogger.NewComponent("asynq-scheduler"),
		})

		if _, err := w.scheduler.Register(cfg.ReconcileCron, task); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Run processes tasks until ctx is cancelled. When the server or the scheduler fails
// to start, the other one is stopped and the error returned.
func (w *Worker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := w.server.Start(w.mux); err != nil {
			return err //nolint:wrapcheck
		}

		<-gctx.Done()
		w.server.Shutdown()

		return nil
	})

	if w.scheduler != nil {
		g.Go(func() error {
			if err := w.scheduler.Start(); err != nil {
				return err //nolint:wrapcheck
			}

			<-gctx.Done()
			w.scheduler.Shutdown()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck
	}

	return ctx.Err()
}

// Client submits reconciliation tasks to the queue.
type Client struct {
	client *asynq.Client
	now    func() time.Time
}

// NewClient constructs an asynq client.
func NewClient(redisOpts asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts), now: time.Now}
}

// Enqueue schedules routine on behalf of requestedBy and returns the task id.
func (c *Client) Enqueue(ctx context.Context, routine rbac.Routine, requestedBy uint64) (string, error) {
	task, err := NewTask(routine, Payload{RequestedBy: requestedBy, RequestedAt: c.now().UTC()})
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}

	return info.ID, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
