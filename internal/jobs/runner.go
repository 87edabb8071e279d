package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

const releaseTimeout = 5 * time.Second

// Result holds the output of one routine run. Exactly one field is set.
type Result struct {
	Report  *rbac.Report      `json:"report,omitempty" yaml:"report,omitempty" toml:"report,omitempty"`
	Drift   *rbac.DriftReport `json:"drift,omitempty" yaml:"drift,omitempty" toml:"drift,omitempty"`
	Summary *rbac.Summary     `json:"summary,omitempty" yaml:"summary,omitempty" toml:"summary,omitempty"`
}

// Runner executes reconciliation routines, one run per routine at a time across all
// processes sharing the lock.
type Runner struct {
	rec  *rbac.Reconciler
	lock *Locker
	log  zerolog.Logger
}

// NewRunner returns a runner. lock may be nil for single process use such as the CLI.
func NewRunner(rec *rbac.Reconciler, lock *Locker) *Runner {
	return &Runner{rec: rec, lock: lock, log: logger.Component("jobs")}
}

// Run executes routine under its lock.
func (r *Runner) Run(ctx context.Context, routine rbac.Routine) (res Result, err error) {
	if _, err = rbac.ParseRoutine(string(routine)); err != nil {
		return res, err
	}

	if r.lock != nil {
		release, err := r.lock.Acquire(ctx, string(routine))
		if err != nil {
			runCounter.WithLabelValues(string(routine), outcome(err)).Inc()
			return res, err
		}

		defer func() {
			// release even when ctx was cancelled, so the next run does not wait for the ttl
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()

			if rerr := release(rctx); rerr != nil {
				r.log.Warn().Err(rerr).Str("routine", string(routine)).Msg("release run lock")
			}
		}()
	}

	start := time.Now()

	res, err = r.run(ctx, routine)

	runDuration.WithLabelValues(string(routine)).Observe(time.Since(start).Seconds())
	runCounter.WithLabelValues(string(routine), outcome(err)).Inc()

	return res, err
}

func (r *Runner) run(ctx context.Context, routine rbac.Routine) (Result, error) {
	var (
		res Result
		err error
	)

	switch routine {
	case rbac.RoutineSyncRoleCatalog:
		res.Report, err = r.rec.SyncRoleCatalog(ctx)
	case rbac.RoutineBackfill:
		res.Report, err = r.rec.BackfillUserAssignments(ctx)
	case rbac.RoutineRepairOrphans:
		res.Report, err = r.rec.RepairOrphanRoles(ctx)
	case rbac.RoutineDetectDrift:
		res.Drift, err = r.rec.DetectDrift(ctx)
	case rbac.RoutineAll:
		res.Summary, err = r.rec.ReconcileAll(ctx)
	}

	return res, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrLocked):
		return "locked"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "interrupted"
	default:
		return "error"
	}
}

// Handle processes a reconciliation task. A run skipped because another process holds the
// lock counts as done; unknown task types are not retried.
func (r *Runner) Handle(ctx context.Context, task *asynq.Task) error {
	routine, err := RoutineOf(task.Type())
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	res, err := r.Run(ctx, routine)
	if errors.Is(err, ErrLocked) {
		r.log.Info().Str("routine", string(routine)).Msg("skipped, routine already running elsewhere")
		return nil
	}

	if err != nil {
		r.log.Error().Err(err).Str("routine", string(routine)).Msg("reconciliation task failed")
		return err
	}

	ev := r.log.Info().Str("routine", string(routine))

	switch {
	case res.Report != nil:
		ev = ev.Str("run_id", res.Report.RunID).Int("created", res.Report.Created).
			Int("updated", res.Report.Updated).Int("skipped", res.Report.Skipped)
	case res.Drift != nil:
		ev = ev.Str("run_id", res.Drift.RunID).Bool("drift", res.Drift.HasDrift())
	case res.Summary != nil:
		ev = ev.Int("reports", len(res.Summary.Reports))
	}

	ev.Msg("reconciliation task finished")

	return nil
}
