package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/daemon"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/jobs"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

var (
	outputFormat string
	failOnDrift  bool
	dryRun       bool

	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile legacy roles with RBAC roles",
		Long: `Run a reconciliation routine once and print its report.
With --dry-run nothing is changed and the drift report is printed instead.
When jobs are enabled the run takes the same redis lock as the worker.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}
)

func init() { //nolint: gochecknoinits
	reconcileCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", formatJSON,
		"report format: json, yaml or toml")
	reconcileCmd.PersistentFlags().BoolVar(&failOnDrift, "fail-on-drift", false,
		"exit non-zero when drift remains")
	reconcileCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false,
		"change nothing, print the drift report")

	short := map[rbac.Routine]string{
		rbac.RoutineSyncRoleCatalog: "Create missing RBAC counterparts of legacy roles",
		rbac.RoutineBackfill:        "Assign every user the counterpart of their legacy role",
		rbac.RoutineRepairOrphans:   "Scope global non-system roles to the default branch",
		rbac.RoutineDetectDrift:     "Report differences between legacy and RBAC roles",
		rbac.RoutineAll:             "Run every routine in order, then report drift",
	}

	for _, routine := range rbac.Routines() {
		reconcileCmd.AddCommand(&cobra.Command{
			Use:   string(routine),
			Short: short[routine],
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				d, err := daemon.New(ctx, &cfg)
				if err != nil {
					return err
				}

				defer d.Close() //nolint:errcheck

				return runRoutine(ctx, cmd, d.Runner(), routine)
			},
		})
	}

	rootCmd.AddCommand(reconcileCmd)
}

func runRoutine(ctx context.Context, cmd *cobra.Command, runner *jobs.Runner, routine rbac.Routine) error {
	if dryRun {
		routine = rbac.RoutineDetectDrift
	}

	res, err := runner.Run(ctx, routine)
	if err != nil {
		// print what an interrupted run managed to do
		if res != (jobs.Result{}) {
			_ = encode(cmd.OutOrStdout(), outputFormat, res)
		}

		return fmt.Errorf("%s: %w", routine, err)
	}

	if err := encode(cmd.OutOrStdout(), outputFormat, res); err != nil {
		return err
	}

	drift := res.Drift
	if res.Summary != nil {
		drift = res.Summary.Drift
	}

	if failOnDrift && drift != nil && drift.HasDrift() {
		return drift.Err()
	}

	return nil
}
