package app

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(workerCmd)
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process reconciliation tasks and run the scheduled reconciliation",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		// the worker needs the queue regardless of the web service setting
		cfg.Jobs.Enabled = true

		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d, err := daemon.New(ctx, &cfg)
		if err != nil {
			return err
		}

		defer d.Close() //nolint:errcheck

		return d.Worker(ctx)
	},
}
