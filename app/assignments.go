package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/daemon"
)

var (
	assignmentsCmd = &cobra.Command{
		Use:   "assignments",
		Short: "Maintain role assignments",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	purgeExpiredCmd = &cobra.Command{
		Use:   "purge-expired",
		Short: "Delete expired role assignments",
		Long: `Delete role assignments whose expiry has passed.
Expired assignments already grant nothing, so purging never changes a decision.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer d.Close() //nolint:errcheck

			removed, err := d.Service().PurgeExpiredAssignments(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d expired assignments removed\n", removed)

			return err
		},
	}
)

func init() { //nolint: gochecknoinits
	assignmentsCmd.AddCommand(purgeExpiredCmd)
	rootCmd.AddCommand(assignmentsCmd)
}
