package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/guard"
)

var (
	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the permission catalog",
	}

	catalogListCmd = &cobra.Command{
		Use:   "list",
		Short: "Print every permission of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return encode(cmd.OutOrStdout(), outputFormat, catalogListing{Permissions: rbac.DefaultCatalog().All()})
		},
	}

	catalogCheckRoutesCmd = &cobra.Command{
		Use:   "check-routes",
		Short: "Validate the API route table against the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			routes := guard.DefaultRoutes()
			if err := guard.ValidateRoutes(rbac.DefaultCatalog(), routes); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d routes map to catalog permissions\n", len(routes))

			return err
		},
	}
)

// catalogListing wraps the definitions so every output format has a root table.
type catalogListing struct {
	Permissions []rbac.Definition `json:"permissions" yaml:"permissions" toml:"permissions"`
}

func init() { //nolint: gochecknoinits
	catalogListCmd.Flags().StringVarP(&outputFormat, "format", "f", formatJSON,
		"output format: json, yaml or toml")

	catalogCmd.AddCommand(catalogListCmd, catalogCheckRoutesCmd)
	rootCmd.AddCommand(catalogCmd)
}
