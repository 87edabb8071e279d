// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/config"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger"
)

var (
	configPath string        // Path to the configuration directory
	cfg        config.Config // configuration read by loadConfig

	rootCmd = &cobra.Command{
		Use:   "rbacd",
		Short: "rbacd is the branch scoped authorization service of the school management system",
		Long: `rbacd resolves permissions of school staff per branch, guards the API,
manages role assignments and reconciles the legacy role model with RBAC roles.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/",
		"directory holding main.toml")
}

// loadConfig reads the configuration and initializes the logger.
func loadConfig() error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
