package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"go-project-finance/internal/auth"
	"go-project-finance/internal/config"
	"go-project-finance/internal/logger"
)

var version = "1.0.0"

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "finance",
	Short: "Project finance tracker with deadline and billing notifications",
	Long: `finance tracks projects together with their revenues, expenses, billings and
collections, and notifies users about projects ending soon, overdue projects,
unpaid billings and completed projects that were never billed.

Configuration comes from .env, an optional YAML file named by CONFIG_FILE and
environment variables, in that order of precedence (environment wins).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Setup(loaded.LoggerConfig()); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		auth.Configure(loaded.Auth.JWTSecret, time.Duration(loaded.Auth.TokenExpireHours)*time.Hour)
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
