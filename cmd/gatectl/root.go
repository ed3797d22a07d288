package main

import (
	"github.com/spf13/cobra"

	"cardgate/core"
)

func newRootCmd() *cobra.Command {
	cfg := core.Load()
	cmd := &cobra.Command{
		Use:           "gatectl",
		Short:         "Operate the cardgate login gateway",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL DSN (defaults to DATABASE_URL)")
	cmd.AddCommand(newMigrateCmd(&cfg), newSeedCmd(&cfg), newHashPasswordCmd(&cfg))
	return cmd
}
