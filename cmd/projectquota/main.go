package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/projectquota/pkg/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:          "projectquota",
		Short:        "Project-creation entitlement ledger",
		Long:         `projectquota decides whether a user may create a project and records every consumed credit in an append-only ledger.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadEnv(envFiles...)
		},
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Extra .env files to load (repeatable)")

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newLimitsCommand(),
		newTokenCommand(),
		newUserCommand(),
	)

	return rootCmd
}
