package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/projectquota/pkg/entitlement/pgstore"
	"github.com/dmitrymomot/projectquota/pkg/pg"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply or inspect the ledger schema. SQLite stores are migrated automatically when opened.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrateUp(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrateStatus(cmd)
			},
		},
	)

	return cmd
}

func runMigrateUp(ctx context.Context) error {
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	a.log.InfoContext(ctx, "migrations applied")
	return nil
}

func runMigrateStatus(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	if a.sqlite != nil {
		current, latest, err := a.sqlite.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "sqlite %s: schema version %d of %d\n", a.cfg.SQLitePath, current, latest)
		return nil
	}

	states, err := pg.Status(ctx, a.pool, pgstore.Migrations(), a.log)
	if err != nil {
		return err
	}
	for _, s := range states {
		state := "pending"
		if s.Applied {
			state = "applied"
		}
		fmt.Fprintf(out, "%05d  %-8s  %s\n", s.Version, state, s.Path)
	}
	return nil
}
