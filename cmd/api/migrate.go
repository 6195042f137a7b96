package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		migrateAction("up", "Apply all pending migrations", (*persistence.Migrator).Up),
		migrateAction("down", "Roll back the latest migration", (*persistence.Migrator).Down),
		migrateAction("status", "Show the state of every migration", (*persistence.Migrator).Status),
	)
	return cmd
}

func migrateAction(use, short string, action func(*persistence.Migrator, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()

			ctx := cmd.Context()
			pg, err := rt.connectPostgres(ctx)
			if err != nil {
				return err
			}
			defer pg.Close()

			migrator, err := persistence.NewMigrator(pg.PoolHandle(), rt.logger)
			if err != nil {
				return err
			}
			defer migrator.Close() //nolint:errcheck
			return action(migrator, ctx)
		},
	}
}
