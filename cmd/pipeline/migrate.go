package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"dex-spillover-lab/internal/storage/migrations"
	"dex-spillover-lab/internal/storage/postgres"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL and ClickHouse migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			pool, err := postgres.NewPool(ctx, e.cfg.Storage.PostgresDSN)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				return err
			}
			for _, f := range applied {
				e.logger.Info("migration applied", slog.String("file", f))
			}

			conn, applied, err := migrations.RunClickhouseMigrations(ctx, e.cfg.Storage.ClickHouseDSN)
			if err != nil {
				return err
			}
			defer conn.Close()
			for _, f := range applied {
				e.logger.Info("migration applied", slog.String("file", f))
			}

			return nil
		},
	}
}
