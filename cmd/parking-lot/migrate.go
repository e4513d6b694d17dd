package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"parking-lot-billing/internal/config"
	"parking-lot-billing/internal/store/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if !cfg.UsesDatabase() {
				return errors.New("DATABASE_URL is not set")
			}

			ctx := context.Background()
			pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, uint(cfg.DBConnectAttempts))
			if err != nil {
				return err
			}
			defer pool.Close()

			return postgres.Migrate(ctx, pool)
		},
	}
}
