package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Juara-1/warung-backend/internal/observability/logger"
	"github.com/Juara-1/warung-backend/internal/store/pg"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if cfg.Storage.DSN == "" {
				return errors.New("storage.dsn (STORAGE_DSN) is required")
			}
			if err := pg.Migrate(cmd.Context(), cfg.Storage.DSN); err != nil {
				return err
			}
			logger.L().Info("migrations applied")
			return nil
		},
	}
}
