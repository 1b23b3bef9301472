package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Juara-1/warung-backend/internal/app"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
	"github.com/Juara-1/warung-backend/internal/store/pg"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := opts.cfg
			if migrate && cfg.Storage.Driver == "postgres" {
				if err := pg.Migrate(ctx, cfg.Storage.DSN); err != nil {
					return err
				}
				logger.L().Info("migrations applied")
			}

			a, err := app.New(ctx, cfg, app.Options{Version: version})
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "aplicar migraciones antes de arrancar (solo postgres)")
	return cmd
}
