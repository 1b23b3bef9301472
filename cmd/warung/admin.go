package main

import (
	"github.com/spf13/cobra"

	"github.com/Juara-1/warung-backend/internal/app"
	"github.com/Juara-1/warung-backend/internal/bootstrap"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

func newAdminCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative tasks",
	}

	var handle, displayName string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a principal with the admin role",
		Long: `Create a principal with the admin role.

The secret is read from ADMIN_SECRET or prompted without echo. Only useful
with storage.driver=postgres: the memory store does not outlive the command.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.cfg.Storage.Driver == "memory" {
				logger.L().Warn("admin created in memory store will be lost on exit")
			}
			a, err := app.New(cmd.Context(), opts.cfg, app.Options{Version: version})
			if err != nil {
				return err
			}
			defer a.Close()

			_, err = bootstrap.CreateAdmin(cmd.Context(), bootstrap.AdminConfig{
				Registrar:   a.Verifier,
				LoginHandle: handle,
				Secret:      opts.adminSecret(),
				DisplayName: displayName,
				In:          cmd.InOrStdin(),
				Out:         cmd.OutOrStdout(),
			})
			return err
		},
	}
	create.Flags().StringVar(&handle, "handle", "", "login handle del admin")
	create.Flags().StringVar(&displayName, "display-name", "", "nombre visible")

	cmd.AddCommand(create)
	return cmd
}
