package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Juara-1/warung-backend/internal/config"
	"github.com/Juara-1/warung-backend/internal/observability/logger"
)

type rootOptions struct {
	configPath string
	envFile    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "warung",
		Short:         "Multi-tenant identity service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return opts.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "config YAML (opcional; env tiene prioridad)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "archivo .env a cargar si existe")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newAdminCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) adminSecret() string { return os.Getenv("ADMIN_SECRET") }

// init carga .env, config y logger, en ese orden.
func (o *rootOptions) init() error {
	envLoaded := false
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err == nil {
			envLoaded = true
		}
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "warung",
		Version:     version,
	})
	if !envLoaded && o.envFile != ".env" {
		logger.L().Warn("env file not loaded", logger.String("path", o.envFile))
	}
	return nil
}
