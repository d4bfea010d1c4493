package main

import (
	"keepwise/infrastructure/di"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			cfg.Database.AutoMigrate = true

			level, err := di.ProvideLogLevel(cfg)
			if err != nil {
				return err
			}
			logger, err := di.ProvideLogger(cfg, level)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			_, cleanup, err := di.ProvideStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			logger.Info("Schema is up to date", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
}
