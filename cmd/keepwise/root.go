package main

import (
	"os"

	"keepwise/infrastructure/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configDir   string
	environment string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "keepwise",
		Short:        "Personal memory store for links and ideas",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", envOr("CONFIG_DIR", "config"), "Directory holding base.yaml and per-environment files")
	cmd.PersistentFlags().StringVar(&opts.environment, "env", envOr("ENVIRONMENT", config.Development), "Environment: development|staging|production")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newTokenCmd(opts),
		newSeedCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.LoadFrom(o.configDir, o.environment)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
