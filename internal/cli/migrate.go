package cli

import (
	"github.com/spf13/cobra"

	"fintrack/internal/backend"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			logger := SetupLogger(cfg.LogLevel)

			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			if err := backend.NewFactory(logger.Logger).Migrate(cmd.Context(), bcfg); err != nil {
				return err
			}
			logger.Info("Migrations applied", "backend", bcfg.Type.String())
			return nil
		},
	}
}
