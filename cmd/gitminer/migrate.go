package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/deppfellow/gitminer/internal/config"
	"github.com/deppfellow/gitminer/internal/database"
	"github.com/deppfellow/gitminer/internal/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(command *cobra.Command, args []string) error {
			return migrate(command.Context())
		},
	}
}

func migrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Observability)

	// SQLite applies its embedded schema every time it is opened.
	if cfg.Database.Driver == config.DriverSQLite {
		lite, err := database.OpenSQLite(ctx, cfg.Database.Path, &log)
		if err != nil {
			log.Error().Err(err).Msg("failed to migrate database")
			return err
		}
		return lite.Close()
	}

	if err := database.Migrate(ctx, &log, cfg); err != nil {
		log.Error().Err(err).Msg("failed to migrate database")
		return err
	}
	return nil
}
