package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/bluesky/api/internal/config"
	"github.com/stwalsh4118/bluesky/api/internal/database"
	"github.com/stwalsh4118/bluesky/api/internal/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Operator tools for the Bluesky inventory API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newColumnsCmd())
	return cmd
}

// connect loads configuration and opens the database.
func connect(ctx context.Context) (*config.Config, *database.Database, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(cfg.Server.Env)

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, log, nil
}
