package main

import (
	"time"

	"github.com/spf13/cobra"
)

type migrateOutput struct {
	Command    string `json:"command"`
	Database   string `json:"database"`
	DurationMS int64  `json:"duration_ms"`
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the inventory schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, _, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			start := time.Now()
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), migrateOutput{
				Command:    "migrate",
				Database:   cfg.Database.Name,
				DurationMS: time.Since(start).Milliseconds(),
			})
		},
	}
}
