package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/obs-timetable-api/pkg/config"
	"github.com/noah-isme/obs-timetable-api/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the timetable schema to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema applied to %s@%s/%s\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Name)
			return nil
		},
	}
}
