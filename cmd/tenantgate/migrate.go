package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantgate/pkg/pg"
	"github.com/dmitrymomot/tenantgate/pkg/pgstore"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations (uses PG_MIGRATIONS_URL when set)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig[adminConfig]()
			if err != nil {
				return err
			}
			log := newLogger(cfg.Log, os.Stderr)
			if err := pg.Migrate(cmd.Context(), cfg.PG, pgstore.Migrations, pgstore.MigrationsDir, log); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}
