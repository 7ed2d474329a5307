package cli

import (
	"github.com/spf13/cobra"

	"github.com/pageza/recipeforge/backend/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := a.setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			if cfg.DBDriver == "sqlite" {
				db, err := database.Open(cfg, log)
				if err != nil {
					return err
				}
				return database.RunMigrations(db, dir, log)
			}

			sqlDB, err := database.OpenSQL(cfg)
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			return database.ApplySQLMigrations(sqlDB, dir, log)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default MIGRATIONS_DIR)")
	return cmd
}
