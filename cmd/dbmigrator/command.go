package dbmigrator

import (
	"errors"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/stagepass/stagepass/internal/config"
	"github.com/stagepass/stagepass/internal/db"
)

var ErrUnknownMigrationType = errors.New("unknown migration type")

func Cmd(buildInfo string) *cobra.Command {
	var (
		migrationType string
		downgrade     bool
		toVersion     int64
	)

	var cmd = &cobra.Command{
		Use:   "db-migrator",
		Short: "StagePass DB Migrator",
		Long:  "StagePass DB Migrator - Applies goose schema and seed data migrations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadConfig()
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to load the config")
			}

			// Update Version
			err = commoncfg.UpdateConfigVersion(&cfg.BaseConfig, buildInfo)
			if err != nil {
				return oops.In("main").
					Wrapf(err, "Failed to update the version configuration")
			}

			// LoggerConfig initialisation
			err = logger.InitAsDefault(cfg.Logger, cfg.Application)
			if err != nil {
				return oops.In("main").
					Wrapf(err, "Failed to initialise the logger")
			}

			migration := db.Migration{Downgrade: downgrade}

			switch migrationType {
			case string(db.SchemaMigration):
				migration.Type = db.SchemaMigration
			case string(db.DataMigration):
				migration.Type = db.DataMigration
			default:
				return ErrUnknownMigrationType
			}

			migrator, err := db.NewMigrator(cfg)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to create the migrator")
			}

			if toVersion >= 0 {
				err = migrator.MigrateTo(ctx, migration, toVersion)
			} else {
				err = migrator.MigrateToLatest(ctx, migration)
			}

			if err != nil {
				return oops.In("main").Wrapf(err, "failed to run migrations")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&migrationType, "type", string(db.SchemaMigration), "migration type: schema or data")
	cmd.Flags().BoolVar(&downgrade, "down", false, "run migrations downwards")
	cmd.Flags().Int64Var(&toVersion, "to", -1, "migrate to a specific version instead of the latest")

	return cmd
}
