package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pressly/goose/v3"

	"github.com/stagepass/stagepass/internal/config"
	"github.com/stagepass/stagepass/internal/db/dsn"
)

type (
	MigrationType string
	migrateFunc   func(ctx context.Context, db *sql.DB, dir string) error
)

const (
	DataMigrationTable                 = "goose_db_data_version"
	SchemaMigrationTable               = "goose_db_schema_version"
	SchemaMigration      MigrationType = "schema"
	DataMigration        MigrationType = "data"
)

var ErrUnsupportedMigration = errors.New("unsupported migration")

type migrator struct {
	dsn string
	cfg *config.Config
}

// Migration describes a single migration run. All tables live in one shared
// schema, so the only knobs are the direction and whether schema or seed data
// migrations run.
type Migration struct {
	Downgrade bool
	Type      MigrationType
}

type Migrator interface {
	MigrateToLatest(ctx context.Context, migration Migration) error
	MigrateTo(ctx context.Context, migration Migration, version int64) error
}

func NewMigrator(cfg *config.Config) (Migrator, error) {
	dsn, err := dsn.FromDBConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	return &migrator{
		dsn: dsn,
		cfg: cfg,
	}, nil
}

// MigrateToLatest runs migrations onto the latest version
// For migrations with Downgrade false, it runs all migrations up to and including the latest version
// For migrations with Downgrade true, it downgrades the latest version
func (m *migrator) MigrateToLatest(
	ctx context.Context,
	migration Migration,
) error {
	return m.runMigration(ctx, migration, func(ctx context.Context, db *sql.DB, dir string) error {
		if migration.Downgrade {
			return goose.DownContext(ctx, db, dir)
		}
		return goose.UpContext(ctx, db, dir)
	})
}

// MigrateTo runs migrations up-to a specific version
// For migrations with Downgrade false, it migrates up to the specified version
// For migrations with Downgrade true, it downgrades until the DB is the specified version
func (m *migrator) MigrateTo(
	ctx context.Context,
	migration Migration,
	version int64,
) error {
	return m.runMigration(ctx, migration, func(ctx context.Context, db *sql.DB, dir string) error {
		if migration.Downgrade {
			return goose.DownToContext(ctx, db, dir, version)
		}
		return goose.UpToContext(ctx, db, dir, version)
	})
}

func (m *migrator) runMigration(
	ctx context.Context,
	migration Migration,
	f migrateFunc,
) error {
	dbCon, err := m.newDBCon(migration)
	if err != nil {
		return err
	}
	defer dbCon.Close()

	dir, err := m.getMigrationDir(migration)
	if err != nil {
		return err
	}

	return f(ctx, dbCon, dir)
}

func (m *migrator) newDBCon(migration Migration) (*sql.DB, error) {
	db, err := goose.OpenDBWithDriver(string(goose.DialectPostgres), m.dsn)
	if err != nil {
		return nil, err
	}

	switch migration.Type {
	case DataMigration:
		goose.SetTableName(DataMigrationTable)
	case SchemaMigration:
		goose.SetTableName(SchemaMigrationTable)
	default:
		return nil, ErrUnsupportedMigration
	}

	return db, nil
}

func (m *migrator) getMigrationDir(mig Migration) (string, error) {
	switch mig.Type {
	case SchemaMigration:
		return m.cfg.Database.Migrator.Schema, nil
	case DataMigration:
		return m.cfg.Database.Migrator.Data, nil
	default:
		return "", ErrUnsupportedMigration
	}
}
