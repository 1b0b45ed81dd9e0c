package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	retry "github.com/avast/retry-go/v5"

	"github.com/stagepass/stagepass/internal/config"
	"github.com/stagepass/stagepass/internal/db/dialect"
	"github.com/stagepass/stagepass/internal/db/dsn"
	"github.com/stagepass/stagepass/internal/errs"
)

var (
	ErrStartingDBCon            = errors.New("error starting db connection")
	ErrDBResolver               = errors.New("error starting db resolver")
	ErrLoadingDsnFromDBConfig   = errors.New("error loading dsn from db config")
	ErrLoadingReplicaDialectors = errors.New("error loading replica dialectors")
	ErrPingingDB                = errors.New("error pinging db")
)

const (
	pingAttempts = 5
	pingDelay    = time.Second
)

// StartDBConnection opens DB connection using data from `config.Database`.
func StartDBConnection(
	ctx context.Context,
	conf config.Database,
	replicas []config.Database,
) (*gorm.DB, error) {
	return StartDBConnectionPlugins(ctx, conf, replicas, map[string]gorm.Plugin{})
}

// StartDBConnectionPlugins opens DB connection using data from `config.Database`
// and plugins that are passed in a form of map because GORM config stores
// them this way.
// It is an extension of `StartDBConnection` functionality.
func StartDBConnectionPlugins(
	ctx context.Context,
	conf config.Database,
	replicas []config.Database,
	plugins map[string]gorm.Plugin,
) (*gorm.DB, error) {
	dsnFromConfig, err := dsn.FromDBConfig(conf)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingDsnFromDBConfig, err)
	}

	dialector := dialect.NewFrom(dsnFromConfig)

	db, err := gorm.Open(dialector, &gorm.Config{
		Plugins:        plugins,
		TranslateError: true,
	})
	if err != nil {
		return nil, errs.Wrap(ErrStartingDBCon, err)
	}

	db = db.WithContext(ctx)

	err = pingWithRetry(ctx, db)
	if err != nil {
		return nil, errs.Wrap(ErrPingingDB, err)
	}

	if len(replicas) == 0 {
		return db, nil
	}

	replicaDialectorsFromReplicas, err := replicaDialectors(replicas)
	if err != nil {
		return nil, errs.Wrap(ErrLoadingReplicaDialectors, err)
	}

	err = db.Use(dbresolver.Register(dbresolver.Config{
		Sources:  []gorm.Dialector{dialector},
		Replicas: replicaDialectorsFromReplicas,
		Policy:   dbresolver.RandomPolicy{},
	}))
	if err != nil {
		return nil, errs.Wrap(ErrDBResolver, err)
	}

	return db, nil
}

// pingWithRetry gives the database a short grace period on startup, when it
// may still be coming up alongside the service.
func pingWithRetry(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return retry.New(
		retry.Attempts(pingAttempts),
		retry.Delay(pingDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	).Do(func() error {
		return sqlDB.PingContext(ctx)
	})
}

func replicaDialectors(replicas []config.Database) ([]gorm.Dialector, error) {
	dialects := make([]gorm.Dialector, 0, len(replicas))

	for _, r := range replicas {
		dsnFromConfig, err := dsn.FromDBConfig(r)
		if err != nil {
			return nil, errs.Wrap(ErrLoadingDsnFromDBConfig, err)
		}

		dialects = append(dialects, dialect.NewFrom(dsnFromConfig))
	}

	return dialects, nil
}
