package db

import (
	"context"

	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass/internal/config"
	"github.com/stagepass/stagepass/internal/log"
)

const DBLogDomain = "db"

// StartDB starts the DB connection.
func StartDB(
	ctx context.Context,
	cfg *config.Config,
) (*gorm.DB, error) {
	log.Info(ctx, "Starting DB connection")

	dbCon, err := StartDBConnection(ctx, cfg.Database, cfg.DatabaseReplicas)
	if err != nil {
		return nil, oops.In(DBLogDomain).Wrapf(err, "failed to initialize DB Connection")
	}

	return dbCon, nil
}
