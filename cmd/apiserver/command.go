package apiserver

import (
	"context"
	"log/slog"
	"syscall"
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/health"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/openkcm/common-sdk/pkg/status"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/stagepass/stagepass/internal/config"
	"github.com/stagepass/stagepass/internal/daemon"
	"github.com/stagepass/stagepass/internal/db"
	"github.com/stagepass/stagepass/internal/db/dsn"
	"github.com/stagepass/stagepass/internal/log"
	"github.com/stagepass/stagepass/internal/model"
	"github.com/stagepass/stagepass/internal/repo"
	"github.com/stagepass/stagepass/internal/repo/sql"
)

const (
	healthStatusTimeoutS = 5 * time.Second
	proGaugeInterval     = time.Minute
	postgresDriverName   = "pgx"
)

// - Starts the status server
// - Starts the StagePass API server
func run(ctx context.Context, cfg *config.Config) error {
	// LoggerConfig initialisation
	err := logger.InitAsDefault(cfg.Logger, cfg.Application)
	if err != nil {
		return oops.In("main").
			Wrapf(err, "Failed to initialise the logger")
	}

	log.Debug(ctx, "Starting the application", slog.Any("config", cfg))

	// Start status server
	startStatusServer(ctx, cfg)

	// Create and start the API server
	s, err := daemon.NewAppServer(ctx, cfg)
	if err != nil {
		return oops.In("main").Wrapf(err, "creating app server")
	}

	err = s.Start(ctx)
	if err != nil {
		return oops.In("main").Wrapf(err, "starting api server")
	}

	<-ctx.Done()

	err = s.Close(ctx)
	if err != nil {
		return oops.In("main").Wrapf(err, "closing server")
	}

	return nil
}

// monitorProTenants keeps a gauge of how many tenants are on the pro plan.
func monitorProTenants(
	ctx context.Context,
	cfg config.Config,
) {
	gauge := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stagepass_pro_tenants_total",
			Help: "The number of tenants on the pro plan",
		},
	)
	prometheus.MustRegister(gauge)

	log.Debug(ctx, "Registering pro tenant gauge metric")

	dbCon, err := db.StartDBConnection(ctx, cfg.Database, cfg.DatabaseReplicas)
	if err != nil {
		log.Error(ctx, "failed to initialize DB Connection", err)
		return
	}

	r := sql.NewRepository(dbCon)
	query := repo.NewQuery().Where(
		repo.NewCompositeKeyGroup(repo.NewCompositeKey().Where(repo.IsProField, true)),
	)

	ticker := time.NewTicker(proGaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "stopping pro tenant monitoring")
			return
		case <-ticker.C:
			count, err := r.Count(ctx, model.Tenant{}, *query)
			if err != nil {
				log.Error(ctx, "failed to count pro tenants", err)
			} else {
				gauge.Set(float64(count))
				log.Debug(ctx, "pro tenant count", slog.Int("count", count))
			}
		}
	}
}

func startStatusServer(ctx context.Context, cfg *config.Config) {
	liveness := status.WithLiveness(
		health.NewHandler(
			health.NewChecker(health.WithDisabledAutostart()),
		),
	)

	healthOptions := make([]health.Option, 0)
	healthOptions = append(healthOptions,
		health.WithDisabledAutostart(),
		health.WithTimeout(healthStatusTimeoutS),
		health.WithStatusListener(func(ctx context.Context, state health.State) {
			log.Info(ctx, "readiness status changed", slog.String("status", string(state.Status)))
		}),
	)

	dsnFromConfig, err := dsn.FromDBConfig(cfg.Database)
	if err != nil {
		log.Error(ctx, "Could not load DSN from database config", err)
	}

	healthOptions = append(healthOptions,
		health.WithDatabaseChecker(
			postgresDriverName,
			dsnFromConfig,
		),
	)

	readiness := status.WithReadiness(
		health.NewHandler(
			health.NewChecker(healthOptions...),
		),
	)

	if cfg.Telemetry.Metrics.Prometheus.Enabled {
		go monitorProTenants(ctx, *cfg)
	}

	go func() {
		err := status.Start(ctx, &cfg.BaseConfig, liveness, readiness)
		if err != nil {
			log.Error(ctx, "Failure on the status server", err)

			_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
		}
	}()
}

func Cmd(buildInfo string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "api-server",
		Short: "StagePass API Server",
		Long:  "StagePass API Server serves the tenant registry, Pro activation and membership APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to load config")
			}

			// Update Version
			err = commoncfg.UpdateConfigVersion(&cfg.BaseConfig, buildInfo)
			if err != nil {
				return oops.In("main").
					Wrapf(err, "Failed to update the version configuration")
			}

			err = run(cmd.Context(), cfg)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to run the api server")
			}

			return err
		},
	}

	return cmd
}
