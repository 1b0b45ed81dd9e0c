package daemon

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass/internal/cascade"
	"github.com/stagepass/stagepass/internal/config"
	"github.com/stagepass/stagepass/internal/controllers"
	"github.com/stagepass/stagepass/internal/db"
	"github.com/stagepass/stagepass/internal/log"
	"github.com/stagepass/stagepass/internal/manager"
	"github.com/stagepass/stagepass/internal/middleware"
	"github.com/stagepass/stagepass/internal/repo/sql"
)

const (
	ReadHeaderTimeout = 5 * time.Second
	ReadTimeout       = 10 * time.Second
	WriteTimeout      = 10 * time.Second
	IdleTimeout       = 120 * time.Second
	ServerLogDomain   = "server daemon"
)

// AppServer wires the database, managers and controllers into one HTTP server.
type AppServer struct {
	cfg    *config.Config
	dbCon  *gorm.DB
	server *http.Server
}

type Server interface {
	Start(ctx context.Context) error
	Close(ctx context.Context) error
}

func NewAppServer(
	ctx context.Context,
	cfg *config.Config,
) (*AppServer, error) {
	dbCon, err := db.StartDB(ctx, cfg)
	if err != nil {
		return nil, oops.In(ServerLogDomain).Wrapf(err, "starting db")
	}

	repository := sql.NewRepository(dbCon)

	tenants := manager.NewTenantManager(repository)
	updater := cascade.NewUpdater(repository, cfg.Cascade.Tables)
	activation := manager.NewActivationManager(repository, tenants, updater)
	memberships := manager.NewMembershipManager(repository)

	tenantCtr := controllers.NewTenantController(tenants, activation)
	membershipCtr := controllers.NewMembershipController(memberships)

	return &AppServer{
		cfg:    cfg,
		dbCon:  dbCon,
		server: createHTTPServer(cfg, tenantCtr, membershipCtr),
	}, nil
}

func (s *AppServer) Start(ctx context.Context) error {
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server encountered an error", err)

			_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
		}
	}()

	return nil
}

func (s *AppServer) Close(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	if err != nil {
		return oops.In(ServerLogDomain).
			WithContext(ctx).
			Wrapf(err, "Failed shutting down HTTP server")
	}

	log.Info(ctx, "Completed graceful shutdown of HTTP server")

	return nil
}

func createHTTPServer(
	cfg *config.Config,
	tenants *controllers.TenantController,
	memberships *controllers.MembershipController,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/tenants", tenants.Create)
	mux.HandleFunc("GET /v1/tenants/{id}", tenants.Get)
	mux.HandleFunc("POST /v1/tenants/{id}/activation", tenants.Activate)
	mux.HandleFunc("POST /v1/tenants/{id}/cascade-repair", tenants.RepairCascade)
	mux.HandleFunc("PUT /v1/tenants/{id}/domain", tenants.SetDomain)
	mux.HandleFunc("PUT /v1/tenants/{id}/status", tenants.SetStatus)
	mux.HandleFunc("GET /v1/tenants/{id}/memberships", memberships.ListByTenant)
	mux.HandleFunc("POST /v1/memberships", memberships.Create)
	mux.HandleFunc("PUT /v1/memberships/{viewer}/{tenant}/status", memberships.SetStatus)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Middlewares run in a FILO. Last middleware on the slice is the first one ran
	// First middleware to run should be the InjectRequestID
	var handler http.Handler = mux
	for _, mw := range []func(http.Handler) http.Handler{
		middleware.PanicRecoveryMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.InjectRequestID(),
	} {
		handler = mw(handler)
	}

	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}
}
