package taskworker

import (
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/logger"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/stagepass/stagepass/internal/async"
	"github.com/stagepass/stagepass/internal/config"
	applog "github.com/stagepass/stagepass/internal/log"
)

func Cmd(buildInfo string) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "task-worker",
		Short: "StagePass Task Worker",
		Long:  "StagePass Task Worker - A background service that processes tasks asynchronously.",
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

			worker, err := async.New(ctx, cfg)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to create the worker")
			}

			go func() {
				<-ctx.Done()

				err := worker.Shutdown(ctx)
				if err != nil {
					applog.Error(ctx, "failed to shut down worker", err)
				}
			}()

			err = worker.RunWorker(ctx)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to start the worker")
			}

			applog.Info(ctx, "shutting down worker")

			return nil
		},
	}

	return cmd
}
