package taskscheduler

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
		Use:   "task-scheduler",
		Short: "StagePass Task Scheduler",
		Long:  "StagePass Task Scheduler - Enqueues the configured cron tasks for the worker to process.",
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

			scheduler, err := async.New(ctx, cfg)
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to create the scheduler")
			}

			go func() {
				<-ctx.Done()

				err := scheduler.Shutdown(ctx)
				if err != nil {
					applog.Error(ctx, "failed to shut down scheduler", err)
				}
			}()

			err = scheduler.RunScheduler()
			if err != nil {
				return oops.In("main").Wrapf(err, "failed to start the scheduler")
			}

			applog.Info(ctx, "shutting down scheduler")

			return nil
		},
	}

	return cmd
}
