package tasks

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stagepass/stagepass/internal/cascade"
	"github.com/stagepass/stagepass/internal/config"
	"github.com/stagepass/stagepass/internal/errs"
	"github.com/stagepass/stagepass/internal/log"
	"github.com/stagepass/stagepass/internal/model"
	"github.com/stagepass/stagepass/internal/repo"
	appcontext "github.com/stagepass/stagepass/utils/context"
)

// CascadeFixer repairs the scoped rows of a single pro tenant.
type CascadeFixer interface {
	RepairCascade(ctx context.Context, tenantID string) (cascade.Result, error)
}

// CascadeRepairer walks all pro tenants and re-keys any scoped rows a
// partially failed activation left on a stale app_id.
type CascadeRepairer struct {
	fixer CascadeFixer
	repo  repo.Repo
}

func NewCascadeRepairer(fixer CascadeFixer, repository repo.Repo) *CascadeRepairer {
	return &CascadeRepairer{
		fixer: fixer,
		repo:  repository,
	}
}

func (c *CascadeRepairer) ProcessTask(ctx context.Context, task *asynq.Task) error {
	ctx = log.InjectTask(ctx, task)

	query := repo.NewQuery().Where(
		repo.NewCompositeKeyGroup(repo.NewCompositeKey().Where(repo.IsProField, true)),
	)

	err := repo.ProcessInBatch(ctx, c.repo, query, repo.DefaultLimit,
		func(tenants []*model.Tenant) error {
			for _, tenant := range tenants {
				ctx := appcontext.InjectTenantID(ctx, tenant.ID)

				result, err := c.fixer.RepairCascade(ctx, tenant.ID)
				if err != nil {
					log.Error(ctx, "Running Cascade Repair Task", err)
					continue
				}

				if result.TotalRowsAffected > 0 {
					log.Info(ctx, "Repaired stale partition keys",
						slog.String("tenantId", tenant.ID),
						slog.Int64("rows", result.TotalRowsAffected))
				}
			}

			return nil
		})
	if err != nil {
		return errs.Wrap(ErrRunningTask, err)
	}

	return nil
}

func (c *CascadeRepairer) TaskType() string {
	return config.TypeCascadeRepair
}
