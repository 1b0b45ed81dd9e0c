package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass/internal/async/tasks"
	"github.com/stagepass/stagepass/internal/cascade"
	"github.com/stagepass/stagepass/internal/config"
	"github.com/stagepass/stagepass/internal/model"
	"github.com/stagepass/stagepass/internal/repo/mock"
)

type recordingFixer struct {
	repaired []string
	failOn   map[string]error
}

func (r *recordingFixer) RepairCascade(_ context.Context, tenantID string) (cascade.Result, error) {
	if err := r.failOn[tenantID]; err != nil {
		return cascade.Result{}, err
	}

	r.repaired = append(r.repaired, tenantID)

	return cascade.Result{Success: true, TotalRowsAffected: 1}, nil
}

func TestCascadeRepairerProcessTask(t *testing.T) {
	seed := func(t *testing.T, repository *mock.InMemoryRepository, id string, pro bool) {
		t.Helper()

		require.NoError(t, repository.Create(t.Context(), &model.Tenant{
			ID:     id,
			UserID: "user-" + id,
			AppID:  model.PublicAppID,
			IsPro:  pro,
			Status: model.TenantStatusActive,
		}))
	}

	t.Run("should repair pro tenants only", func(t *testing.T) {
		repository := mock.NewInMemoryRepository()
		seed(t, repository, "t1", true)
		seed(t, repository, "t2", false)
		seed(t, repository, "t3", true)

		fixer := &recordingFixer{failOn: map[string]error{}}
		repairer := tasks.NewCascadeRepairer(fixer, repository)

		err := repairer.ProcessTask(t.Context(),
			asynq.NewTask(config.TypeCascadeRepair, nil))

		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"t1", "t3"}, fixer.repaired)
	})

	t.Run("should continue past a failing tenant", func(t *testing.T) {
		repository := mock.NewInMemoryRepository()
		seed(t, repository, "t1", true)
		seed(t, repository, "t2", true)

		fixer := &recordingFixer{failOn: map[string]error{"t1": errors.New("boom")}}
		repairer := tasks.NewCascadeRepairer(fixer, repository)

		err := repairer.ProcessTask(t.Context(),
			asynq.NewTask(config.TypeCascadeRepair, nil))

		require.NoError(t, err)
		assert.Equal(t, []string{"t2"}, fixer.repaired)
	})
}

func TestCascadeRepairerTaskType(t *testing.T) {
	repairer := tasks.NewCascadeRepairer(&recordingFixer{}, mock.NewInMemoryRepository())

	assert.Equal(t, config.TypeCascadeRepair, repairer.TaskType())
}
