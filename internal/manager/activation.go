package manager

import (
	"context"
	"log/slog"
	"time"

	"github.com/stagepass/stagepass/internal/cascade"
	"github.com/stagepass/stagepass/internal/errs"
	"github.com/stagepass/stagepass/internal/log"
	"github.com/stagepass/stagepass/internal/model"
	"github.com/stagepass/stagepass/internal/repo"
)

// ActivationManager drives the Pro activation flow: flipping the tenant to
// the pro plan and re-keying every denormalized app_id row it owns.
type ActivationManager struct {
	repo    repo.Repo
	tenants *TenantManager
	updater *cascade.Updater
}

// NewActivationManager creates and returns a new ActivationManager.
func NewActivationManager(repository repo.Repo, tenants *TenantManager, updater *cascade.Updater) *ActivationManager {
	return &ActivationManager{
		repo:    repository,
		tenants: tenants,
		updater: updater,
	}
}

// ActivateProRequest carries the inputs of a Pro activation. CustomAppID, if
// set and non-empty, becomes the tenant's new partition key instead of the
// tenant ID.
type ActivateProRequest struct {
	TenantID    string
	CustomAppID *string
}

func (r ActivateProRequest) newKey() string {
	if r.CustomAppID != nil && *r.CustomAppID != "" {
		return *r.CustomAppID
	}

	return r.TenantID
}

// ActivatePro switches the tenant to the pro plan and cascades the new
// partition key across every tenant-scoped table.
//
// The tenant row is flipped first, then each table is updated in turn. A
// table failure is recorded in the result and does not stop the run; nothing
// is rolled back. Activating an already-pro tenant with its current key is a
// no-op.
func (m *ActivationManager) ActivatePro(ctx context.Context, req ActivateProRequest) (*model.Tenant, cascade.Result, error) {
	tenant, found, err := m.tenants.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, cascade.Result{}, err
	}

	if !found {
		return nil, cascade.Result{}, ErrTenantNotFound
	}

	newKey := req.newKey()

	if tenant.IsPro && tenant.AppID == newKey {
		log.Info(ctx, "tenant already pro on requested key, skipping",
			slog.String("tenantId", tenant.ID), slog.String("appId", newKey))

		return tenant, cascade.Result{
			Success:  true,
			OldAppID: tenant.AppID,
			NewAppID: newKey,
			Tables:   []cascade.TableResult{},
		}, nil
	}

	oldKey := tenant.AppID
	now := time.Now().UTC()

	tenant.AppID = newKey
	tenant.IsPro = true
	tenant.ProActivatedAt = &now

	updated, err := m.repo.Patch(ctx, tenant,
		*repo.NewQuery().Update("app_id", "is_pro", "pro_activated_at"))
	if err != nil {
		return nil, cascade.Result{}, errs.Wrap(ErrUpdatingTenant, err)
	}

	if !updated {
		return nil, cascade.Result{}, ErrTenantNotFound
	}

	log.Info(ctx, "tenant switched to pro, cascading partition key",
		slog.String("tenantId", tenant.ID),
		slog.String("oldAppId", oldKey), slog.String("newAppId", newKey))

	result := m.updater.Run(ctx, tenant.ID, oldKey, newKey)
	if !result.Success {
		log.Warn(ctx, "cascade finished with failed tables, repair will catch up",
			slog.String("tenantId", tenant.ID))
	}

	return tenant, result, nil
}

// RepairCascade re-keys any scoped rows of a pro tenant whose app_id lags
// behind the tenant row, typically after a partially failed activation.
func (m *ActivationManager) RepairCascade(ctx context.Context, tenantID string) (cascade.Result, error) {
	tenant, found, err := m.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return cascade.Result{}, err
	}

	if !found {
		return cascade.Result{}, ErrTenantNotFound
	}

	if !tenant.IsPro {
		return cascade.Result{}, ErrTenantNotPro
	}

	return m.updater.Repair(ctx, tenant.ID, tenant.AppID), nil
}
