package manager

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stagepass/stagepass/internal/errs"
	"github.com/stagepass/stagepass/internal/log"
	"github.com/stagepass/stagepass/internal/model"
	"github.com/stagepass/stagepass/internal/repo"
)

// TenantManager owns the tenant registry: one tenant per producer user,
// created lazily on first touch.
type TenantManager struct {
	repo repo.Repo
}

// NewTenantManager creates and returns a new TenantManager.
func NewTenantManager(repository repo.Repo) *TenantManager {
	return &TenantManager{
		repo: repository,
	}
}

// GetOrCreate returns the tenant owned by userID, creating it with defaults
// when absent. Concurrent creations for the same user are resolved by the
// unique constraint on user_id: the loser re-reads the winner's row.
func (m *TenantManager) GetOrCreate(ctx context.Context, userID string) (*model.Tenant, error) {
	tenant, found, err := m.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if found {
		return tenant, nil
	}

	tenant = &model.Tenant{
		ID:     uuid.NewString(),
		UserID: userID,
		AppID:  model.PublicAppID,
		Status: model.TenantStatusActive,
	}

	err = m.repo.Create(ctx, tenant)
	if err != nil {
		if errors.Is(err, repo.ErrUniqueConstraint) {
			tenant, found, err = m.GetByUserID(ctx, userID)
			if err != nil {
				return nil, err
			}

			if found {
				return tenant, nil
			}
		}

		return nil, errs.Wrap(ErrCreatingTenant, err)
	}

	log.Info(ctx, "tenant created",
		slog.String("tenantId", tenant.ID), slog.String("userId", userID))

	return tenant, nil
}

// GetByID looks up a tenant by its primary key. A missing tenant is reported
// through the bool, not the error.
func (m *TenantManager) GetByID(ctx context.Context, tenantID string) (*model.Tenant, bool, error) {
	return m.first(ctx, *repo.NewQuery().Where(
		repo.NewCompositeKeyGroup(repo.NewCompositeKey().Where(repo.IDField, tenantID)),
	))
}

// GetByUserID looks up the tenant owned by the given user.
func (m *TenantManager) GetByUserID(ctx context.Context, userID string) (*model.Tenant, bool, error) {
	return m.first(ctx, *repo.NewQuery().Where(
		repo.NewCompositeKeyGroup(repo.NewCompositeKey().Where(repo.UserIDField, userID)),
	))
}

// GetByDomain looks up the tenant holding the given primary domain.
func (m *TenantManager) GetByDomain(ctx context.Context, domain string) (*model.Tenant, bool, error) {
	return m.first(ctx, *repo.NewQuery().Where(
		repo.NewCompositeKeyGroup(repo.NewCompositeKey().Where(repo.PrimaryDomainField, domain)),
	))
}

// SetDomain claims or clears the tenant's primary custom domain. A nil domain
// releases the claim. A domain already held by another tenant yields
// ErrDomainClaimed.
func (m *TenantManager) SetDomain(ctx context.Context, tenantID string, domain *string) (*model.Tenant, error) {
	tenant, found, err := m.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, ErrTenantNotFound
	}

	tenant.PrimaryDomain = domain

	query := repo.NewQuery().Update("primary_domain")

	updated, err := m.repo.Patch(ctx, tenant, *query)
	if err != nil {
		if errors.Is(err, repo.ErrUniqueConstraint) {
			return nil, errs.Wrap(ErrDomainClaimed, err)
		}

		return nil, errs.Wrap(ErrUpdatingTenant, err)
	}

	if !updated {
		return nil, ErrTenantNotFound
	}

	return tenant, nil
}

// SetStatus updates the tenant's lifecycle status.
func (m *TenantManager) SetStatus(ctx context.Context, tenantID string, status model.TenantStatus) (*model.Tenant, error) {
	err := status.Validate()
	if err != nil {
		return nil, errs.Wrap(ErrInvalidStatus, err)
	}

	tenant, found, err := m.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, ErrTenantNotFound
	}

	tenant.Status = status

	updated, err := m.repo.Patch(ctx, tenant, *repo.NewQuery().Update("status"))
	if err != nil {
		return nil, errs.Wrap(ErrUpdatingTenant, err)
	}

	if !updated {
		return nil, ErrTenantNotFound
	}

	return tenant, nil
}

func (m *TenantManager) first(ctx context.Context, query repo.Query) (*model.Tenant, bool, error) {
	tenant := &model.Tenant{}

	found, err := m.repo.First(ctx, tenant, query)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, nil
		}

		return nil, false, errs.Wrap(ErrGettingTenant, err)
	}

	return tenant, found, nil
}
