package manager_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass/internal/manager"
	"github.com/stagepass/stagepass/internal/model"
	"github.com/stagepass/stagepass/internal/repo/mock"
)

func TestTenantGetOrCreate(t *testing.T) {
	t.Run("should create tenant with defaults on first touch", func(t *testing.T) {
		tenants := manager.NewTenantManager(mock.NewInMemoryRepository())

		tenant, err := tenants.GetOrCreate(t.Context(), "user-1")

		require.NoError(t, err)
		assert.NotEmpty(t, tenant.ID)
		assert.Equal(t, "user-1", tenant.UserID)
		assert.Equal(t, model.PublicAppID, tenant.AppID)
		assert.False(t, tenant.IsPro)
		assert.Nil(t, tenant.ProActivatedAt)
		assert.Equal(t, model.TenantStatusActive, tenant.Status)
	})

	t.Run("should return the existing tenant on repeat calls", func(t *testing.T) {
		tenants := manager.NewTenantManager(mock.NewInMemoryRepository())

		first, err := tenants.GetOrCreate(t.Context(), "user-1")
		require.NoError(t, err)

		second, err := tenants.GetOrCreate(t.Context(), "user-1")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("should keep tenants of different users apart", func(t *testing.T) {
		tenants := manager.NewTenantManager(mock.NewInMemoryRepository())

		a, err := tenants.GetOrCreate(t.Context(), "user-a")
		require.NoError(t, err)

		b, err := tenants.GetOrCreate(t.Context(), "user-b")
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestTenantLookups(t *testing.T) {
	repository := mock.NewInMemoryRepository()
	tenants := manager.NewTenantManager(repository)

	created, err := tenants.GetOrCreate(t.Context(), "user-1")
	require.NoError(t, err)

	t.Run("should find tenant by id", func(t *testing.T) {
		tenant, found, err := tenants.GetByID(t.Context(), created.ID)

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, created.ID, tenant.ID)
	})

	t.Run("should find tenant by user id", func(t *testing.T) {
		tenant, found, err := tenants.GetByUserID(t.Context(), "user-1")

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, created.ID, tenant.ID)
	})

	t.Run("should report absence without an error", func(t *testing.T) {
		tenant, found, err := tenants.GetByID(t.Context(), "missing")

		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, tenant)
	})
}

func TestTenantSetDomain(t *testing.T) {
	t.Run("should claim a free domain", func(t *testing.T) {
		tenants := manager.NewTenantManager(mock.NewInMemoryRepository())

		created, err := tenants.GetOrCreate(t.Context(), "user-1")
		require.NoError(t, err)

		domain := "shows.example.com"

		tenant, err := tenants.SetDomain(t.Context(), created.ID, &domain)

		require.NoError(t, err)
		require.NotNil(t, tenant.PrimaryDomain)
		assert.Equal(t, domain, *tenant.PrimaryDomain)

		byDomain, found, err := tenants.GetByDomain(t.Context(), domain)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, created.ID, byDomain.ID)
	})

	t.Run("should reject a domain held by another tenant", func(t *testing.T) {
		tenants := manager.NewTenantManager(mock.NewInMemoryRepository())

		holder, err := tenants.GetOrCreate(t.Context(), "user-1")
		require.NoError(t, err)

		claimer, err := tenants.GetOrCreate(t.Context(), "user-2")
		require.NoError(t, err)

		domain := "shows.example.com"

		_, err = tenants.SetDomain(t.Context(), holder.ID, &domain)
		require.NoError(t, err)

		_, err = tenants.SetDomain(t.Context(), claimer.ID, &domain)

		assert.ErrorIs(t, err, manager.ErrDomainClaimed)
	})

	t.Run("should release a domain with nil", func(t *testing.T) {
		tenants := manager.NewTenantManager(mock.NewInMemoryRepository())

		created, err := tenants.GetOrCreate(t.Context(), "user-1")
		require.NoError(t, err)

		domain := "shows.example.com"

		_, err = tenants.SetDomain(t.Context(), created.ID, &domain)
		require.NoError(t, err)

		tenant, err := tenants.SetDomain(t.Context(), created.ID, nil)

		require.NoError(t, err)
		assert.Nil(t, tenant.PrimaryDomain)
	})

	t.Run("should fail for an unknown tenant", func(t *testing.T) {
		tenants := manager.NewTenantManager(mock.NewInMemoryRepository())

		domain := "shows.example.com"

		_, err := tenants.SetDomain(t.Context(), "missing", &domain)

		assert.ErrorIs(t, err, manager.ErrTenantNotFound)
	})
}

func TestTenantSetStatus(t *testing.T) {
	t.Run("should update the status", func(t *testing.T) {
		tenants := manager.NewTenantManager(mock.NewInMemoryRepository())

		created, err := tenants.GetOrCreate(t.Context(), "user-1")
		require.NoError(t, err)

		tenant, err := tenants.SetStatus(t.Context(), created.ID, model.TenantStatusSuspended)

		require.NoError(t, err)
		assert.Equal(t, model.TenantStatusSuspended, tenant.Status)
	})

	t.Run("should reject an unknown status", func(t *testing.T) {
		tenants := manager.NewTenantManager(mock.NewInMemoryRepository())

		created, err := tenants.GetOrCreate(t.Context(), "user-1")
		require.NoError(t, err)

		_, err = tenants.SetStatus(t.Context(), created.ID, model.TenantStatus("frozen"))

		assert.ErrorIs(t, err, manager.ErrInvalidStatus)
	})
}
