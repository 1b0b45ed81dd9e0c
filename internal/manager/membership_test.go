package manager_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass/internal/manager"
	"github.com/stagepass/stagepass/internal/model"
	"github.com/stagepass/stagepass/internal/repo/mock"
)

func TestMembershipGetOrCreate(t *testing.T) {
	t.Run("should create an active membership", func(t *testing.T) {
		memberships := manager.NewMembershipManager(mock.NewInMemoryRepository())

		membership, err := memberships.GetOrCreate(t.Context(),
			"viewer-1", "tenant-1", model.MembershipSourcePurchase)

		require.NoError(t, err)
		assert.NotEmpty(t, membership.ID)
		assert.Equal(t, model.MembershipStatusActive, membership.Status)
		assert.Equal(t, model.MembershipSourcePurchase, membership.Source)
	})

	t.Run("should keep the original source on repeat calls", func(t *testing.T) {
		memberships := manager.NewMembershipManager(mock.NewInMemoryRepository())

		first, err := memberships.GetOrCreate(t.Context(),
			"viewer-1", "tenant-1", model.MembershipSourceSignup)
		require.NoError(t, err)

		second, err := memberships.GetOrCreate(t.Context(),
			"viewer-1", "tenant-1", model.MembershipSourceInvite)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, model.MembershipSourceSignup, second.Source)
	})

	t.Run("should separate memberships per tenant", func(t *testing.T) {
		memberships := manager.NewMembershipManager(mock.NewInMemoryRepository())

		a, err := memberships.GetOrCreate(t.Context(),
			"viewer-1", "tenant-1", model.MembershipSourceSignup)
		require.NoError(t, err)

		b, err := memberships.GetOrCreate(t.Context(),
			"viewer-1", "tenant-2", model.MembershipSourceSignup)
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("should reject an unknown source", func(t *testing.T) {
		memberships := manager.NewMembershipManager(mock.NewInMemoryRepository())

		_, err := memberships.GetOrCreate(t.Context(),
			"viewer-1", "tenant-1", model.MembershipSource("referral"))

		assert.ErrorIs(t, err, model.ErrInvalidMembershipSource)
	})
}

func TestMembershipSetStatus(t *testing.T) {
	setup := func(t *testing.T) *manager.MembershipManager {
		t.Helper()

		memberships := manager.NewMembershipManager(mock.NewInMemoryRepository())

		_, err := memberships.GetOrCreate(t.Context(),
			"viewer-1", "tenant-1", model.MembershipSourcePurchase)
		require.NoError(t, err)

		return memberships
	}

	t.Run("should block an active membership", func(t *testing.T) {
		memberships := setup(t)

		membership, err := memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatusBlocked)

		require.NoError(t, err)
		assert.Equal(t, model.MembershipStatusBlocked, membership.Status)
	})

	t.Run("should deactivate an active membership", func(t *testing.T) {
		memberships := setup(t)

		membership, err := memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatusInactive)

		require.NoError(t, err)
		assert.Equal(t, model.MembershipStatusInactive, membership.Status)
	})

	t.Run("should reactivate a blocked membership", func(t *testing.T) {
		memberships := setup(t)

		_, err := memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatusBlocked)
		require.NoError(t, err)

		membership, err := memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatusActive)

		require.NoError(t, err)
		assert.Equal(t, model.MembershipStatusActive, membership.Status)
	})

	t.Run("should block an inactive membership", func(t *testing.T) {
		memberships := setup(t)

		_, err := memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatusInactive)
		require.NoError(t, err)

		membership, err := memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatusBlocked)

		require.NoError(t, err)
		assert.Equal(t, model.MembershipStatusBlocked, membership.Status)
	})

	t.Run("should not deactivate a blocked membership", func(t *testing.T) {
		memberships := setup(t)

		_, err := memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatusBlocked)
		require.NoError(t, err)

		_, err = memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatusInactive)

		assert.ErrorIs(t, err, manager.ErrInvalidTransition)
	})

	t.Run("should treat the current status as a no-op", func(t *testing.T) {
		memberships := setup(t)

		membership, err := memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatusActive)

		require.NoError(t, err)
		assert.Equal(t, model.MembershipStatusActive, membership.Status)
	})

	t.Run("should reject an unknown status", func(t *testing.T) {
		memberships := setup(t)

		_, err := memberships.SetStatus(t.Context(),
			"viewer-1", "tenant-1", model.MembershipStatus("paused"))

		assert.ErrorIs(t, err, manager.ErrInvalidStatus)
	})

	t.Run("should fail for a missing membership", func(t *testing.T) {
		memberships := setup(t)

		_, err := memberships.SetStatus(t.Context(),
			"viewer-9", "tenant-1", model.MembershipStatusBlocked)

		assert.ErrorIs(t, err, manager.ErrMembershipNotFound)
	})
}
