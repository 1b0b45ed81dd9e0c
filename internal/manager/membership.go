package manager

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/stagepass/stagepass/internal/errs"
	"github.com/stagepass/stagepass/internal/log"
	"github.com/stagepass/stagepass/internal/model"
	"github.com/stagepass/stagepass/internal/repo"
)

const (
	eventActivate   = "activate"
	eventBlock      = "block"
	eventDeactivate = "deactivate"
)

// statusEvents maps a target status to the state machine event reaching it.
var statusEvents = map[model.MembershipStatus]string{
	model.MembershipStatusActive:   eventActivate,
	model.MembershipStatusBlocked:  eventBlock,
	model.MembershipStatusInactive: eventDeactivate,
}

// membershipFSM builds the transition machine seeded at the current status.
// A blocked membership cannot be quietly deactivated; it has to be
// reactivated first so the unblock is an explicit step.
func membershipFSM(current model.MembershipStatus) *fsm.FSM {
	return fsm.NewFSM(
		string(current),
		fsm.Events{
			{
				Name: eventBlock,
				Src:  []string{string(model.MembershipStatusActive), string(model.MembershipStatusInactive)},
				Dst:  string(model.MembershipStatusBlocked),
			},
			{
				Name: eventDeactivate,
				Src:  []string{string(model.MembershipStatusActive)},
				Dst:  string(model.MembershipStatusInactive),
			},
			{
				Name: eventActivate,
				Src:  []string{string(model.MembershipStatusBlocked), string(model.MembershipStatusInactive)},
				Dst:  string(model.MembershipStatusActive),
			},
		},
		fsm.Callbacks{},
	)
}

// MembershipManager owns viewer-tenant membership rows.
type MembershipManager struct {
	repo repo.Repo
}

// NewMembershipManager creates and returns a new MembershipManager.
func NewMembershipManager(repository repo.Repo) *MembershipManager {
	return &MembershipManager{
		repo: repository,
	}
}

// GetOrCreate returns the membership linking viewer and tenant, creating an
// active one with the given source when absent. The unique index on
// (viewer_id, tenant_id) resolves concurrent creations.
func (m *MembershipManager) GetOrCreate(
	ctx context.Context,
	viewerID, tenantID string,
	source model.MembershipSource,
) (*model.TenantMembership, error) {
	err := source.Validate()
	if err != nil {
		return nil, err
	}

	membership, found, err := m.Get(ctx, viewerID, tenantID)
	if err != nil {
		return nil, err
	}

	if found {
		return membership, nil
	}

	membership = &model.TenantMembership{
		ID:       uuid.NewString(),
		ViewerID: viewerID,
		TenantID: tenantID,
		Source:   source,
		Status:   model.MembershipStatusActive,
	}

	err = m.repo.Create(ctx, membership)
	if err != nil {
		if errors.Is(err, repo.ErrUniqueConstraint) {
			membership, found, err = m.Get(ctx, viewerID, tenantID)
			if err != nil {
				return nil, err
			}

			if found {
				return membership, nil
			}
		}

		return nil, errs.Wrap(ErrCreatingMembership, err)
	}

	log.Info(ctx, "membership created",
		slog.String("viewerId", viewerID), slog.String("tenantId", tenantID),
		slog.String("source", string(source)))

	return membership, nil
}

// Get looks up the membership for a (viewer, tenant) pair.
func (m *MembershipManager) Get(ctx context.Context, viewerID, tenantID string) (*model.TenantMembership, bool, error) {
	membership := &model.TenantMembership{}

	query := repo.NewQuery().Where(
		repo.NewCompositeKeyGroup(repo.NewCompositeKey().
			Where(repo.ViewerIDField, viewerID).
			Where(repo.TenantIDField, tenantID)),
	)

	found, err := m.repo.First(ctx, membership, *query)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, nil
		}

		return nil, false, errs.Wrap(ErrGettingMembership, err)
	}

	return membership, found, nil
}

// ListByTenant returns the memberships of a tenant, newest first.
func (m *MembershipManager) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*model.TenantMembership, int, error) {
	var memberships []*model.TenantMembership

	query := repo.NewQuery().
		Where(repo.NewCompositeKeyGroup(
			repo.NewCompositeKey().Where(repo.TenantIDField, tenantID))).
		Order(repo.OrderField{Field: repo.CreatedField, Direction: repo.Desc}).
		SetLimit(limit).
		SetOffset(offset)

	count, err := m.repo.List(ctx, model.TenantMembership{}, &memberships, *query)
	if err != nil {
		return nil, 0, errs.Wrap(ErrGettingMembership, err)
	}

	return memberships, count, nil
}

// SetStatus moves the membership to the target status, enforcing the
// transition rules. Setting the current status again is a no-op.
func (m *MembershipManager) SetStatus(
	ctx context.Context,
	viewerID, tenantID string,
	status model.MembershipStatus,
) (*model.TenantMembership, error) {
	err := status.Validate()
	if err != nil {
		return nil, errs.Wrap(ErrInvalidStatus, err)
	}

	membership, found, err := m.Get(ctx, viewerID, tenantID)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, ErrMembershipNotFound
	}

	if membership.Status == status {
		return membership, nil
	}

	machine := membershipFSM(membership.Status)

	err = machine.Event(ctx, statusEvents[status])
	if err != nil {
		invalidEvent := fsm.InvalidEventError{}
		if errors.As(err, &invalidEvent) {
			return nil, errs.Wrap(ErrInvalidTransition, err)
		}

		return nil, errs.Wrap(ErrUpdatingMembership, err)
	}

	membership.Status = model.MembershipStatus(machine.Current())

	updated, err := m.repo.Patch(ctx, membership, *repo.NewQuery().Update("status"))
	if err != nil {
		return nil, errs.Wrap(ErrUpdatingMembership, err)
	}

	if !updated {
		return nil, ErrMembershipNotFound
	}

	return membership, nil
}
