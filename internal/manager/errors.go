package manager

import "errors"

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrDomainClaimed      = errors.New("primary domain already claimed by another tenant")
	ErrInvalidTransition  = errors.New("membership status transition not allowed")
	ErrInvalidStatus      = errors.New("status is not valid")
	ErrTenantNotPro       = errors.New("tenant is not on the pro plan")

	ErrCreatingTenant     = errors.New("failed to create tenant")
	ErrGettingTenant      = errors.New("failed to get tenant")
	ErrUpdatingTenant     = errors.New("failed to update tenant")
	ErrCreatingMembership = errors.New("failed to create membership")
	ErrGettingMembership  = errors.New("failed to get membership")
	ErrUpdatingMembership = errors.New("failed to update membership")
)
