package model

import (
	"errors"
)

var (
	ErrInvalidMembershipSource = errors.New("membership source is not valid")
	ErrInvalidMembershipStatus = errors.New("membership status is not valid")
)

type (
	// MembershipSource records through which channel a viewer joined a tenant.
	MembershipSource string

	// MembershipStatus represents the state of a viewer's membership.
	MembershipStatus string
)

const (
	MembershipSourcePurchase MembershipSource = "purchase"
	MembershipSourceSignup   MembershipSource = "signup"
	MembershipSourceInvite   MembershipSource = "invite"
	MembershipSourceManual   MembershipSource = "manual"

	MembershipStatusActive   MembershipStatus = "active"
	MembershipStatusBlocked  MembershipStatus = "blocked"
	MembershipStatusInactive MembershipStatus = "inactive"
)

var validMembershipSources = map[MembershipSource]struct{}{
	MembershipSourcePurchase: {},
	MembershipSourceSignup:   {},
	MembershipSourceInvite:   {},
	MembershipSourceManual:   {},
}

var validMembershipStatuses = map[MembershipStatus]struct{}{
	MembershipStatusActive:   {},
	MembershipStatusBlocked:  {},
	MembershipStatusInactive: {},
}

func (s MembershipSource) Validate() error {
	if _, ok := validMembershipSources[s]; !ok {
		return ErrInvalidMembershipSource
	}

	return nil
}

func (s MembershipStatus) Validate() error {
	if _, ok := validMembershipStatuses[s]; !ok {
		return ErrInvalidMembershipStatus
	}

	return nil
}

// TenantMembership tracks which viewers belong to which tenant. One row per
// (viewer, tenant) pair; membership has no interaction with the cascade.
type TenantMembership struct {
	ID       string           `gorm:"type:varchar(36);primaryKey"`
	ViewerID string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_viewer_tenant"`
	TenantID string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_viewer_tenant"`
	Source   MembershipSource `gorm:"type:varchar(50);not null"`
	Status   MembershipStatus `gorm:"type:varchar(50);not null;default:'active'"`

	AutoTimeModel
}

func (m TenantMembership) TableName() string { return "tenant_memberships" }
