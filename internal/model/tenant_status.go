package model

import (
	"errors"
)

var ErrInvalidTenantStatus = errors.New("tenant status is not valid")

// TenantStatus represents the status of the tenant. Tenants are never
// physically deleted; StatusDeleted models soft deletion.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusDeleted   TenantStatus = "deleted"
)

var validTenantStatuses = map[TenantStatus]struct{}{
	TenantStatusActive:    {},
	TenantStatusSuspended: {},
	TenantStatusDeleted:   {},
}

// Validate validates the given status of the tenant.
// Returns an error if the status is invalid.
func (s TenantStatus) Validate() error {
	if _, ok := validTenantStatuses[s]; !ok {
		return ErrInvalidTenantStatus
	}

	return nil
}
