package model

import (
	"time"
)

// PublicAppID is the shared partition key every tenant starts on. Pro
// activation replaces it with a key unique to the tenant.
const PublicAppID = "public"

// Tenant is a producer's organizational boundary. AppID is the partition key
// denormalized onto every tenant-scoped row; it is mutated only by the Pro
// activation flow.
type Tenant struct {
	ID             string       `gorm:"type:varchar(36);primaryKey"`
	UserID         string       `gorm:"type:varchar(36);not null;uniqueIndex"`
	AppID          string       `gorm:"type:varchar(255);not null;default:'public'"`
	IsPro          bool         `gorm:"not null;default:false"`
	ProActivatedAt *time.Time   `gorm:""`
	PrimaryDomain  *string      `gorm:"type:varchar(255);uniqueIndex"`
	Status         TenantStatus `gorm:"type:varchar(50);not null;default:'active'"`

	AutoTimeModel
}

func (t Tenant) TableName() string { return "tenants" }
