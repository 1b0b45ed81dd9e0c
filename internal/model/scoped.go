package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// TenantScoped is the common subset every tenant-scoped row carries. AppID
// duplicates the owning tenant's partition key for query convenience; the
// Pro-activation cascade is the only writer that touches it out-of-band.
type TenantScoped struct {
	TenantID string `gorm:"type:varchar(36);not null;index"`
	AppID    string `gorm:"type:varchar(255);not null;index"`
}

type Event struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Name     string    `gorm:"type:varchar(255);not null"`
	StartsAt time.Time `gorm:""`
	AutoTimeModel
}

func (Event) TableName() string { return "events" }

type Ticket struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	EventID string `gorm:"type:varchar(36);not null;index"`
	Code    string `gorm:"type:varchar(64);not null"`
	AutoTimeModel
}

func (Ticket) TableName() string { return "tickets" }

type Order struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	BuyerID    string `gorm:"type:varchar(36);index"`
	TotalCents int64  `gorm:"not null;default:0"`
	AutoTimeModel
}

func (Order) TableName() string { return "orders" }

type Cart struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	BuyerID string `gorm:"type:varchar(36);index"`
	AutoTimeModel
}

func (Cart) TableName() string { return "carts" }

type BillingPlan struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Name string `gorm:"type:varchar(255);not null"`
	AutoTimeModel
}

func (BillingPlan) TableName() string { return "billing_plans" }

type Wallet struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	BalanceCents int64 `gorm:"not null;default:0"`
	AutoTimeModel
}

func (Wallet) TableName() string { return "wallets" }

type Transaction struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	AmountCents int64 `gorm:"not null"`
	AutoTimeModel
}

func (Transaction) TableName() string { return "transactions" }

type Invoice struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Number string `gorm:"type:varchar(64);not null"`
	AutoTimeModel
}

func (Invoice) TableName() string { return "invoices" }

type Subscription struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	PlanID string `gorm:"type:varchar(36);index"`
	AutoTimeModel
}

func (Subscription) TableName() string { return "subscriptions" }

type AuditLog struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Action string `gorm:"type:varchar(255);not null"`
	AutoTimeModel
}

func (AuditLog) TableName() string { return "audit_logs" }

type Allocation struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	EventID  string `gorm:"type:varchar(36);index"`
	Capacity int    `gorm:"not null;default:0"`
	AutoTimeModel
}

func (Allocation) TableName() string { return "allocations" }

type AccessGrant struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	GranteeID string `gorm:"type:varchar(36);index"`
	AutoTimeModel
}

func (AccessGrant) TableName() string { return "access_grants" }

type Buyer struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Email string `gorm:"type:varchar(255);index"`
	AutoTimeModel
}

func (Buyer) TableName() string { return "buyers" }

type Currency struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Code string `gorm:"type:varchar(8);not null"`
	AutoTimeModel
}

func (Currency) TableName() string { return "currencies" }

type PlatformSetting struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Key   string `gorm:"type:varchar(255);not null"`
	Value string `gorm:"type:text"`
	AutoTimeModel
}

func (PlatformSetting) TableName() string { return "platform_settings" }

type PaymentSetting struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Provider string `gorm:"type:varchar(255)"`
	AutoTimeModel
}

func (PaymentSetting) TableName() string { return "payment_settings" }

type DomainSetting struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Hostname string `gorm:"type:varchar(255)"`
	AutoTimeModel
}

func (DomainSetting) TableName() string { return "domain_settings" }

type SMSSetting struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	SenderID string `gorm:"type:varchar(255)"`
	AutoTimeModel
}

func (SMSSetting) TableName() string { return "sms_settings" }

type EmailSetting struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	FromAddress string `gorm:"type:varchar(255)"`
	AutoTimeModel
}

func (EmailSetting) TableName() string { return "email_settings" }

type GatewaySetting struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Endpoint string `gorm:"type:varchar(255)"`
	AutoTimeModel
}

func (GatewaySetting) TableName() string { return "gateway_settings" }

type StreamingSession struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	EventID string `gorm:"type:varchar(36);index"`
	AutoTimeModel
}

func (StreamingSession) TableName() string { return "streaming_sessions" }

type ChatMessage struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	Body string `gorm:"type:text"`
	AutoTimeModel
}

func (ChatMessage) TableName() string { return "chat_messages" }

type UserPreference struct {
	ID string `gorm:"type:varchar(36);primaryKey"`
	TenantScoped
	ViewerID string `gorm:"type:varchar(36);index"`
	AutoTimeModel
}

func (UserPreference) TableName() string { return "user_preferences" }

// ScopedTablers enumerates every tenant-scoped model in a fixed order. The
// cascade's built-in table list and the connection's model registration are
// both derived from it, so the two can never drift apart.
func ScopedTablers() []schema.Tabler {
	return []schema.Tabler{
		Event{},
		Ticket{},
		Order{},
		Cart{},
		BillingPlan{},
		Wallet{},
		Transaction{},
		Invoice{},
		Subscription{},
		AuditLog{},
		Allocation{},
		AccessGrant{},
		Buyer{},
		Currency{},
		PlatformSetting{},
		PaymentSetting{},
		DomainSetting{},
		SMSSetting{},
		EmailSetting{},
		GatewaySetting{},
		StreamingSession{},
		ChatMessage{},
		UserPreference{},
	}
}
