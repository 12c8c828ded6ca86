package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a tenant/organization
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`

	// MonthlyQuota overrides the plan quota when > 0
	MonthlyQuota int64 `json:"monthlyQuota" db:"monthly_quota"`

	// Billing
	BillingEmail string `json:"billingEmail,omitempty" db:"billing_email"`

	// Status
	IsActive    bool       `json:"isActive" db:"is_active"`
	SuspendedAt *time.Time `json:"suspendedAt,omitempty" db:"suspended_at"`
}

// Subscription statuses
const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Subscription represents a tenant's subscription to a plan
type Subscription struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	TenantID uuid.UUID `json:"tenantId" db:"tenant_id"`

	Plan         string `json:"plan" db:"plan"`
	Status       string `json:"status" db:"status"`
	MonthlyQuota int64  `json:"monthlyQuota" db:"monthly_quota"`

	CurrentPeriodStart time.Time `json:"currentPeriodStart" db:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd" db:"current_period_end"`
}

// IsCurrent reports whether the subscription is active
func (s *Subscription) IsCurrent() bool {
	return s != nil && s.Status == SubscriptionActive
}
