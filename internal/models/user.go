package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a dashboard user
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`

	PasswordHash string `json:"-" db:"password_hash"`

	IsAdmin  bool `json:"isAdmin" db:"is_admin"`
	IsActive bool `json:"isActive" db:"is_active"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	TenantID uuid.UUID `json:"tenantId" db:"tenant_id"`
}

// APIKey represents an API credential scoped to a tenant.
// The raw secret is never stored; only its SHA-256 hash is kept and the
// raw value is returned to the caller exactly once, at creation.
type APIKey struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	TenantID uuid.UUID `json:"tenantId" db:"tenant_id"`

	Name      string `json:"name" db:"name"`
	KeyHash   string `json:"-" db:"key_hash"`
	KeyPrefix string `json:"keyPrefix" db:"key_prefix"`

	IsActive   bool       `json:"isActive" db:"is_active"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty" db:"last_used_at"`
}
