package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageCounter is one row per (tenant, calendar day). The count only
// ever grows; the store increments it atomically.
type UsageCounter struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenantId" db:"tenant_id"`
	Day       time.Time `json:"day" db:"day"`
	Count     int64     `json:"count" db:"count"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
