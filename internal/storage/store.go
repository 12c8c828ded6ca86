package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/textmod/textmod-server/internal/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidData  = errors.New("invalid data")
)

// Store defines the storage interface
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// Tenant methods
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error

	// Subscription methods
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	GetActiveSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)

	// API key methods
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetActiveAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error)
	DeactivateAPIKey(ctx context.Context, tenantID, id uuid.UUID) error
	TouchAPIKey(ctx context.Context, id uuid.UUID, usedAt time.Time) error

	// Usage counter methods
	IncrementUsage(ctx context.Context, tenantID uuid.UUID, day time.Time) error
	SumUsage(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error)

	// Moderation log methods
	CreateModerationLog(ctx context.Context, entry *models.ModerationLog) error
	GetModerationLog(ctx context.Context, tenantID, id uuid.UUID) (*models.ModerationLog, error)
	ListModerationLogs(ctx context.Context, filters ModerationLogFilters, limit, offset int) ([]*models.ModerationLog, int64, error)

	// Close the store
	Close() error
}

// ModerationLogFilters represents filters for moderation logs
type ModerationLogFilters struct {
	TenantID  *uuid.UUID
	Decision  *models.Decision
	TextHash  *string
	StartTime *time.Time
	EndTime   *time.Time
}
