package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/textmod/textmod-server/internal/models"
)

// ========== Tenant Methods ==========

// CreateTenant creates a new tenant
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}

	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	tenant.IsActive = true

	query := `
        INSERT INTO tenants (
            id, created_at, updated_at, name, description, monthly_quota,
            billing_email, is_active
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8
        )`

	_, err := s.getDB().ExecContext(ctx, query,
		tenant.ID, tenant.CreatedAt, tenant.UpdatedAt, tenant.Name,
		tenant.Description, tenant.MonthlyQuota, tenant.BillingEmail,
		tenant.IsActive,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetTenant gets a tenant by ID
func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `
        SELECT id, created_at, updated_at, name, description, monthly_quota,
               billing_email, is_active, suspended_at
        FROM tenants
        WHERE id = $1`

	tenant := &models.Tenant{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt, &tenant.Name,
		&tenant.Description, &tenant.MonthlyQuota, &tenant.BillingEmail,
		&tenant.IsActive, &tenant.SuspendedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return tenant, err
}

// UpdateTenant updates a tenant
func (s *PostgresStore) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	tenant.UpdatedAt = time.Now()

	query := `
        UPDATE tenants SET
            updated_at = $2, name = $3, description = $4, monthly_quota = $5,
            billing_email = $6, is_active = $7, suspended_at = $8
        WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		tenant.ID, tenant.UpdatedAt, tenant.Name, tenant.Description,
		tenant.MonthlyQuota, tenant.BillingEmail, tenant.IsActive,
		tenant.SuspendedAt,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ========== Subscription Methods ==========

// CreateSubscription creates a new subscription
func (s *PostgresStore) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `
        INSERT INTO subscriptions (
            id, created_at, updated_at, tenant_id, plan, status,
            monthly_quota, current_period_start, current_period_end
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9
        )`

	_, err := s.getDB().ExecContext(ctx, query,
		sub.ID, sub.CreatedAt, sub.UpdatedAt, sub.TenantID, sub.Plan,
		sub.Status, sub.MonthlyQuota, sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetActiveSubscription gets the most recent active subscription for a tenant
func (s *PostgresStore) GetActiveSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	query := `
        SELECT id, created_at, updated_at, tenant_id, plan, status,
               monthly_quota, current_period_start, current_period_end
        FROM subscriptions
        WHERE tenant_id = $1 AND status = $2
        ORDER BY created_at DESC
        LIMIT 1`

	sub := &models.Subscription{}
	err := s.getDB().QueryRowContext(ctx, query, tenantID, models.SubscriptionActive).Scan(
		&sub.ID, &sub.CreatedAt, &sub.UpdatedAt, &sub.TenantID, &sub.Plan,
		&sub.Status, &sub.MonthlyQuota, &sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return sub, err
}
