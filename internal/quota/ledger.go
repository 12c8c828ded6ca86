// Package quota enforces per-tenant monthly usage quotas over the
// usage counter rows in the store.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/textmod/textmod-server/internal/models"
	"github.com/textmod/textmod-server/internal/storage"
)

// ExceededError is returned when a tenant has used up its monthly
// quota. It carries the numbers for diagnostic reporting.
type ExceededError struct {
	Quota int64
	Used  int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("monthly quota exceeded: used %d of %d", e.Used, e.Quota)
}

// Store is the slice of storage the ledger needs
type Store interface {
	GetActiveSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
	SumUsage(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error)
	IncrementUsage(ctx context.Context, tenantID uuid.UUID, day time.Time) error
}

// Ledger tracks and enforces per-tenant monthly consumption. Check and
// Record are intentionally not atomic with respect to each other: a
// concurrent burst may admit a few requests past the nominal quota, an
// accepted tolerance bounded by the tenant's in-flight concurrency.
type Ledger struct {
	store          Store
	defaultMonthly int64
}

// NewLedger creates a Ledger. defaultMonthly applies to tenants without
// an active subscription or per-tenant override.
func NewLedger(store Store, defaultMonthly int64) *Ledger {
	return &Ledger{store: store, defaultMonthly: defaultMonthly}
}

// Check admits the request or returns an ExceededError. It runs before
// the provider call so a rejected request never pays for one.
func (l *Ledger) Check(ctx context.Context, tenant *models.Tenant, now time.Time) error {
	used, limit, err := l.Usage(ctx, tenant, now)
	if err != nil {
		return err
	}

	if used >= limit {
		return &ExceededError{Quota: limit, Used: used}
	}

	return nil
}

// Record increments the tenant's counter for the current day. Called
// only after a request fully succeeds so failed requests are never
// billed.
func (l *Ledger) Record(ctx context.Context, tenantID uuid.UUID, now time.Time) error {
	if err := l.store.IncrementUsage(ctx, tenantID, now.UTC()); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// Usage returns the tenant's summed current-month usage and its quota
func (l *Ledger) Usage(ctx context.Context, tenant *models.Tenant, now time.Time) (used, limit int64, err error) {
	limit, err = l.resolveQuota(ctx, tenant)
	if err != nil {
		return 0, 0, err
	}

	from, to := monthWindow(now)
	used, err = l.store.SumUsage(ctx, tenant.ID, from, to)
	if err != nil {
		return 0, 0, fmt.Errorf("sum usage: %w", err)
	}

	return used, limit, nil
}

// resolveQuota picks the quota from the active subscription, then the
// per-tenant override, then the configured default tier.
func (l *Ledger) resolveQuota(ctx context.Context, tenant *models.Tenant) (int64, error) {
	sub, err := l.store.GetActiveSubscription(ctx, tenant.ID)
	if err == nil && sub.IsCurrent() {
		return sub.MonthlyQuota, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("resolve quota: %w", err)
	}

	if tenant.MonthlyQuota > 0 {
		return tenant.MonthlyQuota, nil
	}

	return l.defaultMonthly, nil
}

// monthWindow returns [first-of-month, first-of-next-month) in UTC.
// Billing periods are naive calendar months, not rolling 30 days.
func monthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
