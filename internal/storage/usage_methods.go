package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ========== Usage Counter Methods ==========

// IncrementUsage atomically increments the usage counter for
// (tenant, day), creating the row if it does not exist. The increment
// happens store-side so concurrent requests never lose updates.
func (s *PostgresStore) IncrementUsage(ctx context.Context, tenantID uuid.UUID, day time.Time) error {
	query := `
        INSERT INTO usage_counters (id, tenant_id, day, count, updated_at)
        VALUES ($1, $2, $3, 1, $4)
        ON CONFLICT (tenant_id, day) DO UPDATE
        SET count = usage_counters.count + 1, updated_at = EXCLUDED.updated_at`

	_, err := s.getDB().ExecContext(ctx, query,
		uuid.New(), tenantID, day.Format("2006-01-02"), time.Now(),
	)

	return err
}

// SumUsage sums the usage counters for a tenant whose day falls in
// [from, to)
func (s *PostgresStore) SumUsage(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	query := `
        SELECT COALESCE(SUM(count), 0)
        FROM usage_counters
        WHERE tenant_id = $1 AND day >= $2 AND day < $3`

	var total int64
	err := s.getDB().QueryRowContext(ctx, query, tenantID,
		from.Format("2006-01-02"), to.Format("2006-01-02"),
	).Scan(&total)

	return total, err
}
