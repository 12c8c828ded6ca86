package storage

import (
	"context"
	"fmt"
)

// Schema migrations. All statements are idempotent so Migrate can run
// on every startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		monthly_quota BIGINT NOT NULL DEFAULT 0,
		billing_email TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		suspended_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS subscriptions (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		tenant_id UUID NOT NULL REFERENCES tenants (id),
		plan TEXT NOT NULL,
		status TEXT NOT NULL,
		monthly_quota BIGINT NOT NULL,
		current_period_start TIMESTAMPTZ NOT NULL,
		current_period_end TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_tenant ON subscriptions (tenant_id, status)`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login_at TIMESTAMPTZ,
		tenant_id UUID NOT NULL REFERENCES tenants (id)
	)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		tenant_id UUID NOT NULL REFERENCES tenants (id),
		name TEXT NOT NULL DEFAULT '',
		key_hash TEXT NOT NULL UNIQUE,
		key_prefix TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_used_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_tenant ON api_keys (tenant_id)`,

	`CREATE TABLE IF NOT EXISTS usage_counters (
		id UUID PRIMARY KEY,
		tenant_id UUID NOT NULL REFERENCES tenants (id),
		day DATE NOT NULL,
		count BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (tenant_id, day)
	)`,

	`CREATE TABLE IF NOT EXISTS moderation_logs (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		tenant_id UUID NOT NULL REFERENCES tenants (id),
		api_key_id UUID REFERENCES api_keys (id) ON DELETE SET NULL,
		provider TEXT NOT NULL,
		provider_model TEXT NOT NULL,
		text_hash TEXT NOT NULL,
		raw_response JSONB,
		scores JSONB NOT NULL,
		overall_score DOUBLE PRECISION NOT NULL,
		flagged BOOLEAN NOT NULL,
		threshold DOUBLE PRECISION NOT NULL,
		decision TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_moderation_logs_tenant_created ON moderation_logs (tenant_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_moderation_logs_text_hash ON moderation_logs (tenant_id, text_hash)`,
}

// Migrate applies the schema migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.getDB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed on: %s - %w", stmt, err)
		}
	}
	return nil
}
