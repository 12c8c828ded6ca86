package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/textmod/textmod-server/internal/models"
)

// ========== API Key Methods ==========

// CreateAPIKey creates a new API key record
func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}

	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now()
	}

	query := `
        INSERT INTO api_keys (
            id, created_at, tenant_id, name, key_hash, key_prefix, is_active
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7
        )`

	_, err := s.getDB().ExecContext(ctx, query,
		key.ID, key.CreatedAt, key.TenantID, key.Name, key.KeyHash,
		key.KeyPrefix, key.IsActive,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetActiveAPIKeyByHash gets an active API key by its secret hash.
// Inactive keys are not returned, so a revoked key is indistinguishable
// from an unknown one.
func (s *PostgresStore) GetActiveAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := `
        SELECT id, created_at, tenant_id, name, key_hash, key_prefix,
               is_active, last_used_at
        FROM api_keys
        WHERE key_hash = $1 AND is_active = TRUE`

	key := &models.APIKey{}
	err := s.getDB().QueryRowContext(ctx, query, keyHash).Scan(
		&key.ID, &key.CreatedAt, &key.TenantID, &key.Name, &key.KeyHash,
		&key.KeyPrefix, &key.IsActive, &key.LastUsedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return key, err
}

// ListAPIKeys lists API keys for a tenant
func (s *PostgresStore) ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error) {
	query := `
        SELECT id, created_at, tenant_id, name, key_hash, key_prefix,
               is_active, last_used_at
        FROM api_keys
        WHERE tenant_id = $1
        ORDER BY created_at DESC`

	rows, err := s.getDB().QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		key := &models.APIKey{}
		err := rows.Scan(
			&key.ID, &key.CreatedAt, &key.TenantID, &key.Name, &key.KeyHash,
			&key.KeyPrefix, &key.IsActive, &key.LastUsedAt,
		)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// DeactivateAPIKey soft-revokes an API key. The row is kept so existing
// moderation logs retain their key reference.
func (s *PostgresStore) DeactivateAPIKey(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `UPDATE api_keys SET is_active = FALSE WHERE id = $1 AND tenant_id = $2`

	result, err := s.getDB().ExecContext(ctx, query, id, tenantID)
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

// TouchAPIKey updates an API key's last-used timestamp
func (s *PostgresStore) TouchAPIKey(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	query := `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`

	_, err := s.getDB().ExecContext(ctx, query, id, usedAt)
	return err
}
