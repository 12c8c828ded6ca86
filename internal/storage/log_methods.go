package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/textmod/textmod-server/internal/models"
)

// ========== Moderation Log Methods ==========

// CreateModerationLog creates a moderation log entry. Logs are
// immutable; there is deliberately no update method.
func (s *PostgresStore) CreateModerationLog(ctx context.Context, entry *models.ModerationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
        INSERT INTO moderation_logs (
            id, created_at, tenant_id, api_key_id, provider, provider_model,
            text_hash, raw_response, scores, overall_score, flagged,
            threshold, decision
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var raw []byte
	if entry.RawResponse != nil {
		raw = entry.RawResponse
	}

	_, err := s.getDB().ExecContext(ctx, query,
		entry.ID, entry.CreatedAt, entry.TenantID, entry.APIKeyID,
		entry.Provider, entry.ProviderModel, entry.TextHash, raw,
		entry.Scores, entry.OverallScore, entry.Flagged, entry.Threshold,
		entry.Decision,
	)

	return err
}

// GetModerationLog gets a moderation log entry scoped to a tenant
func (s *PostgresStore) GetModerationLog(ctx context.Context, tenantID, id uuid.UUID) (*models.ModerationLog, error) {
	query := `
        SELECT id, created_at, tenant_id, api_key_id, provider, provider_model,
               text_hash, raw_response, scores, overall_score, flagged,
               threshold, decision
        FROM moderation_logs
        WHERE id = $1 AND tenant_id = $2`

	entry := &models.ModerationLog{}
	var raw []byte

	err := s.getDB().QueryRowContext(ctx, query, id, tenantID).Scan(
		&entry.ID, &entry.CreatedAt, &entry.TenantID, &entry.APIKeyID,
		&entry.Provider, &entry.ProviderModel, &entry.TextHash, &raw,
		&entry.Scores, &entry.OverallScore, &entry.Flagged, &entry.Threshold,
		&entry.Decision,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entry.RawResponse = raw

	return entry, nil
}

// ListModerationLogs lists moderation logs with filters
func (s *PostgresStore) ListModerationLogs(ctx context.Context, filters ModerationLogFilters, limit, offset int) ([]*models.ModerationLog, int64, error) {
	// Build query with filters
	query := "SELECT COUNT(*) FROM moderation_logs WHERE 1=1"
	args := []interface{}{}
	argCount := 0

	if filters.TenantID != nil {
		argCount++
		query += fmt.Sprintf(" AND tenant_id = $%d", argCount)
		args = append(args, *filters.TenantID)
	}

	if filters.Decision != nil {
		argCount++
		query += fmt.Sprintf(" AND decision = $%d", argCount)
		args = append(args, *filters.Decision)
	}

	if filters.TextHash != nil {
		argCount++
		query += fmt.Sprintf(" AND text_hash = $%d", argCount)
		args = append(args, *filters.TextHash)
	}

	if filters.StartTime != nil {
		argCount++
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filters.StartTime)
	}

	if filters.EndTime != nil {
		argCount++
		query += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, *filters.EndTime)
	}

	// Get count
	var count int64
	err := s.getDB().QueryRowContext(ctx, query, args...).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	// Get rows
	selectQuery := strings.Replace(query, "SELECT COUNT(*)",
		`SELECT id, created_at, tenant_id, api_key_id, provider, provider_model,
                text_hash, scores, overall_score, flagged, threshold, decision`, 1)

	argCount++
	selectQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argCount)
	args = append(args, limit)

	argCount++
	selectQuery += fmt.Sprintf(" OFFSET $%d", argCount)
	args = append(args, offset)

	rows, err := s.getDB().QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*models.ModerationLog
	for rows.Next() {
		entry := &models.ModerationLog{}

		err := rows.Scan(
			&entry.ID, &entry.CreatedAt, &entry.TenantID, &entry.APIKeyID,
			&entry.Provider, &entry.ProviderModel, &entry.TextHash,
			&entry.Scores, &entry.OverallScore, &entry.Flagged,
			&entry.Threshold, &entry.Decision,
		)
		if err != nil {
			return nil, 0, err
		}

		entries = append(entries, entry)
	}

	return entries, count, rows.Err()
}
