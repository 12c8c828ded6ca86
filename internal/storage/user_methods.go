package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/textmod/textmod-server/internal/models"
)

// ========== User Methods ==========

// CreateUser creates a new user
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
        INSERT INTO users (
            id, created_at, updated_at, email, name, password_hash,
            is_admin, is_active, tenant_id
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9
        )`

	_, err := s.getDB().ExecContext(ctx, query,
		user.ID, user.CreatedAt, user.UpdatedAt, user.Email, user.Name,
		user.PasswordHash, user.IsAdmin, user.IsActive, user.TenantID,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetUser gets a user by ID
func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
        SELECT id, created_at, updated_at, email, name, password_hash,
               is_admin, is_active, last_login_at, tenant_id
        FROM users
        WHERE id = $1`

	user := &models.User{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Email, &user.Name,
		&user.PasswordHash, &user.IsAdmin, &user.IsActive, &user.LastLoginAt,
		&user.TenantID,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return user, err
}

// GetUserByEmail gets a user by email
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
        SELECT id, created_at, updated_at, email, name, password_hash,
               is_admin, is_active, last_login_at, tenant_id
        FROM users
        WHERE email = $1`

	user := &models.User{}
	err := s.getDB().QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Email, &user.Name,
		&user.PasswordHash, &user.IsAdmin, &user.IsActive, &user.LastLoginAt,
		&user.TenantID,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return user, err
}

// UpdateUserLastLogin updates a user's last login timestamp
func (s *PostgresStore) UpdateUserLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query, id, at)
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
