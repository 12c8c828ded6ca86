package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/textmod/textmod-server/internal/models"
	"github.com/textmod/textmod-server/pkg/crypto"
)

// ErrInvalidKey is returned for every credential failure. Unknown,
// inactive and tenant-suspended keys are deliberately indistinguishable
// so callers cannot probe for key existence.
var ErrInvalidKey = errors.New("invalid API key")

const keySecretBytes = 24

// KeyStore is the slice of storage the resolver needs
type KeyStore interface {
	GetActiveAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	TouchAPIKey(ctx context.Context, id uuid.UUID, usedAt time.Time) error
}

// Resolver resolves raw API key secrets to tenants
type Resolver struct {
	store KeyStore
}

// NewResolver creates a new Resolver
func NewResolver(store KeyStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks up the tenant owning rawSecret. The secret is compared
// by SHA-256 hash only. The key's last-used timestamp is updated in the
// background; that update never fails the request.
func (r *Resolver) Resolve(ctx context.Context, rawSecret string) (*models.Tenant, *models.APIKey, error) {
	if rawSecret == "" {
		return nil, nil, ErrInvalidKey
	}

	key, err := r.store.GetActiveAPIKeyByHash(ctx, crypto.HashSHA256(rawSecret))
	if err != nil {
		return nil, nil, ErrInvalidKey
	}

	tenant, err := r.store.GetTenant(ctx, key.TenantID)
	if err != nil {
		return nil, nil, ErrInvalidKey
	}

	if !tenant.IsActive {
		return nil, nil, ErrInvalidKey
	}

	go r.touch(key.ID)

	return tenant, key, nil
}

// touch records key usage on a detached context so a caller disconnect
// cannot interrupt it
func (r *Resolver) touch(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.TouchAPIKey(ctx, id, time.Now()); err != nil {
		log.Debug().Err(err).Str("api_key_id", id.String()).Msg("Failed to update API key last-used timestamp")
	}
}

// GenerateAPIKey creates a new API key record for a tenant and returns
// the raw secret. This is the only place the raw secret ever exists;
// the record stores its hash and a short display prefix.
func GenerateAPIKey(tenantID uuid.UUID, name string) (string, *models.APIKey, error) {
	random, err := crypto.GenerateRandomString(keySecretBytes)
	if err != nil {
		return "", nil, err
	}

	secret := "tm_" + random

	key := &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		KeyHash:   crypto.HashSHA256(secret),
		KeyPrefix: secret[:11],
		IsActive:  true,
	}

	return secret, key, nil
}
