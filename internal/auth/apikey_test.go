package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textmod/textmod-server/internal/models"
	"github.com/textmod/textmod-server/internal/storage"
	"github.com/textmod/textmod-server/pkg/crypto"
)

type fakeKeyStore struct {
	mu      sync.Mutex
	keys    map[string]*models.APIKey
	tenants map[uuid.UUID]*models.Tenant
	touched int
}

func newFakeKeyStore() *fakeKeyStore {
	return &fakeKeyStore{
		keys:    make(map[string]*models.APIKey),
		tenants: make(map[uuid.UUID]*models.Tenant),
	}
}

func (f *fakeKeyStore) GetActiveAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.keys[keyHash]
	if !ok || !key.IsActive {
		return nil, storage.ErrNotFound
	}
	return key, nil
}

func (f *fakeKeyStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tenant, ok := f.tenants[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return tenant, nil
}

func (f *fakeKeyStore) TouchAPIKey(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched++
	return nil
}

func (f *fakeKeyStore) touchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

// addKey registers a tenant and an API key, returning the raw secret
func (f *fakeKeyStore) addKey(t *testing.T, active bool, tenantActive bool) (string, *models.APIKey) {
	t.Helper()

	tenant := &models.Tenant{ID: uuid.New(), Name: "acme", IsActive: tenantActive}
	f.tenants[tenant.ID] = tenant

	secret, key, err := GenerateAPIKey(tenant.ID, "test key")
	require.NoError(t, err)
	key.IsActive = active
	f.keys[key.KeyHash] = key

	return secret, key
}

func TestResolveActiveKey(t *testing.T) {
	store := newFakeKeyStore()
	secret, key := store.addKey(t, true, true)

	resolver := NewResolver(store)
	tenant, resolved, err := resolver.Resolve(context.Background(), secret)
	require.NoError(t, err)

	assert.Equal(t, key.TenantID, tenant.ID)
	assert.Equal(t, key.ID, resolved.ID)
}

func TestResolveUpdatesLastUsed(t *testing.T) {
	store := newFakeKeyStore()
	secret, _ := store.addKey(t, true, true)

	resolver := NewResolver(store)
	_, _, err := resolver.Resolve(context.Background(), secret)
	require.NoError(t, err)

	// The last-used update runs in the background
	assert.Eventually(t, func() bool {
		return store.touchCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestResolveFailures(t *testing.T) {
	store := newFakeKeyStore()
	inactiveSecret, _ := store.addKey(t, false, true)
	suspendedSecret, _ := store.addKey(t, true, false)

	resolver := NewResolver(store)

	tests := []struct {
		name   string
		secret string
	}{
		{"empty secret", ""},
		{"unknown secret", "tm_definitely-not-a-key"},
		{"deactivated key", inactiveSecret},
		{"inactive tenant", suspendedSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := resolver.Resolve(context.Background(), tt.secret)
			// Every failure mode yields the same error so callers
			// cannot probe for key existence
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	tenantID := uuid.New()

	secret, key, err := GenerateAPIKey(tenantID, "production")
	require.NoError(t, err)

	assert.Equal(t, tenantID, key.TenantID)
	assert.Equal(t, "production", key.Name)
	assert.True(t, key.IsActive)

	// Only the hash is stored, and it matches the raw secret
	assert.Equal(t, crypto.HashSHA256(secret), key.KeyHash)
	assert.NotContains(t, key.KeyHash, secret)

	// The prefix is a short display hint, not the secret
	assert.Equal(t, secret[:11], key.KeyPrefix)
	assert.True(t, len(secret) > len(key.KeyPrefix))
}

func TestGeneratedSecretsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		secret, _, err := GenerateAPIKey(uuid.New(), "k")
		require.NoError(t, err)
		assert.False(t, seen[secret])
		seen[secret] = true
	}
}
