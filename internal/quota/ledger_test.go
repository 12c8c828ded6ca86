package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textmod/textmod-server/internal/models"
	"github.com/textmod/textmod-server/internal/storage"
)

type fakeStore struct {
	sub        *models.Subscription
	used       int64
	sumErr     error
	increments int

	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeStore) GetActiveSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	if f.sub == nil {
		return nil, storage.ErrNotFound
	}
	return f.sub, nil
}

func (f *fakeStore) SumUsage(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	f.lastFrom, f.lastTo = from, to
	return f.used, f.sumErr
}

func (f *fakeStore) IncrementUsage(ctx context.Context, tenantID uuid.UUID, day time.Time) error {
	f.increments++
	return nil
}

func testTenant() *models.Tenant {
	return &models.Tenant{ID: uuid.New(), Name: "acme", IsActive: true}
}

func TestCheckUnderQuota(t *testing.T) {
	store := &fakeStore{used: 100}
	ledger := NewLedger(store, 1000)

	err := ledger.Check(context.Background(), testTenant(), time.Now())
	assert.NoError(t, err)
}

func TestCheckAtQuotaIsExceeded(t *testing.T) {
	store := &fakeStore{used: 5000}
	tenant := testTenant()
	tenant.MonthlyQuota = 5000
	ledger := NewLedger(store, 1000)

	err := ledger.Check(context.Background(), tenant, time.Now())

	var exceeded *ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, int64(5000), exceeded.Quota)
	assert.Equal(t, int64(5000), exceeded.Used)
}

func TestCheckOverQuota(t *testing.T) {
	store := &fakeStore{used: 1200}
	ledger := NewLedger(store, 1000)

	var exceeded *ExceededError
	err := ledger.Check(context.Background(), testTenant(), time.Now())
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, int64(1000), exceeded.Quota)
	assert.Equal(t, int64(1200), exceeded.Used)
}

func TestQuotaFromActiveSubscription(t *testing.T) {
	store := &fakeStore{
		used: 10,
		sub: &models.Subscription{
			Status:       models.SubscriptionActive,
			MonthlyQuota: 50000,
		},
	}
	ledger := NewLedger(store, 1000)

	used, limit, err := ledger.Usage(context.Background(), testTenant(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(10), used)
	assert.Equal(t, int64(50000), limit)
}

func TestTenantOverrideBeatsDefault(t *testing.T) {
	store := &fakeStore{used: 0}
	tenant := testTenant()
	tenant.MonthlyQuota = 250

	ledger := NewLedger(store, 1000)

	_, limit, err := ledger.Usage(context.Background(), tenant, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(250), limit)
}

func TestMonthWindowIsCalendarMonth(t *testing.T) {
	store := &fakeStore{used: 0}
	ledger := NewLedger(store, 1000)

	now := time.Date(2026, time.February, 14, 9, 30, 0, 0, time.UTC)
	_, _, err := ledger.Usage(context.Background(), testTenant(), now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), store.lastFrom)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), store.lastTo)
}

func TestCheckPropagatesStoreError(t *testing.T) {
	store := &fakeStore{sumErr: errors.New("connection refused")}
	ledger := NewLedger(store, 1000)

	err := ledger.Check(context.Background(), testTenant(), time.Now())
	require.Error(t, err)

	var exceeded *ExceededError
	assert.False(t, errors.As(err, &exceeded))
}

func TestRecordIncrements(t *testing.T) {
	store := &fakeStore{}
	ledger := NewLedger(store, 1000)

	require.NoError(t, ledger.Record(context.Background(), uuid.New(), time.Now()))
	assert.Equal(t, 1, store.increments)
}
