package limits

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/domain/entities"
)

type mockLimitRepo struct{ mock.Mock }

func (m *mockLimitRepo) FindActive(ctx context.Context, accountType string, txType entities.TransactionType) (*entities.TransactionLimit, error) {
	args := m.Called(ctx, accountType, txType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TransactionLimit), args.Error(1)
}

func (m *mockLimitRepo) Upsert(ctx context.Context, limit *entities.TransactionLimit) error {
	args := m.Called(ctx, limit)
	return args.Error(0)
}

type mockUsageRepo struct{ mock.Mock }

func (m *mockUsageRepo) AggregateUsage(ctx context.Context, accountID string, txType entities.TransactionType, window entities.UsageWindow) (entities.UsageAggregate, error) {
	args := m.Called(ctx, accountID, txType, window)
	return args.Get(0).(entities.UsageAggregate), args.Error(1)
}

type fakeCache struct {
	store map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string]string{}} }

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	return c.store[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	switch v := value.(type) {
	case string:
		c.store[key] = v
	case []byte:
		c.store[key] = string(v)
	}
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestEnforce_NoLimitConfigured(t *testing.T) {
	limitRepo := &mockLimitRepo{}
	usageRepo := &mockUsageRepo{}
	limitRepo.On("FindActive", mock.Anything, "CHECKING", entities.TransactionTypeTransfer).Return(nil, nil)

	svc := NewService(limitRepo, usageRepo, newFakeCache(), 30*time.Second, zap.NewNop())
	err := svc.Enforce(context.Background(), "CHECKING", "acc-1", entities.TransactionTypeTransfer, dec("100.00"))

	require.NoError(t, err)
	usageRepo.AssertNotCalled(t, "AggregateUsage")
}

func TestEnforce_PerTxLimitExceeded(t *testing.T) {
	limitRepo := &mockLimitRepo{}
	usageRepo := &mockUsageRepo{}
	perTx := dec("500.00")
	limitRepo.On("FindActive", mock.Anything, mock.Anything, mock.Anything).Return(&entities.TransactionLimit{
		Active: true, PerTxLimit: &perTx,
	}, nil)

	svc := NewService(limitRepo, usageRepo, newFakeCache(), 30*time.Second, zap.NewNop())
	err := svc.Enforce(context.Background(), "CHECKING", "acc-1", entities.TransactionTypeWithdrawal, dec("501.00"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "per-transaction limit")
}

func TestEnforce_DailyLimitExceeded(t *testing.T) {
	limitRepo := &mockLimitRepo{}
	usageRepo := &mockUsageRepo{}
	daily := dec("1000.00")
	limitRepo.On("FindActive", mock.Anything, mock.Anything, mock.Anything).Return(&entities.TransactionLimit{
		Active: true, DailyLimit: &daily,
	}, nil)
	usageRepo.On("AggregateUsage", mock.Anything, "acc-1", entities.TransactionTypeWithdrawal, entities.UsageWindowDay).
		Return(entities.UsageAggregate{SumAmount: dec("900.00"), Count: 3}, nil)

	svc := NewService(limitRepo, usageRepo, newFakeCache(), 30*time.Second, zap.NewNop())
	err := svc.Enforce(context.Background(), "CHECKING", "acc-1", entities.TransactionTypeWithdrawal, dec("200.00"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily")
}

func TestFindActive_CachesResult(t *testing.T) {
	limitRepo := &mockLimitRepo{}
	usageRepo := &mockUsageRepo{}
	perTx := dec("500.00")
	limitRepo.On("FindActive", mock.Anything, "CHECKING", entities.TransactionTypeTransfer).
		Return(&entities.TransactionLimit{Active: true, PerTxLimit: &perTx}, nil).Once()

	svc := NewService(limitRepo, usageRepo, newFakeCache(), 30*time.Second, zap.NewNop())

	first, err := svc.FindActive(context.Background(), "CHECKING", entities.TransactionTypeTransfer)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.FindActive(context.Background(), "CHECKING", entities.TransactionTypeTransfer)
	require.NoError(t, err)
	require.NotNil(t, second)

	limitRepo.AssertNumberOfCalls(t, "FindActive", 1)
}
