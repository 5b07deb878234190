package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/pkg/pagination"
)

type mockTxRepo struct{ mock.Mock }

func (m *mockTxRepo) Insert(ctx context.Context, tx *entities.Transaction) error { return nil }
func (m *mockTxRepo) Update(ctx context.Context, id uuid.UUID, fields repositories.TransactionUpdate) error {
	return nil
}
func (m *mockTxRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	return nil, nil
}
func (m *mockTxRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	return nil, nil
}
func (m *mockTxRepo) FindByIdempotency(ctx context.Context, createdBy string, txType entities.TransactionType, key string) (*entities.Transaction, error) {
	return nil, nil
}
func (m *mockTxRepo) FindReversals(ctx context.Context, originalID uuid.UUID) ([]*entities.Transaction, error) {
	return nil, nil
}
func (m *mockTxRepo) AggregateUsage(ctx context.Context, accountID string, txType entities.TransactionType, window entities.UsageWindow) (entities.UsageAggregate, error) {
	return entities.UsageAggregate{}, nil
}
func (m *mockTxRepo) Page(ctx context.Context, filter repositories.TransactionFilter, page pagination.LegacyPagination) ([]*entities.Transaction, pagination.LegacyPageInfo, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]*entities.Transaction), pagination.LegacyPageInfo{}, args.Error(2)
}

type mockDriver struct{ mock.Mock }

func (m *mockDriver) Drive(ctx context.Context, tx *entities.Transaction, bearer string) (*entities.Transaction, error) {
	args := m.Called(ctx, tx, bearer)
	return tx, args.Error(1)
}

func TestSweep_ReplaysOnlyStaleTransactions(t *testing.T) {
	txRepo := &mockTxRepo{}
	driver := &mockDriver{}
	logger := zap.NewNop()

	stale := &entities.Transaction{ID: uuid.New(), Status: entities.TransactionStatusPending, CreatedAt: time.Now().Add(-time.Hour)}
	fresh := &entities.Transaction{ID: uuid.New(), Status: entities.TransactionStatusPending, CreatedAt: time.Now()}

	txRepo.On("Page", mock.Anything, mock.MatchedBy(func(f repositories.TransactionFilter) bool {
		return f.Status != nil && *f.Status == entities.TransactionStatusPending
	}), mock.Anything).Return([]*entities.Transaction{stale, fresh}, pagination.LegacyPageInfo{}, nil)
	txRepo.On("Page", mock.Anything, mock.MatchedBy(func(f repositories.TransactionFilter) bool {
		return f.Status != nil && *f.Status == entities.TransactionStatusProcessing
	}), mock.Anything).Return([]*entities.Transaction{}, pagination.LegacyPageInfo{}, nil)

	driver.On("Drive", mock.Anything, stale, mock.Anything).Return(stale, nil)

	cfg := DefaultConfig()
	cfg.StuckAfter = 2 * time.Minute

	sw := New(txRepo, driver, cfg, "Bearer system-token", logger)
	sw.sweep()
	sw.wg.Wait()

	driver.AssertCalled(t, "Drive", mock.Anything, stale, mock.Anything)
	driver.AssertNotCalled(t, "Drive", mock.Anything, fresh, mock.Anything)
}

func TestStartStop_TogglesRunningState(t *testing.T) {
	txRepo := &mockTxRepo{}
	driver := &mockDriver{}
	logger := zap.NewNop()

	txRepo.On("Page", mock.Anything, mock.Anything, mock.Anything).Return([]*entities.Transaction{}, pagination.LegacyPageInfo{}, nil)

	cfg := DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.ShutdownTimeout = time.Second

	sw := New(txRepo, driver, cfg, "Bearer system-token", logger)
	require.NoError(t, sw.Start())
	require.Error(t, sw.Start())
	require.NoError(t, sw.Stop())
}
