package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ledgerflow/txncore/internal/adapters/accountclient"
	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/internal/domain/services/limits"
	"github.com/ledgerflow/txncore/internal/domain/services/orchestrator"
	"github.com/ledgerflow/txncore/pkg/pagination"
)

type mockTxStore struct{ mock.Mock }

func (m *mockTxStore) Insert(ctx context.Context, tx *entities.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTxStore) Update(ctx context.Context, id uuid.UUID, fields repositories.TransactionUpdate) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *mockTxStore) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*entities.Transaction)
	return tx, args.Error(1)
}

func (m *mockTxStore) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*entities.Transaction)
	return tx, args.Error(1)
}

func (m *mockTxStore) FindByIdempotency(ctx context.Context, createdBy string, txType entities.TransactionType, key string) (*entities.Transaction, error) {
	args := m.Called(ctx, createdBy, txType, key)
	tx, _ := args.Get(0).(*entities.Transaction)
	return tx, args.Error(1)
}

func (m *mockTxStore) FindReversals(ctx context.Context, originalID uuid.UUID) ([]*entities.Transaction, error) {
	args := m.Called(ctx, originalID)
	txs, _ := args.Get(0).([]*entities.Transaction)
	return txs, args.Error(1)
}

func (m *mockTxStore) AggregateUsage(ctx context.Context, accountID string, txType entities.TransactionType, window entities.UsageWindow) (entities.UsageAggregate, error) {
	args := m.Called(ctx, accountID, txType, window)
	agg, _ := args.Get(0).(entities.UsageAggregate)
	return agg, args.Error(1)
}

func (m *mockTxStore) Page(ctx context.Context, filter repositories.TransactionFilter, page pagination.LegacyPagination) ([]*entities.Transaction, pagination.LegacyPageInfo, error) {
	args := m.Called(ctx, filter, page)
	txs, _ := args.Get(0).([]*entities.Transaction)
	info, _ := args.Get(1).(pagination.LegacyPageInfo)
	return txs, info, args.Error(2)
}

type mockAccountClient struct{ mock.Mock }

func (m *mockAccountClient) GetAccount(ctx context.Context, id, bearer string) (*accountclient.Account, error) {
	args := m.Called(ctx, id, bearer)
	acc, _ := args.Get(0).(*accountclient.Account)
	return acc, args.Error(1)
}

func (m *mockAccountClient) ApplyBalanceOp(ctx context.Context, accountID string, op accountclient.BalanceOp, bearer string) (*accountclient.BalanceOpResult, error) {
	args := m.Called(ctx, accountID, op, bearer)
	res, _ := args.Get(0).(*accountclient.BalanceOpResult)
	return res, args.Error(1)
}

type mockLimitStore struct{ mock.Mock }

func (m *mockLimitStore) FindActive(ctx context.Context, accountType string, txType entities.TransactionType) (*entities.TransactionLimit, error) {
	args := m.Called(ctx, accountType, txType)
	l, _ := args.Get(0).(*entities.TransactionLimit)
	return l, args.Error(1)
}

func (m *mockLimitStore) Upsert(ctx context.Context, limit *entities.TransactionLimit) error {
	args := m.Called(ctx, limit)
	return args.Error(0)
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) (string, error)                     { return "", assert.AnError }
func (noopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error { return nil }
func (noopCache) Del(ctx context.Context, key string) error                               { return nil }

func newTestOrchestrator(t *testing.T, txStore *mockTxStore, accountClient *mockAccountClient, limitStore *mockLimitStore) *orchestrator.Orchestrator {
	logger := zaptest.NewLogger(t)
	limitsSvc := limits.NewService(limitStore, txStore, noopCache{}, 30*time.Second, logger)
	return orchestrator.New(txStore, accountClient, limitsSvc, logger)
}

func TestTransactionHandlers_GetByID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid uuid", func(t *testing.T) {
		h := NewTransactionHandlers(nil, nil, &mockTxStore{}, newTestLogger())
		router := gin.New()
		router.GET("/transactions/:id", h.GetByID)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/transactions/not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("found", func(t *testing.T) {
		txStore := &mockTxStore{}
		id := uuid.New()
		tx := &entities.Transaction{ID: id, Type: entities.TransactionTypeDeposit, Status: entities.TransactionStatusCompleted, Amount: decimal.NewFromInt(10)}
		txStore.On("FindByID", mock.Anything, id).Return(tx, nil)

		h := NewTransactionHandlers(nil, nil, txStore, newTestLogger())
		router := gin.New()
		router.GET("/transactions/:id", h.GetByID)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/transactions/"+id.String(), nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		txStore.AssertExpectations(t)
	})
}

func TestTransactionHandlers_Submit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("rejects malformed body", func(t *testing.T) {
		h := NewTransactionHandlers(nil, nil, &mockTxStore{}, newTestLogger())
		router := gin.New()
		router.POST("/transactions", h.Submit)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString("not json"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("deposit succeeds end to end against mocked collaborators", func(t *testing.T) {
		txStore := &mockTxStore{}
		accountClient := &mockAccountClient{}
		limitStore := &mockLimitStore{}

		key := "idem-1"
		toAccount := "acc-2"

		txStore.On("FindByIdempotency", mock.Anything, "user-1", entities.TransactionTypeDeposit, key).Return(nil, nil)
		txStore.On("Insert", mock.Anything, mock.AnythingOfType("*entities.Transaction")).Return(nil)
		txStore.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		limitStore.On("FindActive", mock.Anything, mock.Anything, entities.TransactionTypeDeposit).Return(nil, nil)
		txStore.On("AggregateUsage", mock.Anything, toAccount, entities.TransactionTypeDeposit, mock.Anything).Return(entities.UsageAggregate{}, nil)
		accountClient.On("GetAccount", mock.Anything, toAccount, mock.Anything).
			Return(&accountclient.Account{ID: toAccount, Active: true, Currency: "USD"}, nil)
		accountClient.On("ApplyBalanceOp", mock.Anything, toAccount, mock.Anything, mock.Anything).
			Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED", ResultingBalance: decimal.NewFromInt(110)}, nil)

		orch := newTestOrchestrator(t, txStore, accountClient, limitStore)
		h := NewTransactionHandlers(orch, nil, txStore, newTestLogger())
		router := gin.New()
		router.Use(func(c *gin.Context) { c.Set("subject", "user-1"); c.Next() })
		router.POST("/transactions", h.Submit)

		body := `{"type":"DEPOSIT","toAccountId":"acc-2","amount":"10","idempotencyKey":"idem-1"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestTransactionHandlers_Reverse_RejectsInvalidUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewTransactionHandlers(nil, nil, &mockTxStore{}, newTestLogger())
	router := gin.New()
	router.POST("/transactions/:id/reversals", h.Reverse)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/transactions/not-a-uuid/reversals", bytes.NewBufferString(`{"idempotencyKey":"k"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
