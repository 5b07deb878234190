package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	apperrors "github.com/ledgerflow/txncore/pkg/errors"
	"github.com/ledgerflow/txncore/pkg/logger"
)

type mockAccountRepo struct{ mock.Mock }

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*entities.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*entities.Account)
	return acc, args.Error(1)
}

func (m *mockAccountRepo) FindByIDForUpdate(ctx context.Context, id string) (*entities.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*entities.Account)
	return acc, args.Error(1)
}

func (m *mockAccountRepo) UpdateBalance(ctx context.Context, id string, newBalance decimal.Decimal) error {
	args := m.Called(ctx, id, newBalance)
	return args.Error(0)
}

func newTestLogger() *logger.Logger {
	return logger.New("error", "test")
}

func TestAccountHandlers_GetAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("found", func(t *testing.T) {
		repo := &mockAccountRepo{}
		account := &entities.Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Currency: "USD", Active: true}
		repo.On("FindByID", mock.Anything, "acc-1").Return(account, nil)

		h := NewAccountHandlers(repo, nil, newTestLogger())
		router := gin.New()
		router.GET("/accounts/:id", h.GetAccount)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		repo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &mockAccountRepo{}
		repo.On("FindByID", mock.Anything, "missing").Return(nil, apperrors.AccountNotFound("missing"))

		h := NewAccountHandlers(repo, nil, newTestLogger())
		router := gin.New()
		router.GET("/accounts/:id", h.GetAccount)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/accounts/missing", nil)
		router.ServeHTTP(w, req)

		assert.NotEqual(t, http.StatusOK, w.Code)
	})
}

func TestAccountHandlers_ApplyBalanceOp_RejectsZeroDelta(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewAccountHandlers(&mockAccountRepo{}, nil, newTestLogger())
	router := gin.New()
	router.POST("/accounts/:id/balance-ops", h.ApplyBalanceOp)

	body := `{"operationId":"op-1","transactionId":"tx-1","delta":0}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/accounts/acc-1/balance-ops", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandlers_ApplyBalanceOp_RejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewAccountHandlers(&mockAccountRepo{}, nil, newTestLogger())
	router := gin.New()
	router.POST("/accounts/:id/balance-ops", h.ApplyBalanceOp)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/accounts/acc-1/balance-ops", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountHandlers_SetBalance(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &mockAccountRepo{}
	newBalance := decimal.NewFromInt(500)
	account := &entities.Account{ID: "acc-1", Balance: newBalance, Active: true}
	repo.On("UpdateBalance", mock.Anything, "acc-1", newBalance).Return(nil)
	repo.On("FindByID", mock.Anything, "acc-1").Return(account, nil)

	h := NewAccountHandlers(repo, nil, newTestLogger())
	router := gin.New()
	router.PUT("/admin/accounts/:id/balance", h.SetBalance)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin/accounts/acc-1/balance", bytes.NewBufferString(`{"balance":"500"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}
