package accountclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/txncore/pkg/errors"
)

func TestGetAccount_Success(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Account{ID: "acc-1", Balance: decimal.NewFromInt(100), Active: true, Currency: "USD"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	account, err := client.GetAccount(context.Background(), "acc-1", "Bearer tok123")

	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestApplyBalanceOp_Replayed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(BalanceOpResult{Applied: false, Status: "REPLAYED", ResultingBalance: decimal.NewFromInt(50)})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	result, err := client.ApplyBalanceOp(context.Background(), "acc-1", BalanceOp{
		OperationID:   "tx-1:debit",
		TransactionID: "tx-1",
		Delta:         decimal.NewFromInt(-10),
		Reason:        "transfer",
	}, "Bearer tok123")

	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, "REPLAYED", result.Status)
}

func TestDo_Remote5xxIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.GetAccount(context.Background(), "acc-1", "Bearer tok123")

	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestDo_Remote4xxIsNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.GetAccount(context.Background(), "acc-1", "Bearer tok123")

	require.Error(t, err)
	assert.False(t, errors.IsRetryable(err))
}
