package accountclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ledgerflow/txncore/pkg/circuitbreaker"
	"github.com/ledgerflow/txncore/pkg/resilience"
	"github.com/ledgerflow/txncore/pkg/retry"
)

func noRetryConfig() resilience.Config {
	return resilience.Config{
		Deadline: 2 * time.Second,
		RetryPolicy: retry.Policy{
			MaxRetries:     0,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     time.Millisecond,
			Multiplier:     1,
		},
		Breaker: circuitbreaker.Config{
			MaxRequests: 3,
			Interval:    time.Second,
			Timeout:     time.Second,
		},
	}
}

func TestResilientClient_GetAccount_PassesThroughOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acc-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(Account{ID: "acc-1", Active: true, Currency: "USD", Balance: decimal.NewFromInt(100)})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	resilient := NewResilientClient(client, noRetryConfig(), zaptest.NewLogger(t))

	account, err := resilient.GetAccount(context.Background(), "acc-1", "Bearer tok")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)
	assert.True(t, account.Active)
}

func TestResilientClient_ApplyBalanceOp_PropagatesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	resilient := NewResilientClient(client, noRetryConfig(), zaptest.NewLogger(t))

	_, err := resilient.ApplyBalanceOp(context.Background(), "acc-1", BalanceOp{
		OperationID:   "op-1",
		TransactionID: "tx-1",
		Delta:         decimal.NewFromInt(-10),
	}, "Bearer tok")

	require.Error(t, err)
}

func TestResilientClient_GetAccount_Returns404AsAccountNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	resilient := NewResilientClient(client, noRetryConfig(), zaptest.NewLogger(t))

	_, err := resilient.GetAccount(context.Background(), "missing", "Bearer tok")
	require.Error(t, err)
}
