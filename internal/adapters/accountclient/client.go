// Package accountclient implements C4, the Account-Balance Client: a
// narrow HTTP client to the Account Service. Every method is
// idempotent by construction and every failure is categorized so C5
// (pkg/resilience) can decide what to retry.
package accountclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerflow/txncore/pkg/errors"
)

// Account mirrors the Account Service's getAccount response.
type Account struct {
	ID              string           `json:"id"`
	OwnerID         string           `json:"ownerId"`
	AccountType     string           `json:"accountType"`
	Balance         decimal.Decimal  `json:"balance"`
	AvailableCredit *decimal.Decimal `json:"availableCredit,omitempty"`
	Active          bool             `json:"active"`
	Currency        string           `json:"currency"`
}

// BalanceOp is the signed delta request applyBalanceOp sends.
// OperationID is synthesized deterministically by the orchestrator
// per leg (transactionId + ":debit" / ":credit"), making every call
// safe to retry.
type BalanceOp struct {
	OperationID   string          `json:"operationId"`
	TransactionID string          `json:"transactionId"`
	Delta         decimal.Decimal `json:"delta"`
	Reason        string          `json:"reason"`
	AllowNegative bool            `json:"allowNegative"`
}

// BalanceOpResult is the Account Service's applyBalanceOp response.
type BalanceOpResult struct {
	Applied          bool            `json:"applied"`
	Status           string          `json:"status"` // APPLIED | REJECTED | REPLAYED
	ResultingBalance decimal.Decimal `json:"resultingBalance"`
}

// Config configures the HTTP transport to the Account Service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client speaks the narrow getAccount/applyBalanceOp contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GetAccount fetches the account identified by id, forwarding bearer
// verbatim so the Account Service sees the same principal.
func (c *Client) GetAccount(ctx context.Context, id, bearer string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/accounts/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", bearer)

	var account Account
	if err := c.do(req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ApplyBalanceOp applies op against accountId. A retry with the same
// op.OperationID returns {applied=false, status=REPLAYED} without a
// second mutation (§4.4).
func (c *Client) ApplyBalanceOp(ctx context.Context, accountID string, op BalanceOp, bearer string) (*BalanceOpResult, error) {
	body, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/accounts/"+accountID+"/balance-ops", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", bearer)
	req.Header.Set("Content-Type", "application/json")

	var result BalanceOpResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return errors.UpstreamUnavailable("account-service").WithDetail("category", "TIMEOUT")
		}
		return errors.UpstreamUnavailable("account-service").WithDetail("category", "NETWORK")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.UpstreamUnavailable("account-service").WithDetail("category", "NETWORK")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.UpstreamUnavailable("account-service").WithDetail("category", "HTTP_429")
	case resp.StatusCode >= 500:
		return errors.UpstreamUnavailable("account-service").WithDetail("category", "REMOTE_5XX")
	case resp.StatusCode >= 400:
		return errors.UpstreamRejected(fmt.Sprintf("account service returned %d: %s", resp.StatusCode, string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode account service response: %w", err)
	}
	return nil
}
