package accountclient

import (
	"context"

	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/pkg/resilience"
)

// ResilientClient wraps Client's two calls with C5 (pkg/resilience):
// every getAccount/applyBalanceOp call runs under a deadline, a
// retry-with-backoff policy for transient failures, and a circuit
// breaker that trips on a sustained failure rate. Satisfies
// orchestrator.AccountClient.
type ResilientClient struct {
	client  *Client
	getter  *resilience.Wrapper
	applier *resilience.Wrapper
}

// NewResilientClient wraps client with two independently-tripping
// breakers — getAccount and applyBalanceOp fail at different rates in
// practice (lookups are read-only, balance ops are the hot path) and
// should not share trip state.
func NewResilientClient(client *Client, cfg resilience.Config, logger *zap.Logger) *ResilientClient {
	return &ResilientClient{
		client:  client,
		getter:  resilience.New("account-service.getAccount", cfg, logger),
		applier: resilience.New("account-service.applyBalanceOp", cfg, logger),
	}
}

func (r *ResilientClient) GetAccount(ctx context.Context, id, bearer string) (*Account, error) {
	var account *Account
	err := r.getter.Call(ctx, func(callCtx context.Context) error {
		a, err := r.client.GetAccount(callCtx, id, bearer)
		if err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *ResilientClient) ApplyBalanceOp(ctx context.Context, accountID string, op BalanceOp, bearer string) (*BalanceOpResult, error) {
	var result *BalanceOpResult
	err := r.applier.Call(ctx, func(callCtx context.Context) error {
		res, err := r.client.ApplyBalanceOp(callCtx, accountID, op, bearer)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
