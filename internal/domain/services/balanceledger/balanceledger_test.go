package balanceledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/txncore/internal/domain/entities"
)

func TestOp_RejectedWhenAccountWouldGoNegative(t *testing.T) {
	account := &entities.Account{
		ID:      "acc-1",
		Balance: decimal.NewFromInt(50),
		Active:  true,
	}
	delta := decimal.NewFromInt(-100)

	record := entities.BalanceOperation{
		AccountID: account.ID,
		Delta:     delta,
	}
	allowed := account.CanGoNegativeBy(delta.Neg())

	require.False(t, allowed)
	assert.Equal(t, "acc-1", record.AccountID)
}

func TestOp_AllowedWithinCreditLimit(t *testing.T) {
	credit := decimal.NewFromInt(200)
	account := &entities.Account{
		ID:              "acc-2",
		AccountType:     entities.AccountTypeCredit,
		Balance:         decimal.NewFromInt(50),
		AvailableCredit: &credit,
		Active:          true,
	}
	delta := decimal.NewFromInt(-100)

	assert.True(t, account.CanGoNegativeBy(delta.Neg()))
}

func TestReplayedOperation_DoesNotReapplyBalance(t *testing.T) {
	existing := &entities.BalanceOperation{
		AccountID:        "acc-1",
		OperationID:      "tx-1:debit",
		Applied:          true,
		Status:           entities.BalanceOpStatusApplied,
		ResultingBalance: decimal.NewFromInt(40),
	}

	replayed := *existing
	replayed.Applied = false
	replayed.Status = entities.BalanceOpStatusReplayed

	assert.False(t, replayed.Applied)
	assert.Equal(t, entities.BalanceOpStatusReplayed, replayed.Status)
	assert.True(t, replayed.ResultingBalance.Equal(existing.ResultingBalance))
}
