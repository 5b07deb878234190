package reversal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/pkg/errors"
)

func TestReverse_RejectsNonCompletedOriginal(t *testing.T) {
	original := &entities.Transaction{
		ID:     uuid.New(),
		Status: entities.TransactionStatusPending,
		Amount: decimal.NewFromInt(10),
	}
	_ = original

	err := validateReversible(original)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotReversible, err.(*errors.AppError).Code)
}

func TestReverse_RejectsAlreadyReversed(t *testing.T) {
	reversalID := uuid.New()
	original := &entities.Transaction{
		ID:                    uuid.New(),
		Status:                entities.TransactionStatusCompleted,
		ReversalTransactionID: &reversalID,
		Amount:                decimal.NewFromInt(10),
	}

	err := validateReversible(original)
	require.Error(t, err)
	assert.Equal(t, errors.CodeAlreadyReversed, err.(*errors.AppError).Code)
}

func TestReverse_AcceptsCompletedUnreversedOriginal(t *testing.T) {
	original := &entities.Transaction{
		ID:     uuid.New(),
		Status: entities.TransactionStatusCompleted,
		Amount: decimal.NewFromInt(10),
	}

	require.NoError(t, validateReversible(original))
}

func TestNewReversalTransaction_TransferSwapsBothLegs(t *testing.T) {
	from, to := "acc-from", "acc-to"
	original := &entities.Transaction{
		ID:          uuid.New(),
		Type:        entities.TransactionTypeTransfer,
		FromAccount: &from,
		ToAccount:   &to,
		Amount:      decimal.NewFromInt(10),
		Currency:    "USD",
	}

	reversal := newReversalTransaction(original, Request{Subject: "user-1"}, time.Now().UTC())

	require.True(t, reversal.HasDebitLeg())
	require.True(t, reversal.HasCreditLeg())
	assert.Equal(t, to, *reversal.FromAccount)
	assert.Equal(t, from, *reversal.ToAccount)
}

// A DEPOSIT original has no from-account, so its reversal — legs
// swapped — has no credit leg. Before HasDebitLeg/HasCreditLeg read
// the row's own account pointers, this row's single-sided shape made
// the orchestrator's runCreditLeg dereference a nil *tx.ToAccount.
func TestNewReversalTransaction_DepositOriginalHasNoCreditLeg(t *testing.T) {
	to := "acc-to"
	original := &entities.Transaction{
		ID:        uuid.New(),
		Type:      entities.TransactionTypeDeposit,
		ToAccount: &to,
		Amount:    decimal.NewFromInt(10),
		Currency:  "USD",
	}

	reversal := newReversalTransaction(original, Request{Subject: "user-1"}, time.Now().UTC())

	require.True(t, reversal.HasDebitLeg())
	require.False(t, reversal.HasCreditLeg())
	assert.Equal(t, to, *reversal.FromAccount)
	assert.Nil(t, reversal.ToAccount)
}

// A WITHDRAWAL original has no to-account, so its reversal has no
// debit leg — the runDebitLeg-side mirror of the deposit case above.
func TestNewReversalTransaction_WithdrawalOriginalHasNoDebitLeg(t *testing.T) {
	from := "acc-from"
	original := &entities.Transaction{
		ID:          uuid.New(),
		Type:        entities.TransactionTypeWithdrawal,
		FromAccount: &from,
		Amount:      decimal.NewFromInt(10),
		Currency:    "USD",
	}

	reversal := newReversalTransaction(original, Request{Subject: "user-1"}, time.Now().UTC())

	require.False(t, reversal.HasDebitLeg())
	require.True(t, reversal.HasCreditLeg())
	assert.Nil(t, reversal.FromAccount)
	assert.Equal(t, from, *reversal.ToAccount)
}

var _ = context.Background
