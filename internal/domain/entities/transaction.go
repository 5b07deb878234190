package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement a Transaction represents.
type TransactionType string

const (
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeFee        TransactionType = "FEE"
	TransactionTypeInterest   TransactionType = "INTEREST"
	TransactionTypeReversal   TransactionType = "REVERSAL"
	TransactionTypeRefund     TransactionType = "REFUND"
)

// IsValid reports whether t is one of the recognized transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTransfer, TransactionTypeDeposit, TransactionTypeWithdrawal,
		TransactionTypeFee, TransactionTypeInterest, TransactionTypeReversal, TransactionTypeRefund:
		return true
	}
	return false
}

// TransactionStatus is the externally-visible lifecycle position.
type TransactionStatus string

const (
	TransactionStatusPending              TransactionStatus = "PENDING"
	TransactionStatusProcessing           TransactionStatus = "PROCESSING"
	TransactionStatusCompleted            TransactionStatus = "COMPLETED"
	TransactionStatusFailed               TransactionStatus = "FAILED"
	TransactionStatusFailedRequiresManual TransactionStatus = "FAILED_REQUIRES_MANUAL_ACTION"
	TransactionStatusReversed             TransactionStatus = "REVERSED"
	TransactionStatusCancelled            TransactionStatus = "CANCELLED"
)

// IsTerminal reports whether status admits no further mutation, except
// setting reversal-transaction-id on a COMPLETED row (invariant 2).
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusFailedRequiresManual,
		TransactionStatusReversed, TransactionStatusCancelled:
		return true
	}
	return false
}

// ProcessingState is the internal saga position, orthogonal to Status.
type ProcessingState string

const (
	ProcessingStateInitiated            ProcessingState = "INITIATED"
	ProcessingStateDebitApplied         ProcessingState = "DEBIT_APPLIED"
	ProcessingStateCreditApplied        ProcessingState = "CREDIT_APPLIED"
	ProcessingStateCompleted            ProcessingState = "COMPLETED"
	ProcessingStateCompensated          ProcessingState = "COMPENSATED"
	ProcessingStateManualActionRequired ProcessingState = "MANUAL_ACTION_REQUIRED"
)

// Transaction is the atomic unit persisted by the Transaction Store (C3).
type Transaction struct {
	ID                     uuid.UUID         `json:"id" db:"id"`
	Type                   TransactionType   `json:"type" db:"type"`
	Status                 TransactionStatus `json:"status" db:"status"`
	ProcessingState        ProcessingState   `json:"processingState" db:"processing_state"`
	FromAccount            *string           `json:"fromAccountId,omitempty" db:"from_account"`
	ToAccount              *string           `json:"toAccountId,omitempty" db:"to_account"`
	Amount                 decimal.Decimal   `json:"amount" db:"amount"`
	Currency               string            `json:"currency" db:"currency"`
	CreatedBy              string            `json:"createdBy" db:"created_by"`
	CreatedAt              time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time         `json:"updatedAt" db:"updated_at"`
	ProcessedAt            *time.Time        `json:"processedAt,omitempty" db:"processed_at"`
	OriginalTransactionID  *uuid.UUID        `json:"originalTransactionId,omitempty" db:"original_transaction_id"`
	ReversalTransactionID  *uuid.UUID        `json:"reversalTransactionId,omitempty" db:"reversal_transaction_id"`
	IdempotencyKey         *string           `json:"idempotencyKey,omitempty" db:"idempotency_key"`
	Description            *string           `json:"description,omitempty" db:"description"`
	Reference              *string           `json:"reference,omitempty" db:"reference"`
	FailureReason          *string           `json:"failureReason,omitempty" db:"failure_reason"`
}

// HasDebitLeg reports whether tx has an actual from-account to debit.
// A REVERSAL's legs are swapped from the original transaction's, so a
// reversal of a DEPOSIT has no debit leg and a reversal of a
// WITHDRAWAL has no credit leg — presence must come from the row
// itself, not a static per-type table.
func (tx *Transaction) HasDebitLeg() bool {
	return tx.FromAccount != nil
}

// HasCreditLeg reports whether tx has an actual to-account to credit.
func (tx *Transaction) HasCreditLeg() bool {
	return tx.ToAccount != nil
}

// RequiresFromAccount reports whether t must carry a from-account.
func (t TransactionType) RequiresFromAccount() bool {
	switch t {
	case TransactionTypeTransfer, TransactionTypeWithdrawal, TransactionTypeFee:
		return true
	}
	return false
}

// RequiresToAccount reports whether t must carry a to-account.
func (t TransactionType) RequiresToAccount() bool {
	switch t {
	case TransactionTypeTransfer, TransactionTypeDeposit, TransactionTypeInterest, TransactionTypeRefund:
		return true
	}
	return false
}

// LimitSide returns which account side the Limit Enforcer (C6) checks
// for this transaction type: "from" or "to".
func (t TransactionType) LimitSide() string {
	switch t {
	case TransactionTypeTransfer, TransactionTypeWithdrawal, TransactionTypeFee:
		return "from"
	default:
		return "to"
	}
}
