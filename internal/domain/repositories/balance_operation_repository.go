package repositories

import (
	"context"

	"github.com/ledgerflow/txncore/internal/domain/entities"
)

// BalanceOperationRepository is the Account-side persistence half of
// C9, the Balance-Op Ledger.
type BalanceOperationRepository interface {
	// FindByOperation returns the previously-recorded outcome for
	// (accountID, operationID), or nil if this operation has never
	// been applied.
	FindByOperation(ctx context.Context, accountID, operationID string) (*entities.BalanceOperation, error)

	// Insert records a new operation row. Callers must hold whatever
	// row lock the account update requires; the (account_id,
	// operation_id) primary key enforces write-once at the database.
	Insert(ctx context.Context, op *entities.BalanceOperation) error
}
