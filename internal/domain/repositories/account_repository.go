package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ledgerflow/txncore/internal/domain/entities"
)

// AccountRepository is the Account Service's own store — the
// authoritative owner of balance state that C4 (Account-Balance
// Client) fronts for the Transaction Service.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*entities.Account, error)

	// FindByIDForUpdate locks the row for the duration of the enclosing
	// database transaction, the same SELECT ... FOR UPDATE contract
	// TransactionRepository.FindByIDForUpdate uses.
	FindByIDForUpdate(ctx context.Context, id string) (*entities.Account, error)

	UpdateBalance(ctx context.Context, id string, newBalance decimal.Decimal) error
}
