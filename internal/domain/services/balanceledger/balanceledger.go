// Package balanceledger implements C9's Account-side half: the
// idempotent apply(accountId, op) the Account Service's HTTP handler
// delegates to for every balance-op request the Transaction Service
// sends. Rebuilt from the vocabulary of the teacher's ledger package
// (whose service.go was not present in the retrieved pack, only its
// test) plus the balance-mutation SQL shape of
// internal/domain/services/transaction/service.go.
package balanceledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/internal/infrastructure/database"
	infrarepos "github.com/ledgerflow/txncore/internal/infrastructure/repositories"
	"github.com/ledgerflow/txncore/pkg/errors"
)

// Op is the signed-delta request C4 sends.
type Op struct {
	OperationID   string
	TransactionID string
	Delta         decimal.Decimal
	Reason        string
	AllowNegative bool
}

type Service struct {
	db       *sql.DB
	accounts repositories.AccountRepository
	ops      repositories.BalanceOperationRepository
	logger   *zap.Logger
}

func New(db *sql.DB, accounts repositories.AccountRepository, ops repositories.BalanceOperationRepository, logger *zap.Logger) *Service {
	return &Service{db: db, accounts: accounts, ops: ops, logger: logger}
}

// Apply is §4.9's apply(accountId, op): replays a previously-applied
// OperationID without touching the balance again, otherwise locks the
// account, validates the resulting balance against AllowNegative, and
// atomically writes the ledger row and the new balance.
func (s *Service) Apply(ctx context.Context, accountID string, req Op) (*entities.BalanceOperation, error) {
	if existing, err := s.ops.FindByOperation(ctx, accountID, req.OperationID); err != nil {
		return nil, fmt.Errorf("failed to check existing balance operation: %w", err)
	} else if existing != nil {
		replayed := *existing
		replayed.Applied = false
		replayed.Status = entities.BalanceOpStatusReplayed
		return &replayed, nil
	}

	var result *entities.BalanceOperation
	err := database.WithTransaction(ctx, s.db, func(dbTx *sql.Tx) error {
		lockedCtx := infrarepos.WithTx(ctx, dbTx)

		account, err := s.accounts.FindByIDForUpdate(lockedCtx, accountID)
		if err != nil {
			return err
		}

		record := entities.BalanceOperation{
			AccountID:     accountID,
			OperationID:   req.OperationID,
			TransactionID: req.TransactionID,
			Delta:         req.Delta,
			Reason:        req.Reason,
			AllowNegative: req.AllowNegative,
		}

		if !req.AllowNegative && !account.CanGoNegativeBy(req.Delta.Neg()) {
			record.Applied = false
			record.Status = entities.BalanceOpStatusRejected
			record.ResultingBalance = account.Balance
			if insertErr := s.ops.Insert(lockedCtx, &record); insertErr != nil {
				return insertErr
			}
			result = &record
			return nil
		}

		newBalance := account.Balance.Add(req.Delta)
		if err := s.accounts.UpdateBalance(lockedCtx, accountID, newBalance); err != nil {
			return err
		}

		record.Applied = true
		record.Status = entities.BalanceOpStatusApplied
		record.ResultingBalance = newBalance
		if err := s.ops.Insert(lockedCtx, &record); err != nil {
			return err
		}
		result = &record
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == entities.BalanceOpStatusRejected {
		return result, errors.InsufficientFunds()
	}
	return result, nil
}
