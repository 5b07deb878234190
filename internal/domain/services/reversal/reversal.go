// Package reversal implements C8, the Reversal Coordinator: it locks
// the original transaction row, validates it is eligible for
// reversal, inserts the REVERSAL transaction with legs swapped, and
// hands it to the orchestrator's state machine.
package reversal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/internal/infrastructure/database"
	infrarepos "github.com/ledgerflow/txncore/internal/infrastructure/repositories"
	"github.com/ledgerflow/txncore/pkg/errors"
)

// Driver is the subset of *orchestrator.Orchestrator the coordinator
// needs: drive a persisted row through the state machine.
type Driver interface {
	Drive(ctx context.Context, tx *entities.Transaction, bearer string) (*entities.Transaction, error)
}

type Coordinator struct {
	db     *sql.DB
	txRepo repositories.TransactionRepository
	driver Driver
	logger *zap.Logger
}

func New(db *sql.DB, txRepo repositories.TransactionRepository, driver Driver, logger *zap.Logger) *Coordinator {
	return &Coordinator{db: db, txRepo: txRepo, driver: driver, logger: logger}
}

// Request is a reversal entry per §4.8.
type Request struct {
	OriginalTransactionID uuid.UUID
	Reason                *string
	IdempotencyKey         *string
	Subject                string
	Bearer                 string
}

// Reverse locks the original row, validates it, and drives a new
// REVERSAL transaction through the same state machine a normal
// transaction uses. On success the original flips to REVERSED.
func (c *Coordinator) Reverse(ctx context.Context, req Request) (*entities.Transaction, error) {
	if req.IdempotencyKey != nil {
		if existing, err := c.txRepo.FindByIdempotency(ctx, req.Subject, entities.TransactionTypeReversal, *req.IdempotencyKey); err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		} else if existing != nil {
			return existing, nil
		}
	}

	if existing, err := c.txRepo.FindReversals(ctx, req.OriginalTransactionID); err != nil {
		return nil, fmt.Errorf("failed to check existing reversals: %w", err)
	} else if len(existing) > 0 {
		return nil, errors.AlreadyReversed()
	}

	var reversal *entities.Transaction
	err := database.WithTransaction(ctx, c.db, func(dbTx *sql.Tx) error {
		lockedCtx := infrarepos.WithTx(ctx, dbTx)

		original, err := c.txRepo.FindByIDForUpdate(lockedCtx, req.OriginalTransactionID)
		if err != nil {
			return err
		}
		if err := validateReversible(original); err != nil {
			return err
		}

		reversal = newReversalTransaction(original, req, time.Now().UTC())
		if err := c.txRepo.Insert(lockedCtx, reversal); err != nil {
			return err
		}

		reversalID := reversal.ID
		return c.txRepo.Update(lockedCtx, original.ID, repositories.TransactionUpdate{ReversalTransactionID: &reversalID})
	})
	if err != nil {
		return nil, err
	}

	driven, err := c.driver.Drive(ctx, reversal, req.Bearer)
	if err != nil {
		c.logger.Warn("reversal transaction did not complete cleanly",
			zap.String("reversal_id", reversal.ID.String()),
			zap.String("original_id", req.OriginalTransactionID.String()),
			zap.Error(err))
		return driven, err
	}

	if driven.Status == entities.TransactionStatusCompleted {
		originalStatus := entities.TransactionStatusReversed
		if err := c.txRepo.Update(ctx, req.OriginalTransactionID, repositories.TransactionUpdate{Status: &originalStatus}); err != nil {
			return driven, fmt.Errorf("reversal completed but failed to mark original as reversed: %w", err)
		}
	}

	return driven, nil
}

// newReversalTransaction builds the REVERSAL row with legs swapped
// from original: a reversal credits wherever the original debited and
// debits wherever the original credited. For a DEPOSIT or WITHDRAWAL
// original, one side is nil both before and after the swap, so the
// reversal row ends up with only one leg too — tx.HasDebitLeg/
// HasCreditLeg read that directly off FromAccount/ToAccount rather
// than assuming every REVERSAL has both legs.
func newReversalTransaction(original *entities.Transaction, req Request, now time.Time) *entities.Transaction {
	return &entities.Transaction{
		ID:                    uuid.New(),
		Type:                  entities.TransactionTypeReversal,
		Status:                entities.TransactionStatusPending,
		ProcessingState:       entities.ProcessingStateInitiated,
		FromAccount:           original.ToAccount,
		ToAccount:             original.FromAccount,
		Amount:                original.Amount,
		Currency:              original.Currency,
		CreatedBy:             req.Subject,
		CreatedAt:             now,
		UpdatedAt:             now,
		OriginalTransactionID: &original.ID,
		IdempotencyKey:        req.IdempotencyKey,
		Description:           req.Reason,
	}
}

// validateReversible enforces §4.8's eligibility rule: only a
// COMPLETED transaction with no existing non-failed reversal may be
// reversed.
func validateReversible(original *entities.Transaction) error {
	if original.Status != entities.TransactionStatusCompleted {
		return errors.NotReversible(fmt.Sprintf("transaction is %s, not COMPLETED", original.Status))
	}
	if original.ReversalTransactionID != nil {
		return errors.AlreadyReversed()
	}
	return nil
}
