package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	domainrepos "github.com/ledgerflow/txncore/internal/domain/repositories"
)

// BalanceOperationRepository implements the Account-side persistence
// half of C9, the Balance-Op Ledger. Primary key (account_id,
// operation_id) is a unique constraint — Insert never pre-checks for
// an existing row, it relies on the 23505 violation instead.
type BalanceOperationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewBalanceOperationRepository(db *sql.DB, logger *zap.Logger) *BalanceOperationRepository {
	return &BalanceOperationRepository{db: db, logger: logger}
}

var _ domainrepos.BalanceOperationRepository = (*BalanceOperationRepository)(nil)

func (r *BalanceOperationRepository) FindByOperation(ctx context.Context, accountID, operationID string) (*entities.BalanceOperation, error) {
	query := `
		SELECT account_id, operation_id, transaction_id, delta, reason,
		       allow_negative, applied, resulting_balance, status, created_at
		FROM balance_operations
		WHERE account_id = $1 AND operation_id = $2`

	op := &entities.BalanceOperation{}
	err := r.db.QueryRowContext(ctx, query, accountID, operationID).Scan(
		&op.AccountID, &op.OperationID, &op.TransactionID, &op.Delta, &op.Reason,
		&op.AllowNegative, &op.Applied, &op.ResultingBalance, &op.Status, &op.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find balance operation: %w", err)
	}
	return op, nil
}

func (r *BalanceOperationRepository) Insert(ctx context.Context, op *entities.BalanceOperation) error {
	query := `
		INSERT INTO balance_operations (
			account_id, operation_id, transaction_id, delta, reason,
			allow_negative, applied, resulting_balance, status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())`

	_, err := r.db.ExecContext(ctx, query,
		op.AccountID, op.OperationID, op.TransactionID, op.Delta, op.Reason,
		op.AllowNegative, op.Applied, op.ResultingBalance, op.Status,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			r.logger.Warn("balance operation already recorded",
				zap.String("account_id", op.AccountID), zap.String("operation_id", op.OperationID))
		}
		return fmt.Errorf("failed to insert balance operation: %w", err)
	}
	return nil
}
