package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	domainrepos "github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/pkg/errors"
)

// AccountRepository is the Account Service's own store over
// PostgreSQL — the authoritative owner of balance state. Shares the
// txKey/WithTx context-carried transaction convention with
// TransactionRepository so C9's apply(accountId, op) can lock,
// record the operation, and update the balance in one database
// transaction.
type AccountRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAccountRepository(db *sql.DB, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

var _ domainrepos.AccountRepository = (*AccountRepository)(nil)

func (r *AccountRepository) conn(ctx context.Context) execer {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

const accountColumns = `id, owner_id, account_type, balance, currency, active,
	credit_limit, available_credit, created_at, updated_at`

func scanAccount(row interface{ Scan(dest ...interface{}) error }) (*entities.Account, error) {
	a := &entities.Account{}
	err := row.Scan(
		&a.ID, &a.OwnerID, &a.AccountType, &a.Balance, &a.Currency, &a.Active,
		&a.CreditLimit, &a.AvailableCredit, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entities.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE id = $1"
	acc, err := scanAccount(r.conn(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.AccountNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) FindByIDForUpdate(ctx context.Context, id string) (*entities.Account, error) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("findByIdForUpdate must run inside database.WithTransaction")
	}
	query := "SELECT " + accountColumns + " FROM accounts WHERE id = $1 FOR UPDATE"
	acc, err := scanAccount(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.AccountNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, id string, newBalance decimal.Decimal) error {
	res, err := r.conn(ctx).ExecContext(ctx,
		"UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2", newBalance, id)
	if err != nil {
		r.logger.Error("failed to update account balance", zap.Error(err), zap.String("account_id", id))
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.AccountNotFound(id)
	}
	return nil
}
