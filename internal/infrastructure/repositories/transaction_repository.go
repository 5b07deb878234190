package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	domainrepos "github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/pkg/errors"
	"github.com/ledgerflow/txncore/pkg/pagination"
)

// TransactionRepository implements C3, the Transaction Store, over
// PostgreSQL. Unique constraint uq_transactions_idempotency on
// (created_by, type, idempotency_key) is the source of truth for
// DUPLICATE_IDEMPOTENCY — Insert never pre-checks.
type TransactionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTransactionRepository(db *sql.DB, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

var _ domainrepos.TransactionRepository = (*TransactionRepository)(nil)

// execer is satisfied by both *sql.DB and *sql.Tx so the repository
// can run inside database.WithTransaction via context-carried tx, or
// standalone.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type txKey struct{}

// WithTx returns a context that causes the repository methods it is
// passed to run against tx instead of the pooled *sql.DB — used by
// the orchestrator and reversal coordinator to keep the whole saga
// step, or the reversal's lock-then-insert, inside one transaction.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func (r *TransactionRepository) conn(ctx context.Context) execer {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.db
}

func (r *TransactionRepository) Insert(ctx context.Context, tx *entities.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, type, status, processing_state, from_account, to_account,
			amount, currency, created_by, created_at, updated_at,
			original_transaction_id, idempotency_key, description, reference
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		tx.ID, tx.Type, tx.Status, tx.ProcessingState, tx.FromAccount, tx.ToAccount,
		tx.Amount, tx.Currency, tx.CreatedBy, tx.CreatedAt, tx.UpdatedAt,
		tx.OriginalTransactionID, tx.IdempotencyKey, tx.Description, tx.Reference,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return errors.DuplicateIdempotency()
		}
		r.logger.Error("failed to insert transaction", zap.Error(err), zap.String("transaction_id", tx.ID.String()))
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Update(ctx context.Context, id uuid.UUID, fields domainrepos.TransactionUpdate) error {
	var sets []string
	var args []interface{}
	n := 1

	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
		n++
	}

	if fields.Status != nil {
		add("status", *fields.Status)
	}
	if fields.ProcessingState != nil {
		add("processing_state", *fields.ProcessingState)
	}
	if fields.ProcessedAt != nil && *fields.ProcessedAt {
		sets = append(sets, "processed_at = now()")
	}
	if fields.FailureReason != nil {
		add("failure_reason", *fields.FailureReason)
	}
	if fields.ReversalTransactionID != nil {
		add("reversal_transaction_id", *fields.ReversalTransactionID)
	}
	sets = append(sets, "updated_at = now()")

	if len(sets) == 1 {
		return nil
	}

	query := fmt.Sprintf("UPDATE transactions SET %s WHERE id = $%d", strings.Join(sets, ", "), n)
	args = append(args, id)

	res, err := r.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to update transaction", zap.Error(err), zap.String("transaction_id", id.String()))
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return errors.TransactionNotFound(id.String())
	}
	return nil
}

const transactionColumns = `id, type, status, processing_state, from_account, to_account,
	amount, currency, created_by, created_at, updated_at, processed_at,
	original_transaction_id, reversal_transaction_id, idempotency_key,
	description, reference, failure_reason`

func scanTransaction(row interface {
	Scan(dest ...interface{}) error
}) (*entities.Transaction, error) {
	tx := &entities.Transaction{}
	err := row.Scan(
		&tx.ID, &tx.Type, &tx.Status, &tx.ProcessingState, &tx.FromAccount, &tx.ToAccount,
		&tx.Amount, &tx.Currency, &tx.CreatedBy, &tx.CreatedAt, &tx.UpdatedAt, &tx.ProcessedAt,
		&tx.OriginalTransactionID, &tx.ReversalTransactionID, &tx.IdempotencyKey,
		&tx.Description, &tx.Reference, &tx.FailureReason,
	)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE id = $1"
	tx, err := scanTransaction(r.conn(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.TransactionNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return tx, nil
}

func (r *TransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("findByIdForUpdate must run inside database.WithTransaction")
	}
	query := "SELECT " + transactionColumns + " FROM transactions WHERE id = $1 FOR UPDATE"
	row := tx.QueryRowContext(ctx, query, id)
	result, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, errors.TransactionNotFound(id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return result, nil
}

func (r *TransactionRepository) FindByIdempotency(ctx context.Context, createdBy string, txType entities.TransactionType, key string) (*entities.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE created_by = $1 AND type = $2 AND idempotency_key = $3"
	tx, err := scanTransaction(r.conn(ctx).QueryRowContext(ctx, query, createdBy, txType, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by idempotency key: %w", err)
	}
	return tx, nil
}

func (r *TransactionRepository) FindReversals(ctx context.Context, originalID uuid.UUID) ([]*entities.Transaction, error) {
	query := "SELECT " + transactionColumns + ` FROM transactions
		WHERE original_transaction_id = $1 AND type = 'REVERSAL'
		AND status NOT IN ('FAILED', 'FAILED_REQUIRES_MANUAL_ACTION')`

	rows, err := r.conn(ctx).QueryContext(ctx, query, originalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find reversals: %w", err)
	}
	defer rows.Close()

	var out []*entities.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reversal: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *TransactionRepository) AggregateUsage(ctx context.Context, accountID string, txType entities.TransactionType, window entities.UsageWindow) (entities.UsageAggregate, error) {
	var interval string
	switch window {
	case entities.UsageWindowDay:
		interval = "1 day"
	case entities.UsageWindowMonth:
		interval = "1 month"
	default:
		return entities.UsageAggregate{}, fmt.Errorf("unrecognized usage window %q", window)
	}

	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions
		WHERE type = $1 AND status = 'COMPLETED'
		AND (from_account = $2 OR to_account = $2)
		AND processed_at >= now() - interval '%s'`, interval)

	var sum decimal.Decimal
	var count int
	err := r.conn(ctx).QueryRowContext(ctx, query, txType, accountID).Scan(&sum, &count)
	if err != nil {
		return entities.UsageAggregate{}, fmt.Errorf("failed to aggregate usage: %w", err)
	}
	return entities.UsageAggregate{SumAmount: sum, Count: count}, nil
}

func (r *TransactionRepository) Page(ctx context.Context, filter domainrepos.TransactionFilter, page pagination.LegacyPagination) ([]*entities.Transaction, pagination.LegacyPageInfo, error) {
	if err := page.Validate(); err != nil {
		return nil, pagination.LegacyPageInfo{}, errors.ValidationError(err.Error())
	}

	var where []string
	var args []interface{}
	n := 1
	cond := func(clause string, val interface{}) {
		where = append(where, fmt.Sprintf(clause, n))
		args = append(args, val)
		n++
	}
	if filter.AccountID != nil {
		where = append(where, fmt.Sprintf("(from_account = $%d OR to_account = $%d)", n, n+1))
		args = append(args, *filter.AccountID, *filter.AccountID)
		n += 2
	}
	if filter.CreatedBy != nil {
		cond("created_by = $%d", *filter.CreatedBy)
	}
	if filter.Type != nil {
		cond("type = $%d", *filter.Type)
	}
	if filter.Status != nil {
		cond("status = $%d", *filter.Status)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM transactions " + whereClause
	if err := r.conn(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, pagination.LegacyPageInfo{}, fmt.Errorf("failed to count transactions: %w", err)
	}

	listArgs := append(append([]interface{}{}, args...), page.GetLimit(), page.GetOffset())
	listQuery := fmt.Sprintf("SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		transactionColumns, whereClause, n, n+1)

	rows, err := r.conn(ctx).QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, pagination.LegacyPageInfo{}, fmt.Errorf("failed to page transactions: %w", err)
	}
	defer rows.Close()

	var out []*entities.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, pagination.LegacyPageInfo{}, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, tx)
	}

	pageInfo := pagination.CreateLegacyPageInfo(page.Page, page.GetLimit(), total)
	return out, *pageInfo, rows.Err()
}
