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

// LimitRepository implements the Postgres half of C2, the Limit Store.
type LimitRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewLimitRepository(db *sql.DB, logger *zap.Logger) *LimitRepository {
	return &LimitRepository{db: db, logger: logger}
}

var _ domainrepos.LimitRepository = (*LimitRepository)(nil)

func (r *LimitRepository) FindActive(ctx context.Context, accountType string, txType entities.TransactionType) (*entities.TransactionLimit, error) {
	query := `
		SELECT account_type, type, per_tx_limit, daily_limit, monthly_limit,
		       daily_count, monthly_count, active, created_at, updated_at
		FROM transaction_limits
		WHERE account_type = $1 AND type = $2 AND active = true`

	limit := &entities.TransactionLimit{}
	err := r.db.QueryRowContext(ctx, query, accountType, txType).Scan(
		&limit.AccountType, &limit.Type, &limit.PerTxLimit, &limit.DailyLimit, &limit.MonthlyLimit,
		&limit.DailyCount, &limit.MonthlyCount, &limit.Active, &limit.CreatedAt, &limit.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction limit: %w", err)
	}
	return limit, nil
}

func (r *LimitRepository) Upsert(ctx context.Context, limit *entities.TransactionLimit) error {
	query := `
		INSERT INTO transaction_limits (
			account_type, type, per_tx_limit, daily_limit, monthly_limit,
			daily_count, monthly_count, active, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
		ON CONFLICT (account_type, type) DO UPDATE SET
			per_tx_limit = EXCLUDED.per_tx_limit,
			daily_limit = EXCLUDED.daily_limit,
			monthly_limit = EXCLUDED.monthly_limit,
			daily_count = EXCLUDED.daily_count,
			monthly_count = EXCLUDED.monthly_count,
			active = EXCLUDED.active,
			updated_at = now()`

	_, err := r.db.ExecContext(ctx, query,
		limit.AccountType, limit.Type, limit.PerTxLimit, limit.DailyLimit, limit.MonthlyLimit,
		limit.DailyCount, limit.MonthlyCount, limit.Active,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			r.logger.Error("failed to upsert transaction limit", zap.String("pq_code", string(pqErr.Code)))
		}
		return fmt.Errorf("failed to upsert transaction limit: %w", err)
	}
	return nil
}
