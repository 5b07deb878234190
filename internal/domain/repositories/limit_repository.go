package repositories

import (
	"context"

	"github.com/ledgerflow/txncore/internal/domain/entities"
)

// LimitRepository is the Postgres-backed half of C2, the Limit Store.
// The cache sits in front of it (internal/domain/services/limits).
type LimitRepository interface {
	// FindActive returns the configured, active limit row for
	// (accountType, type), or nil if none is configured.
	FindActive(ctx context.Context, accountType string, txType entities.TransactionType) (*entities.TransactionLimit, error)

	Upsert(ctx context.Context, limit *entities.TransactionLimit) error
}
