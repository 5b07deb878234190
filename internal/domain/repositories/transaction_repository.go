package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/pkg/pagination"
)

// TransactionFilter narrows a paginated transaction search.
type TransactionFilter struct {
	AccountID *string
	CreatedBy *string
	Type      *entities.TransactionType
	Status    *entities.TransactionStatus
}

// TransactionRepository is C3, the Transaction Store.
type TransactionRepository interface {
	// Insert persists a new INITIATED transaction atomically. It returns
	// errors.DuplicateIdempotency if (created-by, type, idempotency-key)
	// already exists — the unique constraint is the source of truth,
	// not a pre-check.
	Insert(ctx context.Context, tx *entities.Transaction) error

	// Update applies a partial mutation to an existing row. Callers
	// build fields from the legal transitions of §4.7 only.
	Update(ctx context.Context, id uuid.UUID, fields TransactionUpdate) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	// FindByIDForUpdate acquires a row-level write lock (SELECT ...
	// FOR UPDATE) held until the enclosing transaction commits. Must
	// be called with a transaction-scoped context obtained from
	// database.WithTransaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	FindByIdempotency(ctx context.Context, createdBy string, txType entities.TransactionType, key string) (*entities.Transaction, error)

	// FindReversals returns the non-failed reversals of originalID; by
	// invariant 3 there is at most one.
	FindReversals(ctx context.Context, originalID uuid.UUID) ([]*entities.Transaction, error)

	AggregateUsage(ctx context.Context, accountID string, txType entities.TransactionType, window entities.UsageWindow) (entities.UsageAggregate, error)

	Page(ctx context.Context, filter TransactionFilter, page pagination.LegacyPagination) ([]*entities.Transaction, pagination.LegacyPageInfo, error)
}

// TransactionUpdate is a partial field mutation for Update.
type TransactionUpdate struct {
	Status                *entities.TransactionStatus
	ProcessingState        *entities.ProcessingState
	ProcessedAt            *bool // true: set to now(); omit to leave unchanged
	FailureReason          *string
	ReversalTransactionID  *uuid.UUID
}
