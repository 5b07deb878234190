// Package orchestrator implements C7, the state machine at the heart
// of the Transaction Service: INITIATED -> DEBIT_APPLIED ->
// CREDIT_APPLIED -> COMPLETED, with compensation on credit failure and
// a terminal MANUAL_ACTION_REQUIRED when compensation itself fails.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/adapters/accountclient"
	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/internal/domain/services/limits"
	"github.com/ledgerflow/txncore/pkg/errors"
	"github.com/ledgerflow/txncore/pkg/idempotency"
	"github.com/ledgerflow/txncore/pkg/metrics"
)

// AccountClient is C4 wrapped by C5 — every call already carries the
// deadline/retry/breaker behavior of pkg/resilience.
type AccountClient interface {
	GetAccount(ctx context.Context, id, bearer string) (*accountclient.Account, error)
	ApplyBalanceOp(ctx context.Context, accountID string, op accountclient.BalanceOp, bearer string) (*accountclient.BalanceOpResult, error)
}

// Request is the shape of a normal (non-reversal) entry per §4.7.
type Request struct {
	Type           entities.TransactionType
	FromAccount    *string
	ToAccount      *string
	Amount         decimal.Decimal
	Description    *string
	Reference      *string
	IdempotencyKey *string
	Subject        string
	Bearer         string
}

// AuditRecorder persists the durable trail behind a
// MANUAL_ACTION_REQUIRED escalation. Optional: an Orchestrator with no
// recorder attached still logs and counts the event, just without a
// queryable row.
type AuditRecorder interface {
	RecordManualAction(ctx context.Context, txID uuid.UUID, reason string)
}

// Orchestrator drives C7's state machine on top of C1 (caller already
// authenticated upstream), C3 (transaction store), C4+C5 (account
// client), and C6 (limit enforcer). A single Orchestrator is shared
// across concurrent requests, so no request-scoped state lives on the
// struct itself — it is threaded through a private run.
type Orchestrator struct {
	txRepo  repositories.TransactionRepository
	account AccountClient
	limits  *limits.Service
	logger  *zap.Logger
	audit   AuditRecorder
}

func New(txRepo repositories.TransactionRepository, account AccountClient, limitsSvc *limits.Service, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{txRepo: txRepo, account: account, limits: limitsSvc, logger: logger}
}

// WithAuditRecorder attaches the durable audit trail and returns the
// same Orchestrator for chaining at construction time.
func (o *Orchestrator) WithAuditRecorder(r AuditRecorder) *Orchestrator {
	o.audit = r
	return o
}

func debitOpID(txID uuid.UUID) string      { return txID.String() + ":debit" }
func creditOpID(txID uuid.UUID) string     { return txID.String() + ":credit" }
func compensateOpID(txID uuid.UUID) string { return txID.String() + ":compensate" }

// Submit is the entry point for a normal transaction request: shape
// validation, account/limit checks, INITIATED row insert, then Drive.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*entities.Transaction, error) {
	if req.IdempotencyKey != nil {
		if err := idempotency.ValidateKey(*req.IdempotencyKey); err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("invalid idempotency key: %v", err))
		}
		if existing, err := o.txRepo.FindByIdempotency(ctx, req.Subject, req.Type, *req.IdempotencyKey); err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		} else if existing != nil {
			return existing, nil
		}
	}

	if err := validateShape(req); err != nil {
		return nil, err
	}

	currency, err := o.loadAndValidateAccounts(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := o.enforceLimits(ctx, req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx := &entities.Transaction{
		ID:              uuid.New(),
		Type:            req.Type,
		Status:          entities.TransactionStatusPending,
		ProcessingState: entities.ProcessingStateInitiated,
		FromAccount:     req.FromAccount,
		ToAccount:       req.ToAccount,
		Amount:          req.Amount,
		Currency:        currency,
		CreatedBy:       req.Subject,
		CreatedAt:       now,
		UpdatedAt:       now,
		IdempotencyKey:  req.IdempotencyKey,
		Description:     req.Description,
		Reference:       req.Reference,
	}

	if err := o.txRepo.Insert(ctx, tx); err != nil {
		if errors.GetCode(err) == errors.CodeDuplicateIdempotency && req.IdempotencyKey != nil {
			if existing, findErr := o.txRepo.FindByIdempotency(ctx, req.Subject, req.Type, *req.IdempotencyKey); findErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	return o.Drive(ctx, tx, req.Bearer)
}

// Drive runs the INITIATED -> ... -> COMPLETED state machine for an
// already-persisted row. It is re-entrant: the sweeper calls it on
// recovered rows starting from whatever processing-state they hold,
// and the reversal coordinator (§4.8) calls it on its freshly-inserted
// reversal row exactly as it would any other transaction.
func (o *Orchestrator) Drive(ctx context.Context, tx *entities.Transaction, bearer string) (*entities.Transaction, error) {
	if tx.ProcessingState == entities.ProcessingStateInitiated {
		if err := o.runDebitLeg(ctx, tx, bearer); err != nil {
			return tx, err
		}
	}
	if tx.ProcessingState == entities.ProcessingStateDebitApplied {
		if err := o.runCreditLeg(ctx, tx, bearer); err != nil {
			return tx, err
		}
	}
	if tx.ProcessingState == entities.ProcessingStateCreditApplied {
		if err := o.commit(ctx, tx); err != nil {
			return tx, err
		}
	}

	amountFloat, _ := tx.Amount.Float64()
	metrics.RecordTransaction(string(tx.Type), string(tx.Status), tx.Currency, amountFloat)

	if tx.Status == entities.TransactionStatusFailedRequiresManual {
		return tx, errors.ManualActionRequired(tx.ID.String())
	}
	return tx, nil
}

func validateShape(req Request) error {
	if !req.Amount.IsPositive() {
		return errors.AmountNonPositive()
	}
	if req.Type.RequiresFromAccount() && req.FromAccount == nil {
		return errors.MissingAccount("fromAccount")
	}
	if req.Type.RequiresToAccount() && req.ToAccount == nil {
		return errors.MissingAccount("toAccount")
	}
	return nil
}

// loadAndValidateAccounts fetches whichever of from/to accounts are
// set, confirms each is active, and returns the common currency. A
// mismatch between the two legs' currencies is rejected per §3's
// single-currency invariant.
func (o *Orchestrator) loadAndValidateAccounts(ctx context.Context, req Request) (string, error) {
	var currency string

	load := func(id *string) error {
		if id == nil {
			return nil
		}
		acc, err := o.account.GetAccount(ctx, *id, req.Bearer)
		if err != nil {
			if errors.GetCode(err) == errors.CodeNotFound {
				return errors.AccountNotFound(*id)
			}
			return err
		}
		if !acc.Active {
			return errors.AccountInactive(*id)
		}
		if currency != "" && acc.Currency != currency {
			return errors.CurrencyMismatch()
		}
		currency = acc.Currency
		return nil
	}

	if err := load(req.FromAccount); err != nil {
		return "", err
	}
	if err := load(req.ToAccount); err != nil {
		return "", err
	}
	return currency, nil
}

// enforceLimits resolves the account whose side (§4.7's LimitSide)
// this transaction type is bound by, then delegates to C6.
func (o *Orchestrator) enforceLimits(ctx context.Context, req Request) error {
	var accountID string
	if req.Type.LimitSide() == "from" && req.FromAccount != nil {
		accountID = *req.FromAccount
	} else if req.ToAccount != nil {
		accountID = *req.ToAccount
	}
	if accountID == "" {
		return nil
	}

	acc, err := o.account.GetAccount(ctx, accountID, req.Bearer)
	if err != nil {
		return err
	}

	return o.limits.Enforce(ctx, acc.AccountType, accountID, req.Type, req.Amount)
}

func (o *Orchestrator) runDebitLeg(ctx context.Context, tx *entities.Transaction, bearer string) error {
	if !tx.HasDebitLeg() {
		return o.advance(ctx, tx, entities.ProcessingStateDebitApplied, nil)
	}

	result, err := o.account.ApplyBalanceOp(ctx, *tx.FromAccount, accountclient.BalanceOp{
		OperationID:   debitOpID(tx.ID),
		TransactionID: tx.ID.String(),
		Delta:         tx.Amount.Neg(),
		Reason:        string(tx.Type),
		AllowNegative: false,
	}, bearer)
	if err != nil {
		return o.failTerminal(ctx, tx, entities.TransactionStatusFailed, entities.ProcessingStateCompleted, "UPSTREAM_UNAVAILABLE")
	}
	if result.Status == "REJECTED" {
		return o.failTerminal(ctx, tx, entities.TransactionStatusFailed, entities.ProcessingStateCompleted, "INSUFFICIENT_FUNDS")
	}

	return o.advance(ctx, tx, entities.ProcessingStateDebitApplied, nil)
}

func (o *Orchestrator) runCreditLeg(ctx context.Context, tx *entities.Transaction, bearer string) error {
	if !tx.HasCreditLeg() {
		return o.advance(ctx, tx, entities.ProcessingStateCreditApplied, nil)
	}

	_, err := o.account.ApplyBalanceOp(ctx, *tx.ToAccount, accountclient.BalanceOp{
		OperationID:   creditOpID(tx.ID),
		TransactionID: tx.ID.String(),
		Delta:         tx.Amount,
		Reason:        string(tx.Type),
		AllowNegative: true,
	}, bearer)
	if err == nil {
		return o.advance(ctx, tx, entities.ProcessingStateCreditApplied, nil)
	}

	return o.compensate(ctx, tx, bearer)
}

// compensate reverses the already-applied debit leg after the credit
// leg failed. If there was no debit leg to reverse, or the reversal
// itself fails, the transaction escalates to MANUAL_ACTION_REQUIRED —
// an operator must reconcile the ledger by hand.
func (o *Orchestrator) compensate(ctx context.Context, tx *entities.Transaction, bearer string) error {
	if !tx.HasDebitLeg() {
		return o.manualActionRequired(ctx, tx)
	}

	_, err := o.account.ApplyBalanceOp(ctx, *tx.FromAccount, accountclient.BalanceOp{
		OperationID:   compensateOpID(tx.ID),
		TransactionID: tx.ID.String(),
		Delta:         tx.Amount,
		Reason:        "compensation",
		AllowNegative: true,
	}, bearer)
	if err != nil {
		return o.manualActionRequired(ctx, tx)
	}

	return o.failTerminal(ctx, tx, entities.TransactionStatusFailed, entities.ProcessingStateCompensated, "CREDIT_FAILED")
}

func (o *Orchestrator) manualActionRequired(ctx context.Context, tx *entities.Transaction) error {
	o.logger.Error("transaction requires manual action",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("type", string(tx.Type)),
		zap.Stringp("from_account", tx.FromAccount),
		zap.Stringp("to_account", tx.ToAccount),
		zap.String("amount", tx.Amount.String()),
	)
	metrics.RecordAuditEvent("manual_action_required", "transaction", "FAILED_REQUIRES_MANUAL_ACTION")

	status := entities.TransactionStatusFailedRequiresManual
	state := entities.ProcessingStateManualActionRequired
	processedAt := true
	reason := "COMPENSATION_FAILED"
	if o.audit != nil {
		o.audit.RecordManualAction(ctx, tx.ID, reason)
	}
	if err := o.txRepo.Update(ctx, tx.ID, repositories.TransactionUpdate{
		Status: &status, ProcessingState: &state, FailureReason: &reason, ProcessedAt: &processedAt,
	}); err != nil {
		return fmt.Errorf("failed to persist manual-action-required state: %w", err)
	}
	tx.Status = status
	tx.ProcessingState = state
	tx.FailureReason = &reason
	return nil
}

func (o *Orchestrator) failTerminal(ctx context.Context, tx *entities.Transaction, status entities.TransactionStatus, state entities.ProcessingState, reason string) error {
	processedAt := true
	if err := o.txRepo.Update(ctx, tx.ID, repositories.TransactionUpdate{
		Status: &status, ProcessingState: &state, FailureReason: &reason, ProcessedAt: &processedAt,
	}); err != nil {
		return fmt.Errorf("failed to persist terminal state: %w", err)
	}
	tx.Status = status
	tx.ProcessingState = state
	tx.FailureReason = &reason
	return nil
}

func (o *Orchestrator) advance(ctx context.Context, tx *entities.Transaction, state entities.ProcessingState, status *entities.TransactionStatus) error {
	if err := o.txRepo.Update(ctx, tx.ID, repositories.TransactionUpdate{ProcessingState: &state, Status: status}); err != nil {
		return fmt.Errorf("failed to advance transaction state: %w", err)
	}
	tx.ProcessingState = state
	if status != nil {
		tx.Status = *status
	}
	return nil
}

func (o *Orchestrator) commit(ctx context.Context, tx *entities.Transaction) error {
	status := entities.TransactionStatusCompleted
	state := entities.ProcessingStateCompleted
	processedAt := true
	if err := o.txRepo.Update(ctx, tx.ID, repositories.TransactionUpdate{
		Status: &status, ProcessingState: &state, ProcessedAt: &processedAt,
	}); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx.Status = status
	tx.ProcessingState = state
	return nil
}
