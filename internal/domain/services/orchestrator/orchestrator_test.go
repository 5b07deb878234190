package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/adapters/accountclient"
	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/internal/domain/services/limits"
	"github.com/ledgerflow/txncore/pkg/pagination"
)

type mockTxRepo struct{ mock.Mock }

func (m *mockTxRepo) Insert(ctx context.Context, tx *entities.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTxRepo) Update(ctx context.Context, id uuid.UUID, fields repositories.TransactionUpdate) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *mockTxRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *mockTxRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *mockTxRepo) FindByIdempotency(ctx context.Context, createdBy string, txType entities.TransactionType, key string) (*entities.Transaction, error) {
	args := m.Called(ctx, createdBy, txType, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Transaction), args.Error(1)
}

func (m *mockTxRepo) FindReversals(ctx context.Context, originalID uuid.UUID) ([]*entities.Transaction, error) {
	args := m.Called(ctx, originalID)
	return nil, args.Error(1)
}

func (m *mockTxRepo) AggregateUsage(ctx context.Context, accountID string, txType entities.TransactionType, window entities.UsageWindow) (entities.UsageAggregate, error) {
	args := m.Called(ctx, accountID, txType, window)
	return args.Get(0).(entities.UsageAggregate), args.Error(1)
}

func (m *mockTxRepo) Page(ctx context.Context, filter repositories.TransactionFilter, page pagination.LegacyPagination) ([]*entities.Transaction, pagination.LegacyPageInfo, error) {
	return nil, pagination.LegacyPageInfo{}, nil
}

type mockAccountClient struct{ mock.Mock }

func (m *mockAccountClient) GetAccount(ctx context.Context, id, bearer string) (*accountclient.Account, error) {
	args := m.Called(ctx, id, bearer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountclient.Account), args.Error(1)
}

func (m *mockAccountClient) ApplyBalanceOp(ctx context.Context, accountID string, op accountclient.BalanceOp, bearer string) (*accountclient.BalanceOpResult, error) {
	args := m.Called(ctx, accountID, op, bearer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accountclient.BalanceOpResult), args.Error(1)
}

type mockLimitRepo struct{ mock.Mock }

func (m *mockLimitRepo) FindActive(ctx context.Context, accountType string, txType entities.TransactionType) (*entities.TransactionLimit, error) {
	args := m.Called(ctx, accountType, txType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TransactionLimit), args.Error(1)
}

func (m *mockLimitRepo) Upsert(ctx context.Context, limit *entities.TransactionLimit) error {
	return nil
}

type fakeCache struct{ store map[string]string }

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) { return c.store[key], nil }
func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error { return nil }

func noLimits(logger *zap.Logger) *limits.Service {
	limitRepo := &mockLimitRepo{}
	limitRepo.On("FindActive", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	return limits.NewService(limitRepo, nil, &fakeCache{store: map[string]string{}}, 30*time.Second, logger)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestSubmit_TransferHappyPath(t *testing.T) {
	txRepo := &mockTxRepo{}
	account := &mockAccountClient{}
	logger := zap.NewNop()

	account.On("GetAccount", mock.Anything, "acc-from", mock.Anything).
		Return(&accountclient.Account{ID: "acc-from", Active: true, Currency: "USD", AccountType: "CHECKING"}, nil)
	account.On("GetAccount", mock.Anything, "acc-to", mock.Anything).
		Return(&accountclient.Account{ID: "acc-to", Active: true, Currency: "USD", AccountType: "CHECKING"}, nil)
	account.On("ApplyBalanceOp", mock.Anything, "acc-from", mock.Anything, mock.Anything).
		Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED"}, nil)
	account.On("ApplyBalanceOp", mock.Anything, "acc-to", mock.Anything, mock.Anything).
		Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED"}, nil)

	txRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	txRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	o := New(txRepo, account, noLimits(logger), logger)

	from, to := "acc-from", "acc-to"
	result, err := o.Submit(context.Background(), Request{
		Type:        entities.TransactionTypeTransfer,
		FromAccount: &from,
		ToAccount:   &to,
		Amount:      dec("100.00"),
		Subject:     "user-1",
		Bearer:      "Bearer tok",
	})

	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusCompleted, result.Status)
	assert.Equal(t, entities.ProcessingStateCompleted, result.ProcessingState)
}

func TestSubmit_DebitRejectedFailsWithoutCreditAttempt(t *testing.T) {
	txRepo := &mockTxRepo{}
	account := &mockAccountClient{}
	logger := zap.NewNop()

	account.On("GetAccount", mock.Anything, "acc-from", mock.Anything).
		Return(&accountclient.Account{ID: "acc-from", Active: true, Currency: "USD", AccountType: "CHECKING"}, nil)
	account.On("GetAccount", mock.Anything, "acc-to", mock.Anything).
		Return(&accountclient.Account{ID: "acc-to", Active: true, Currency: "USD", AccountType: "CHECKING"}, nil)
	account.On("ApplyBalanceOp", mock.Anything, "acc-from", mock.Anything, mock.Anything).
		Return(&accountclient.BalanceOpResult{Applied: false, Status: "REJECTED"}, nil)

	txRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	txRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	o := New(txRepo, account, noLimits(logger), logger)

	from, to := "acc-from", "acc-to"
	result, err := o.Submit(context.Background(), Request{
		Type:        entities.TransactionTypeTransfer,
		FromAccount: &from,
		ToAccount:   &to,
		Amount:      dec("100.00"),
		Subject:     "user-1",
		Bearer:      "Bearer tok",
	})

	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusFailed, result.Status)
	account.AssertNotCalled(t, "ApplyBalanceOp", mock.Anything, "acc-to", mock.Anything, mock.Anything)
}

func TestSubmit_CreditFailureTriggersCompensation(t *testing.T) {
	txRepo := &mockTxRepo{}
	account := &mockAccountClient{}
	logger := zap.NewNop()

	account.On("GetAccount", mock.Anything, "acc-from", mock.Anything).
		Return(&accountclient.Account{ID: "acc-from", Active: true, Currency: "USD", AccountType: "CHECKING"}, nil)
	account.On("GetAccount", mock.Anything, "acc-to", mock.Anything).
		Return(&accountclient.Account{ID: "acc-to", Active: true, Currency: "USD", AccountType: "CHECKING"}, nil)
	account.On("ApplyBalanceOp", mock.Anything, "acc-from", mock.MatchedBy(func(op accountclient.BalanceOp) bool {
		return op.Reason != "compensation"
	}), mock.Anything).Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED"}, nil).Once()
	account.On("ApplyBalanceOp", mock.Anything, "acc-to", mock.Anything, mock.Anything).
		Return(nil, assertErr())
	account.On("ApplyBalanceOp", mock.Anything, "acc-from", mock.MatchedBy(func(op accountclient.BalanceOp) bool {
		return op.Reason == "compensation"
	}), mock.Anything).Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED"}, nil).Once()

	txRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	txRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	o := New(txRepo, account, noLimits(logger), logger)

	from, to := "acc-from", "acc-to"
	result, err := o.Submit(context.Background(), Request{
		Type:        entities.TransactionTypeTransfer,
		FromAccount: &from,
		ToAccount:   &to,
		Amount:      dec("100.00"),
		Subject:     "user-1",
		Bearer:      "Bearer tok",
	})

	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusFailed, result.Status)
	assert.Equal(t, entities.ProcessingStateCompensated, result.ProcessingState)
}

func TestSubmit_CompensationFailureEscalatesToManualAction(t *testing.T) {
	txRepo := &mockTxRepo{}
	account := &mockAccountClient{}
	logger := zap.NewNop()

	account.On("GetAccount", mock.Anything, "acc-from", mock.Anything).
		Return(&accountclient.Account{ID: "acc-from", Active: true, Currency: "USD", AccountType: "CHECKING"}, nil)
	account.On("GetAccount", mock.Anything, "acc-to", mock.Anything).
		Return(&accountclient.Account{ID: "acc-to", Active: true, Currency: "USD", AccountType: "CHECKING"}, nil)
	account.On("ApplyBalanceOp", mock.Anything, "acc-from", mock.MatchedBy(func(op accountclient.BalanceOp) bool {
		return op.Reason != "compensation"
	}), mock.Anything).Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED"}, nil).Once()
	account.On("ApplyBalanceOp", mock.Anything, "acc-to", mock.Anything, mock.Anything).
		Return(nil, assertErr())
	account.On("ApplyBalanceOp", mock.Anything, "acc-from", mock.MatchedBy(func(op accountclient.BalanceOp) bool {
		return op.Reason == "compensation"
	}), mock.Anything).Return(nil, assertErr())

	txRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)
	txRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	o := New(txRepo, account, noLimits(logger), logger)

	from, to := "acc-from", "acc-to"
	result, err := o.Submit(context.Background(), Request{
		Type:        entities.TransactionTypeTransfer,
		FromAccount: &from,
		ToAccount:   &to,
		Amount:      dec("100.00"),
		Subject:     "user-1",
		Bearer:      "Bearer tok",
	})

	require.Error(t, err)
	assert.Equal(t, entities.TransactionStatusFailedRequiresManual, result.Status)
	assert.Equal(t, entities.ProcessingStateManualActionRequired, result.ProcessingState)
}

func TestSubmit_IdempotentReplayReturnsExisting(t *testing.T) {
	txRepo := &mockTxRepo{}
	account := &mockAccountClient{}
	logger := zap.NewNop()

	key := "req-12345678"
	existing := &entities.Transaction{ID: uuid.New(), Status: entities.TransactionStatusCompleted}
	txRepo.On("FindByIdempotency", mock.Anything, "user-1", entities.TransactionTypeDeposit, key).Return(existing, nil)

	o := New(txRepo, account, noLimits(logger), logger)

	to := "acc-to"
	result, err := o.Submit(context.Background(), Request{
		Type:           entities.TransactionTypeDeposit,
		ToAccount:      &to,
		Amount:         dec("50.00"),
		Subject:        "user-1",
		Bearer:         "Bearer tok",
		IdempotencyKey: &key,
	})

	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.ID)
	account.AssertNotCalled(t, "GetAccount")
}

// TestDrive_ReversalOfTransferRunsBothLegs drives an already-persisted
// REVERSAL row (as the reversal coordinator would hand it to Drive)
// with both legs present, the shape a reversed TRANSFER produces.
func TestDrive_ReversalOfTransferRunsBothLegs(t *testing.T) {
	txRepo := &mockTxRepo{}
	account := &mockAccountClient{}
	logger := zap.NewNop()

	account.On("ApplyBalanceOp", mock.Anything, "acc-to", mock.Anything, mock.Anything).
		Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED"}, nil)
	account.On("ApplyBalanceOp", mock.Anything, "acc-from", mock.Anything, mock.Anything).
		Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED"}, nil)
	txRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	o := New(txRepo, account, noLimits(logger), logger)

	from, to := "acc-to", "acc-from"
	reversal := &entities.Transaction{
		ID:              uuid.New(),
		Type:            entities.TransactionTypeReversal,
		Status:          entities.TransactionStatusPending,
		ProcessingState: entities.ProcessingStateInitiated,
		FromAccount:     &from,
		ToAccount:       &to,
		Amount:          dec("100.00"),
		Currency:        "USD",
		CreatedBy:       "user-1",
	}

	result, err := o.Drive(context.Background(), reversal, "Bearer tok")

	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusCompleted, result.Status)
}

// TestDrive_ReversalOfDepositHasNoCreditLeg reproduces the shape a
// reversed DEPOSIT produces: FromAccount set (credited on the
// original), ToAccount nil. Before HasDebitLeg/HasCreditLeg read the
// row's own account pointers instead of a static per-type table, this
// panicked runCreditLeg on a nil *tx.ToAccount.
func TestDrive_ReversalOfDepositHasNoCreditLeg(t *testing.T) {
	txRepo := &mockTxRepo{}
	account := &mockAccountClient{}
	logger := zap.NewNop()

	account.On("ApplyBalanceOp", mock.Anything, "acc-to", mock.Anything, mock.Anything).
		Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED"}, nil)
	txRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	o := New(txRepo, account, noLimits(logger), logger)

	from := "acc-to"
	reversal := &entities.Transaction{
		ID:              uuid.New(),
		Type:            entities.TransactionTypeReversal,
		Status:          entities.TransactionStatusPending,
		ProcessingState: entities.ProcessingStateInitiated,
		FromAccount:     &from,
		ToAccount:       nil,
		Amount:          dec("50.00"),
		Currency:        "USD",
		CreatedBy:       "user-1",
	}

	require.NotPanics(t, func() {
		result, err := o.Drive(context.Background(), reversal, "Bearer tok")
		require.NoError(t, err)
		assert.Equal(t, entities.TransactionStatusCompleted, result.Status)
	})
}

// TestDrive_ReversalOfWithdrawalHasNoDebitLeg is the mirror case: a
// reversed WITHDRAWAL produces a row with only ToAccount set, which
// previously panicked runDebitLeg on a nil *tx.FromAccount.
func TestDrive_ReversalOfWithdrawalHasNoDebitLeg(t *testing.T) {
	txRepo := &mockTxRepo{}
	account := &mockAccountClient{}
	logger := zap.NewNop()

	account.On("ApplyBalanceOp", mock.Anything, "acc-from", mock.Anything, mock.Anything).
		Return(&accountclient.BalanceOpResult{Applied: true, Status: "APPLIED"}, nil)
	txRepo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	o := New(txRepo, account, noLimits(logger), logger)

	to := "acc-from"
	reversal := &entities.Transaction{
		ID:              uuid.New(),
		Type:            entities.TransactionTypeReversal,
		Status:          entities.TransactionStatusPending,
		ProcessingState: entities.ProcessingStateInitiated,
		FromAccount:     nil,
		ToAccount:       &to,
		Amount:          dec("50.00"),
		Currency:        "USD",
		CreatedBy:       "user-1",
	}

	require.NotPanics(t, func() {
		result, err := o.Drive(context.Background(), reversal, "Bearer tok")
		require.NoError(t, err)
		assert.Equal(t, entities.TransactionStatusCompleted, result.Status)
	})
}

func TestValidateShape_RejectsNonPositiveAmount(t *testing.T) {
	to := "acc-to"
	err := validateShape(Request{Type: entities.TransactionTypeDeposit, ToAccount: &to, Amount: dec("0")})
	require.Error(t, err)
}

type simpleErr struct{ msg string }

func (e *simpleErr) Error() string { return e.msg }

func assertErr() error { return &simpleErr{msg: "upstream unavailable"} }
