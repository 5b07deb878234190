// Package sweeper implements the crash-recovery replay worker §4.7
// calls for: a transaction that crashed between a processing-state
// write and its next leg is left in a non-terminal state forever
// unless something re-drives it. Grounded on the poll-loop/semaphore
// scheduler shape of internal/workers/wallet_provisioning/scheduler.go.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/pkg/pagination"
)

// Driver resumes a persisted transaction's state machine from
// whatever processing-state it holds — satisfied by
// *orchestrator.Orchestrator.
type Driver interface {
	Drive(ctx context.Context, tx *entities.Transaction, bearer string) (*entities.Transaction, error)
}

// Config mirrors the teacher's SchedulerConfig shape.
type Config struct {
	PollInterval    time.Duration
	MaxConcurrency  int
	BatchSize       int
	StuckAfter      time.Duration
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:    30 * time.Second,
		MaxConcurrency:  5,
		BatchSize:       50,
		StuckAfter:      2 * time.Minute,
		ShutdownTimeout: 60 * time.Second,
	}
}

// Sweeper periodically finds transactions stuck in a non-terminal
// processing state past Config.StuckAfter and replays them through
// Driver. ServiceBearer authenticates the replay calls to the
// Account Service as the system principal, not the original caller.
type Sweeper struct {
	txRepo        repositories.TransactionRepository
	driver        Driver
	config        Config
	serviceBearer string
	logger        *zap.Logger

	semaphore chan struct{}
	wg        sync.WaitGroup

	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	mu        sync.RWMutex
}

func New(txRepo repositories.TransactionRepository, driver Driver, config Config, serviceBearer string, logger *zap.Logger) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		txRepo:        txRepo,
		driver:        driver,
		config:        config,
		serviceBearer: serviceBearer,
		logger:        logger,
		semaphore:     make(chan struct{}, config.MaxConcurrency),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (s *Sweeper) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("sweeper is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.logger.Info("starting transaction sweeper",
		zap.Duration("poll_interval", s.config.PollInterval),
		zap.Duration("stuck_after", s.config.StuckAfter))

	go s.pollLoop()
	return nil
}

func (s *Sweeper) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("sweeper is not running")
	}
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sweeper stopped gracefully")
	case <-time.After(s.config.ShutdownTimeout):
		s.logger.Warn("sweeper shutdown timeout reached, some replays may be abandoned mid-flight")
	}

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
	return nil
}

func (s *Sweeper) pollLoop() {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	stuck, err := s.findStuck(s.ctx)
	if err != nil {
		s.logger.Error("failed to list stuck transactions", zap.Error(err))
		return
	}
	if len(stuck) == 0 {
		return
	}
	s.logger.Info("found stuck transactions to replay", zap.Int("count", len(stuck)))

	for _, tx := range stuck {
		s.enqueue(tx)
	}
}

// findStuck pages non-terminal transactions; a dedicated repository
// query is the cleaner long-term shape, but Page's existing status
// filter already covers the processing states the saga can be stuck
// in, so the sweeper composes from it rather than growing C3's
// interface for a single background caller.
func (s *Sweeper) findStuck(ctx context.Context) ([]*entities.Transaction, error) {
	var stuck []*entities.Transaction
	cutoff := time.Now().Add(-s.config.StuckAfter)

	for _, status := range []entities.TransactionStatus{entities.TransactionStatusPending, entities.TransactionStatusProcessing} {
		st := status
		page := pagination.LegacyPagination{Page: 1, PageSize: s.config.BatchSize}
		txs, _, err := s.txRepo.Page(ctx, repositories.TransactionFilter{Status: &st}, page)
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			if tx.CreatedAt.Before(cutoff) && !tx.Status.IsTerminal() {
				stuck = append(stuck, tx)
			}
		}
	}
	return stuck, nil
}

func (s *Sweeper) enqueue(tx *entities.Transaction) {
	select {
	case <-s.ctx.Done():
		return
	case s.semaphore <- struct{}{}:
		s.wg.Add(1)
		go s.replay(tx)
	default:
		s.logger.Warn("sweeper concurrency limit reached, will retry next poll",
			zap.String("transaction_id", tx.ID.String()))
	}
}

func (s *Sweeper) replay(tx *entities.Transaction) {
	defer func() {
		<-s.semaphore
		s.wg.Done()
		if r := recover(); r != nil {
			s.logger.Error("panic while replaying stuck transaction", zap.Any("panic", r), zap.String("transaction_id", tx.ID.String()))
		}
	}()

	if _, err := s.driver.Drive(s.ctx, tx, s.serviceBearer); err != nil {
		s.logger.Error("replay of stuck transaction did not reach a clean terminal state",
			zap.String("transaction_id", tx.ID.String()), zap.Error(err))
	}
}
