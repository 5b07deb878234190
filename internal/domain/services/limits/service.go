// Package limits implements C2 (Limit Store) and C6 (Limit Enforcer):
// a cached, Postgres-backed lookup of per (account-type, transaction-
// type) limits, and the usage check the orchestrator runs before it
// debits or credits an account.
package limits

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/internal/domain/entities"
	"github.com/ledgerflow/txncore/internal/domain/repositories"
	"github.com/ledgerflow/txncore/pkg/errors"
)

// Cache is the narrow surface the Limit Store caches lookups through;
// internal/infrastructure/cache.Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// UsageRepository is the subset of TransactionRepository the enforcer
// needs to compute current usage.
type UsageRepository interface {
	AggregateUsage(ctx context.Context, accountID string, txType entities.TransactionType, window entities.UsageWindow) (entities.UsageAggregate, error)
}

// Service backs both C2 and C6: it owns the cached limit lookup and
// the usage-vs-limit comparison the orchestrator calls before moving
// money.
type Service struct {
	limitRepo  repositories.LimitRepository
	usageRepo  UsageRepository
	cache      Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

func NewService(limitRepo repositories.LimitRepository, usageRepo UsageRepository, cache Cache, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if cacheTTL <= 0 || cacheTTL > 60*time.Second {
		cacheTTL = 30 * time.Second
	}
	return &Service{
		limitRepo: limitRepo,
		usageRepo: usageRepo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func cacheKey(accountType string, txType entities.TransactionType) string {
	return fmt.Sprintf("limit:%s:%s", accountType, txType)
}

// FindActive is C2's findActive(accountType, type) -> limit | none,
// cached with a TTL of at most 60s (§4.2).
func (s *Service) FindActive(ctx context.Context, accountType string, txType entities.TransactionType) (*entities.TransactionLimit, error) {
	key := cacheKey(accountType, txType)

	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		if cached == "none" {
			return nil, nil
		}
		var limit entities.TransactionLimit
		if err := json.Unmarshal([]byte(cached), &limit); err == nil {
			return &limit, nil
		}
	}

	limit, err := s.limitRepo.FindActive(ctx, accountType, txType)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction limit: %w", err)
	}

	if limit == nil {
		_ = s.cache.Set(ctx, key, "none", s.cacheTTL)
		return nil, nil
	}
	if encoded, err := json.Marshal(limit); err == nil {
		_ = s.cache.Set(ctx, key, encoded, s.cacheTTL)
	}
	return limit, nil
}

// Invalidate drops the cached lookup for (accountType, type); called
// after an administrative limit mutation (§4.2 "invalidated on
// explicit admin mutation").
func (s *Service) Invalidate(ctx context.Context, accountType string, txType entities.TransactionType) error {
	return s.cache.Del(ctx, cacheKey(accountType, txType))
}

// Enforce is C6: for a candidate transaction on accountID, it loads
// the configured limit and current daily/monthly usage and rejects
// with errors.LimitExceeded if any configured bound would be
// exceeded. A nil column disables that particular check (§3).
func (s *Service) Enforce(ctx context.Context, accountType, accountID string, txType entities.TransactionType, amount decimal.Decimal) error {
	limit, err := s.FindActive(ctx, accountType, txType)
	if err != nil {
		return err
	}
	if limit == nil {
		return nil
	}

	if limit.PerTxLimit != nil && amount.GreaterThan(*limit.PerTxLimit) {
		return errors.LimitExceeded("per-transaction limit exceeded")
	}

	if limit.DailyLimit != nil || limit.DailyCount != nil {
		daily, err := s.usageRepo.AggregateUsage(ctx, accountID, txType, entities.UsageWindowDay)
		if err != nil {
			return fmt.Errorf("failed to aggregate daily usage: %w", err)
		}
		if limit.DailyLimit != nil && amount.Add(daily.SumAmount).GreaterThan(*limit.DailyLimit) {
			return errors.LimitExceeded("daily withdrawal limit exceeded")
		}
		if limit.DailyCount != nil && daily.Count+1 > *limit.DailyCount {
			return errors.LimitExceeded("daily transaction count limit exceeded")
		}
	}

	if limit.MonthlyLimit != nil || limit.MonthlyCount != nil {
		monthly, err := s.usageRepo.AggregateUsage(ctx, accountID, txType, entities.UsageWindowMonth)
		if err != nil {
			return fmt.Errorf("failed to aggregate monthly usage: %w", err)
		}
		if limit.MonthlyLimit != nil && amount.Add(monthly.SumAmount).GreaterThan(*limit.MonthlyLimit) {
			return errors.LimitExceeded("monthly withdrawal limit exceeded")
		}
		if limit.MonthlyCount != nil && monthly.Count+1 > *limit.MonthlyCount {
			return errors.LimitExceeded("monthly transaction count limit exceeded")
		}
	}

	return nil
}
