// Package resilience implements C5, the Resilience Wrapper: a single
// call-shaped decorator composing pkg/retry's exponential backoff and
// pkg/circuitbreaker's gobreaker-backed trip state around every
// Account-Balance Client call, with a hard per-call deadline.
package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/pkg/circuitbreaker"
	"github.com/ledgerflow/txncore/pkg/errors"
	"github.com/ledgerflow/txncore/pkg/retry"
)

// Config holds the deadline/retry/breaker knobs for one downstream
// dependency.
type Config struct {
	Deadline    time.Duration
	RetryPolicy retry.Policy
	Breaker     circuitbreaker.Config
}

// DefaultConfig matches §4.5's defaults: 5s deadline, 3 retries with
// 1s base backoff, a 10-request window tripping at 50% failures, and
// a 30s open-state dwell with 3 half-open probes.
func DefaultConfig() Config {
	return Config{
		Deadline: 5 * time.Second,
		RetryPolicy: retry.Policy{
			MaxRetries:     3,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     8 * time.Second,
			Multiplier:     2.0,
			Jitter:         0.1,
		},
		Breaker: circuitbreaker.Config{
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
		},
	}
}

// Wrapper is C5: wraps a named downstream operation with a deadline,
// retry-with-backoff, and a circuit breaker, in that composition
// order (deadline innermost, breaker outermost — a tripped breaker
// never even starts the clock).
type Wrapper struct {
	name    string
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func New(name string, cfg Config, logger *zap.Logger) *Wrapper {
	return &Wrapper{
		name:    name,
		cfg:     cfg,
		breaker: circuitbreaker.New(name, cfg.Breaker),
		logger:  logger,
	}
}

// Call runs fn under the breaker, retrying transient failures up to
// cfg.RetryPolicy.MaxRetries times, each attempt bounded by
// cfg.Deadline. A request the breaker refuses to admit returns
// errors.CircuitOpen without ever invoking fn.
func (w *Wrapper) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := 0
	backoff := retry.NewBackoff(w.cfg.RetryPolicy)

	for {
		_, err := w.breaker.Execute(func() (interface{}, error) {
			callCtx, cancel := context.WithTimeout(ctx, w.cfg.Deadline)
			defer cancel()
			return nil, fn(callCtx)
		})

		if err == nil {
			return nil
		}
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			w.logger.Warn("circuit breaker refused request", zap.String("dependency", w.name))
			return errors.CircuitOpen(w.name)
		}

		if !errors.IsRetryable(err) || attempt >= w.cfg.RetryPolicy.MaxRetries {
			return err
		}

		delay := backoff.Calculate(attempt + 1)
		w.logger.Warn("retrying resilient call",
			zap.String("dependency", w.name), zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		attempt++
	}
}
