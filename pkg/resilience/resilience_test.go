package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerflow/txncore/pkg/errors"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryPolicy.InitialBackoff = time.Millisecond
	cfg.RetryPolicy.MaxBackoff = 5 * time.Millisecond
	cfg.Deadline = 50 * time.Millisecond
	return cfg
}

func TestWrapper_SucceedsAfterTransientFailures(t *testing.T) {
	w := New("account-service", fastConfig(), zap.NewNop())

	attempts := 0
	err := w.Call(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.UpstreamUnavailable("account-service")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWrapper_NonRetryableFailsImmediately(t *testing.T) {
	w := New("account-service", fastConfig(), zap.NewNop())

	attempts := 0
	err := w.Call(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.AccountNotFound("acc-1")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWrapper_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryPolicy.MaxRetries = 2
	w := New("account-service", cfg, zap.NewNop())

	attempts := 0
	err := w.Call(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.UpstreamUnavailable("account-service")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial + 2 retries
}
