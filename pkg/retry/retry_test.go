package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndbelov/stockwear/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) retry.RetryConfig {
	return retry.RetryConfig{
		MaxAttempts: maxAttempts,
		Backoff:     retry.LinearBackoff(time.Millisecond),
	}
}

func TestDoWithResult(t *testing.T) {
	t.Run("FirstAttemptSucceeds", func(t *testing.T) {
		calls := 0
		got, err := retry.DoWithResult(t.Context(), fastConfig(3),
			func() (int, error) {
				calls++
				return 42, nil
			})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 1, calls)
	})

	t.Run("SucceedsAfterRetries", func(t *testing.T) {
		calls := 0
		got, err := retry.DoWithResult(t.Context(), fastConfig(3),
			func() (string, error) {
				calls++
				if calls < 3 {
					return "", errors.New("not yet")
				}
				return "ready", nil
			})
		require.NoError(t, err)
		assert.Equal(t, "ready", got)
		assert.Equal(t, 3, calls)
	})

	t.Run("ExhaustsAttempts", func(t *testing.T) {
		wantErr := errors.New("still failing")
		calls := 0
		_, err := retry.DoWithResult(t.Context(), fastConfig(3),
			func() (int, error) {
				calls++
				return 0, wantErr
			})
		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, 3, calls)
	})

	t.Run("NonRetryableReturnsImmediately", func(t *testing.T) {
		fatal := errors.New("fatal")
		cfg := fastConfig(5)
		cfg.ShouldRetry = func(err error) bool {
			return !errors.Is(err, fatal)
		}

		calls := 0
		_, err := retry.DoWithResult(t.Context(), cfg,
			func() (int, error) {
				calls++
				return 0, fatal
			})
		require.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		calls := 0
		_, err := retry.DoWithResult(ctx, fastConfig(3),
			func() (int, error) {
				calls++
				return 0, errors.New("unreachable")
			})
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})

	t.Run("CanceledBetweenAttempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())

		attemptErr := errors.New("transient")
		_, err := retry.DoWithResult(ctx, fastConfig(10),
			func() (int, error) {
				cancel()
				return 0, attemptErr
			})
		require.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, attemptErr)
	})
}

func TestDo(t *testing.T) {
	calls := 0
	err := retry.Do(t.Context(), fastConfig(2), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
