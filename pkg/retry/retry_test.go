package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
	assert.Nil(t, cfg.Retryable)
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first time", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(3), func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("succeeds after retries", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(3), func() error {
			calls++
			if calls < 3 {
				return errors.New("temporary")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := Do(ctx, fastConfig(3), func() error {
			calls++
			return errors.New("persistent")
		})
		assert.EqualError(t, err, "persistent")
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		cfg := fastConfig(5)
		cfg.Retryable = IsConnectionError

		calls := 0
		err := Do(ctx, cfg, func() error {
			calls++
			return errors.New("syntax error at or near")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries connection errors", func(t *testing.T) {
		cfg := fastConfig(3)
		cfg.Retryable = IsConnectionError

		calls := 0
		err := Do(ctx, cfg, func() error {
			calls++
			return errors.New("dial tcp 127.0.0.1:5432: connection refused")
		})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("reports retries", func(t *testing.T) {
		cfg := fastConfig(3)
		var seen []int
		cfg.OnRetry = func(attempt int, _ error, _ time.Duration) {
			seen = append(seen, attempt)
		}

		_ = Do(ctx, cfg, func() error { return errors.New("boom") })
		assert.Equal(t, []int{1, 2}, seen)
	})

	t.Run("invalid config", func(t *testing.T) {
		err := Do(ctx, fastConfig(0), func() error { return nil })
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("context cancelled while waiting", func(t *testing.T) {
		cctx, cancel := context.WithCancel(context.Background())
		cfg := fastConfig(10)
		cfg.InitialDelay = time.Second
		cfg.MaxDelay = time.Second

		calls := 0
		err := Do(cctx, cfg, func() error {
			calls++
			cancel()
			return errors.New("boom")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("first fails")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestBackoff(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, backoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, backoff(1, cfg))
	assert.Equal(t, 800*time.Millisecond, backoff(3, cfg))
	assert.Equal(t, time.Second, backoff(10, cfg))
	assert.Equal(t, 100*time.Millisecond, backoff(-1, cfg))
}

func TestWithJitter(t *testing.T) {
	base := time.Second
	for i := 0; i < 50; i++ {
		d := withJitter(base)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), withJitter(0))
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, IsConnectionError(nil))
	assert.True(t, IsConnectionError(errors.New("FATAL: the database system is starting up")))
	assert.True(t, IsConnectionError(errors.New("read: Connection Reset by peer")))
	assert.False(t, IsConnectionError(errors.New("relation \"projects\" does not exist")))
}
