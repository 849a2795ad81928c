package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		IsRetryable:  func(error) bool { return true },
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		return errors.New("still broken")
	})

	require.ErrorIs(t, err, ErrMaxAttemptsExceeded)
	assert.Equal(t, 3, attempts)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	cfg := fastConfig()
	cfg.IsRetryable = func(error) bool { return false }

	attempts := 0
	sentinel := errors.New("permanent")
	err := Do(context.Background(), cfg, func() error {
		attempts++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), func() error { return errors.New("x") })
	assert.ErrorIs(t, err, ErrContextCancelled)
}

func TestDefaultIsRetryable(t *testing.T) {
	assert.True(t, DefaultIsRetryable(errors.New("dial tcp: i/o timeout")))
	assert.True(t, DefaultIsRetryable(errors.New("connection refused")))
	assert.False(t, DefaultIsRetryable(errors.New("invalid request payload")))
	assert.False(t, DefaultIsRetryable(nil))
}
