package retrylimit

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string   { return "status" }
func (s statusErr) StatusCode() int { return int(s) }

func fastConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	cfg.RateLimitDelay = time.Millisecond
	cfg.Jitter = false
	cfg.Logger = log.New(io.Discard)
	return cfg
}

func TestWithRetry_RetriesServerErrors(t *testing.T) {
	calls := 0
	err := WithRetryConfig(t.Context(), func() error {
		calls++
		if calls < 3 {
			return statusErr(502)
		}
		return nil
	}, nil, fastConfig())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ClientErrorStops(t *testing.T) {
	calls := 0
	err := WithRetryConfig(t.Context(), func() error {
		calls++
		return statusErr(403)
	}, nil, fastConfig())

	assert.Equal(t, 403, StatusCode(err))
	assert.Equal(t, 1, calls)
}

func TestWithRetry_FatalStops(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := WithRetryConfig(t.Context(), func() error {
		calls++
		return &FatalError{Err: boom}
	}, nil, fastConfig())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_MaxAttempts(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 2
	calls := 0
	boom := errors.New("boom")

	err := WithRetryConfig(t.Context(), func() error {
		calls++
		return boom
	}, nil, cfg)

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "max attempts (2)")
	assert.Equal(t, 2, calls)
}

func TestWithRetry_RateLimitSlowsLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 1, 10, 1, 0.5)
	calls := 0

	err := WithRetryConfig(t.Context(), func() error {
		calls++
		if calls == 1 {
			return statusErr(429)
		}
		return nil
	}, lim, fastConfig())

	require.NoError(t, err)
	assert.Equal(t, 4.0, lim.CurrentLimit())
}

func TestWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetryConfig(ctx, func() error { return nil }, nil, fastConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdaptiveLimiter_Bounds(t *testing.T) {
	lim := NewAdaptiveLimiter(2, 1, 3, 5, 0.1)
	lim.Success()
	assert.Equal(t, 3.0, lim.CurrentLimit())
	assert.Equal(t, 3, lim.CurrentBurst())

	lim.RateLimited()
	assert.Equal(t, 1.0, lim.CurrentLimit())

	lim.Success()
	assert.Equal(t, 1.0, lim.CurrentLimit(), "success within cooldown keeps the rate")
}

func TestStatusCode_Wrapped(t *testing.T) {
	err := errors.Join(errors.New("ctx"), statusErr(404))
	assert.Equal(t, 404, StatusCode(err))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}
