package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRetryHandler(t *testing.T) {
	t.Run("with all config", func(t *testing.T) {
		cfg := RetryConfig{
			MaxRetries:     5,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.5,
		}
		handler := NewRetryHandler(cfg)
		require.NotNil(t, handler)
		require.Equal(t, 5, handler.cfg.MaxRetries)
		require.Equal(t, 100*time.Millisecond, handler.cfg.InitialBackoff)
		require.Equal(t, 2*time.Second, handler.cfg.MaxBackoff)
		require.Equal(t, 2.5, handler.cfg.Multiplier)
	})

	t.Run("with defaults", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{})
		require.NotNil(t, handler)
		require.Equal(t, defaultInitialBackoff, handler.cfg.InitialBackoff)
		require.Equal(t, defaultMaxBackoff, handler.cfg.MaxBackoff)
		require.Equal(t, defaultBackoffFactor, handler.cfg.Multiplier)
		require.Equal(t, 0, handler.cfg.MaxRetries)
	})

	t.Run("negative values use defaults", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{
			MaxRetries:     -1,
			InitialBackoff: -100 * time.Millisecond,
			MaxBackoff:     -2 * time.Second,
			Multiplier:     0.5,
		})
		require.NotNil(t, handler)
		require.Equal(t, 0, handler.cfg.MaxRetries)
		require.Equal(t, defaultInitialBackoff, handler.cfg.InitialBackoff)
		require.Equal(t, defaultMaxBackoff, handler.cfg.MaxBackoff)
		require.Equal(t, defaultBackoffFactor, handler.cfg.Multiplier)
	})
}

func TestRetryHandlerDo(t *testing.T) {
	t.Run("success on first try", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{MaxRetries: 3})
		callCount := 0
		err := handler.Do(context.Background(), func() error {
			callCount++
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 1, callCount)
	})

	t.Run("success on retry", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{MaxRetries: 3, InitialBackoff: 10 * time.Millisecond})
		callCount := 0
		err := handler.Do(context.Background(), func() error {
			callCount++
			if callCount < 3 {
				return &StatusError{StatusCode: http.StatusTooManyRequests}
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, callCount)
	})

	t.Run("exhausted retries", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{MaxRetries: 2, InitialBackoff: 10 * time.Millisecond})
		callCount := 0
		err := handler.Do(context.Background(), func() error {
			callCount++
			return &StatusError{StatusCode: http.StatusTooManyRequests}
		})
		require.Error(t, err)
		require.Equal(t, 3, callCount) // initial + 2 retries
	})

	t.Run("context canceled mid-retry", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{MaxRetries: 3, InitialBackoff: 100 * time.Millisecond})
		ctx, cancel := context.WithCancel(context.Background())
		callCount := 0
		err := handler.Do(ctx, func() error {
			callCount++
			if callCount == 1 {
				cancel()
			}
			return &StatusError{StatusCode: http.StatusTooManyRequests}
		})
		require.Error(t, err)
		require.Equal(t, context.Canceled, err)
	})

	t.Run("non-retryable error stops immediately", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{MaxRetries: 3})
		callCount := 0
		err := handler.Do(context.Background(), func() error {
			callCount++
			return &StatusError{StatusCode: http.StatusBadRequest}
		})
		require.Error(t, err)
		require.Equal(t, 1, callCount)
	})
}

func TestShouldRetry(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		require.False(t, ShouldRetry(nil))
	})

	t.Run("context canceled/deadline", func(t *testing.T) {
		require.False(t, ShouldRetry(context.Canceled))
		require.False(t, ShouldRetry(context.DeadlineExceeded))
	})

	t.Run("retryable status codes", func(t *testing.T) {
		for _, code := range []int{
			http.StatusTooManyRequests,
			http.StatusRequestTimeout,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		} {
			require.True(t, ShouldRetry(&StatusError{StatusCode: code}), "status %d should retry", code)
		}
	})

	t.Run("non-retryable status codes", func(t *testing.T) {
		for _, code := range []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		} {
			require.False(t, ShouldRetry(&StatusError{StatusCode: code}), "status %d should not retry", code)
		}
	})

	t.Run("temporary network error", func(t *testing.T) {
		require.True(t, ShouldRetry(&temporaryError{msg: "timeout"}))
	})

	t.Run("non-temporary network error", func(t *testing.T) {
		require.False(t, ShouldRetry(&nonTemporaryError{msg: "permanent"}))
	})

	t.Run("net.OpError is retryable", func(t *testing.T) {
		err := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		require.True(t, ShouldRetry(err))
	})

	t.Run("generic error is not retryable", func(t *testing.T) {
		require.False(t, ShouldRetry(errors.New("generic error")))
	})

	t.Run("wrapped status error", func(t *testing.T) {
		wrapped := errors.Join(errors.New("wrapper"), &StatusError{StatusCode: http.StatusTooManyRequests})
		require.True(t, ShouldRetry(wrapped))
	})
}

type temporaryError struct{ msg string }

func (e *temporaryError) Error() string   { return e.msg }
func (e *temporaryError) Temporary() bool { return true }
func (e *temporaryError) Timeout() bool   { return false }

type nonTemporaryError struct{ msg string }

func (e *nonTemporaryError) Error() string   { return e.msg }
func (e *nonTemporaryError) Temporary() bool { return false }
func (e *nonTemporaryError) Timeout() bool   { return false }
