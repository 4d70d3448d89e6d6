package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastConfig keeps the waits negligible so tests do not sleep.
func fastConfig(maxRetries int) Config {
	return Config{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Microsecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 2.0,
		Jitter:        false,
	}
}

func TestDoSucceedsAfterRetryableFailures(t *testing.T) {
	p := NewPolicy(fastConfig(3))

	calls := 0
	err := p.Do(context.Background(), "GET /redfish/v1", func() error {
		calls++
		if calls <= 2 {
			return &TransportError{Op: "GET /redfish/v1", Err: errors.New("connection reset")}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls, "two failures followed by success must use exactly three attempts")
}

func TestDoExhaustsAfterMaxAttempts(t *testing.T) {
	p := NewPolicy(fastConfig(3))

	calls := 0
	cause := &TransportError{Op: "login", Err: errors.New("connection refused")}
	err := p.Do(context.Background(), "login", func() error {
		calls++
		return cause
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls, "MaxRetries=3 means 4 total attempts")

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.Equal(t, "login", exhausted.Op)
	assert.ErrorIs(t, err, cause.Err, "original cause must survive wrapping")
}

func TestDoFailsFastOnValidationError(t *testing.T) {
	p := NewPolicy(fastConfig(5))

	calls := 0
	err := p.Do(context.Background(), "login", func() error {
		calls++
		return Validationf("invalid auth_method: %q", "digest")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "validation errors must not be retried")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted), "fail-fast must not look like exhaustion")
}

func TestDoWrappedValidationErrorNotRetried(t *testing.T) {
	p := NewPolicy(fastConfig(5))

	calls := 0
	err := p.Do(context.Background(), "login", func() error {
		calls++
		// A transport tag wrapping a validation error: validation wins.
		return &TransportError{
			Op:  "login",
			Err: fmt.Errorf("session setup: %w", Validationf("unknown host")),
		}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	p := NewPolicy(Config{
		MaxRetries:    10,
		InitialDelay:  time.Hour, // would block forever without cancellation
		MaxDelay:      time.Hour,
		BackoffFactor: 2.0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, "GET /redfish/v1", func() error {
		calls++
		return &TransportError{Op: "GET /redfish/v1", Err: errors.New("timeout")}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"transport tag", &TransportError{Op: "GET", Err: errors.New("boom")}, true},
		{"validation tag", Validationf("bad input"), false},
		{"validation nested in transport", &TransportError{Op: "GET", Err: Validationf("bad input")}, false},
		{"wrapped transport tag", fmt.Errorf("tool call: %w", &TransportError{Op: "GET", Err: errors.New("boom")}), true},
		{"raw net.OpError", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"raw dns error", &net.DNSError{Err: "no such host", Name: "bmc.example"}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"os deadline", os.ErrDeadlineExceeded, true},
		{"syscall error", os.NewSyscallError("read", syscall.ECONNRESET), true},
		{"plain error", errors.New("unexpected payload"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, Retryable(tt.err))
		})
	}
}

func TestNewPolicyClampsBadValues(t *testing.T) {
	p := NewPolicy(Config{MaxRetries: -1, InitialDelay: -time.Second, MaxDelay: 0, BackoffFactor: 0.5})
	cfg := p.Config()

	def := DefaultConfig()
	assert.Equal(t, def.MaxRetries, cfg.MaxRetries)
	assert.Equal(t, def.InitialDelay, cfg.InitialDelay)
	assert.GreaterOrEqual(t, cfg.MaxDelay, cfg.InitialDelay)
	assert.Equal(t, def.BackoffFactor, cfg.BackoffFactor)
}

func TestExhaustedErrorMessage(t *testing.T) {
	err := &ExhaustedError{Op: "GET /redfish/v1/Systems", Attempts: 4, Err: errors.New("i/o timeout")}
	assert.Equal(t, "GET /redfish/v1/Systems failed after 4 attempts: i/o timeout", err.Error())
}
