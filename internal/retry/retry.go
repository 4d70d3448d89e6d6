package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nokia/mcp-redfish/pkg/logging"
)

// Config holds the retry knobs. The zero value is not usable; use
// DefaultConfig or config.RetryFromEnv.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt, so
	// an operation runs at most MaxRetries+1 times.
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// Jitter randomizes each wait around the exponential curve. Without
	// it the waits follow the curve exactly.
	Jitter bool
}

// DefaultConfig returns the retry defaults: 3 retries, 1s initial delay
// doubling up to 60s, with jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// Policy executes operations under bounded exponential backoff,
// retrying transport failures and failing fast on validation errors.
type Policy struct {
	cfg Config
}

// NewPolicy builds a Policy from cfg, clamping nonsensical values to
// the defaults.
func NewPolicy(cfg Config) *Policy {
	def := DefaultConfig()
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = def.BackoffFactor
	}
	return &Policy{cfg: cfg}
}

// Config returns the effective configuration of the policy.
func (p *Policy) Config() Config {
	return p.cfg
}

func (p *Policy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialDelay
	b.MaxInterval = p.cfg.MaxDelay
	b.Multiplier = p.cfg.BackoffFactor
	b.MaxElapsedTime = 0 // attempts are bounded by count, not wall time
	if p.cfg.Jitter {
		b.RandomizationFactor = 0.5
	} else {
		b.RandomizationFactor = 0
	}
	b.Reset()
	return b
}

// Do runs fn until it succeeds, fails with a non-retryable error, or
// MaxRetries+1 attempts are used up. Waits between attempts are blocking
// sleeps local to the caller; no locks are held while waiting. On
// exhaustion the last error is wrapped in an ExhaustedError.
func (p *Policy) Do(ctx context.Context, op string, fn func() error) error {
	b := p.newBackOff()
	attempts := p.cfg.MaxRetries + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		err = fn()
		if err == nil {
			if attempt > 1 {
				logging.Info("Retry", "%s succeeded on attempt %d/%d", op, attempt, attempts)
			}
			return nil
		}
		if !Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := b.NextBackOff()
		logging.Warn("Retry", "%s failed on attempt %d/%d, retrying in %s: %v", op, attempt, attempts, wait, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return &ExhaustedError{Op: op, Attempts: attempts, Err: err}
}
