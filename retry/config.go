// Package retry re-runs client calls that failed with a rate limit error,
// backing off exponentially between attempts.
//
// The client never retries on its own. Callers opt in per call:
//
//	resp, err := retry.Do(ctx, retry.DefaultConfig(), func() (*gemlink.Response, error) {
//	    return c.Generate(ctx, prompt)
//	})
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts (default: 5).
	// The initial request counts as attempt 1.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry (default: 1s).
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries (default: 60s).
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier (default: 2.0).
	Multiplier float64

	// Jitter adds randomness to prevent thundering herd (default: 0.1 = 10%).
	// Delay is multiplied by (1 + random(-jitter, +jitter)).
	Jitter float64
}

// DefaultConfig returns the default retry configuration.
// - 5 max attempts
// - 1 second initial delay
// - 60 second max delay
// - 2x exponential multiplier
// - 10% jitter
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Disabled returns a configuration that disables retries (single attempt).
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// backOff builds the backoff policy for one Do call. It stops after
// MaxAttempts-1 retries or when ctx is done.
func (c Config) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if c.InitialDelay > 0 {
		eb.InitialInterval = c.InitialDelay
	}
	if c.MaxDelay > 0 {
		eb.MaxInterval = c.MaxDelay
	}
	if c.Multiplier > 0 {
		eb.Multiplier = c.Multiplier
	}
	eb.RandomizationFactor = c.Jitter
	eb.MaxElapsedTime = 0
	eb.Reset()

	retries := c.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
