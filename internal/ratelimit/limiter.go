// Package ratelimit spaces outgoing provider requests so that a client never
// exceeds its requests-per-minute budget.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter grants at most one request per interval, where the interval is one
// minute divided by the budget. It is safe for concurrent use; concurrent
// callers are queued and each is granted its own slot.
type Limiter struct {
	limiter  *rate.Limiter
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	lastGrant time.Time
}

// New creates a limiter for requestsPerMinute requests. A nil logger is
// replaced with a no-op logger.
func New(requestsPerMinute int, logger *zap.Logger) (*Limiter, error) {
	if requestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive, got %d", requestsPerMinute)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	interval := time.Minute / time.Duration(requestsPerMinute)
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		logger:   logger,
	}, nil
}

// Interval returns the minimum spacing between two grants.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the caller may issue a request or ctx is done.
// A cancelled wait does not consume a slot.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		l.logger.Debug("rate limit wait aborted", zap.Error(err))
		return err
	}

	now := time.Now()
	l.mu.Lock()
	l.lastGrant = now
	l.mu.Unlock()

	if waited := now.Sub(start); waited > time.Millisecond {
		l.logger.Debug("rate limit delayed request",
			zap.Duration("waited", waited),
			zap.Duration("interval", l.interval),
		)
	}
	return nil
}

// LastGrant returns the time of the most recent successful Wait, or the zero
// time if none has completed.
func (l *Limiter) LastGrant() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastGrant
}
