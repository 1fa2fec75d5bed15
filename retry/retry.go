package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/spetersoncode/gemlink"
)

// Retryable reports whether err is worth another attempt. Only rate limit
// errors are; authentication, safety and unknown failures are final.
func Retryable(err error) bool {
	return gemlink.IsRateLimit(err)
}

// Do executes fn, retrying rate limit errors with exponential backoff.
// It respects context cancellation during backoff waits.
// Returns the result on success, or the last error if all attempts fail.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoWithEvents(ctx, cfg, nil, fn)
}

// DoStream is like Do but for functions that return a channel.
// It retries opening the stream, not individual chunks.
func DoStream[T any](ctx context.Context, cfg Config, fn func() (<-chan T, error)) (<-chan T, error) {
	return Do(ctx, cfg, fn)
}

// DoWithEvents is like Do but emits events for observability.
// Events are sent non-blocking; if the channel is full, events are dropped.
// Pass nil for events to disable event emission (equivalent to Do).
func DoWithEvents[T any](ctx context.Context, cfg Config, events chan<- Event, fn func() (T, error)) (T, error) {
	maxAttempts := max(cfg.MaxAttempts, 1)
	attempt := 0

	operation := func() (T, error) {
		attempt++
		emit(events, Event{Type: EventAttemptStart, Attempt: attempt, MaxAttempts: maxAttempts})

		result, err := fn()
		if err == nil {
			emit(events, Event{Type: EventSuccess, Attempt: attempt, MaxAttempts: maxAttempts})
			return result, nil
		}

		retryable := Retryable(err)
		emit(events, Event{
			Type:        EventAttemptFailed,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Error:       err,
			Retryable:   retryable,
		})
		if !retryable {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	notify := func(err error, delay time.Duration) {
		emit(events, Event{
			Type:        EventRetrying,
			Attempt:     attempt,
			MaxAttempts: maxAttempts,
			Error:       err,
			Delay:       delay,
		})
	}

	result, err := backoff.RetryNotifyWithData(operation, cfg.backOff(ctx), notify)
	if err != nil && attempt >= maxAttempts && Retryable(err) {
		emit(events, Event{Type: EventExhausted, Attempt: attempt, MaxAttempts: maxAttempts, Error: err})
	}
	return result, err
}
