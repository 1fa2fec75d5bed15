package retry

import "time"

// EventType names a step in a retried call.
type EventType string

const (
	EventAttemptStart  EventType = "attempt_start"
	EventAttemptFailed EventType = "attempt_failed"
	EventRetrying      EventType = "retrying"
	EventSuccess       EventType = "success"
	// EventExhausted means the last allowed attempt hit a rate limit.
	EventExhausted EventType = "exhausted"
)

// Event reports progress of a DoWithEvents call.
type Event struct {
	Type EventType

	// Attempt counts from 1. The first call is attempt 1.
	Attempt     int
	MaxAttempts int

	// Error is set on failed, retrying and exhausted events.
	Error error

	// Delay is the wait before the next attempt. Only set on EventRetrying.
	Delay time.Duration

	// Retryable is true when Error is a rate limit error.
	Retryable bool

	Timestamp time.Time
}

// emit stamps event and sends it on ch, dropping it when ch is nil or full.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
	}
}
