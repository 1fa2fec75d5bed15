package client

import (
	"time"

	"github.com/spetersoncode/gemlink"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	// EventRequestStart fires after the rate limiter grants a slot, right
	// before the provider call.
	EventRequestStart EventType = "request_start"

	// EventRequestComplete fires after a provider call succeeds. For streams
	// it fires once the provider stream has finished.
	EventRequestComplete EventType = "request_complete"

	// EventRequestError fires when a provider call fails.
	EventRequestError EventType = "request_error"
)

// Operation names reported in events and logs.
const (
	OpGenerate     = "generate"
	OpStream       = "generate_stream"
	OpAnalyzeImage = "analyze_image"
	OpTools        = "generate_with_tools"
	OpCountTokens  = "count_tokens"
	OpEmbed        = "embed"
	OpListModels   = "list_models"
)

// Event represents an observable occurrence during client operations.
type Event struct {
	// Type identifies the kind of event.
	Type EventType

	// Operation identifies the API operation, one of the Op constants.
	Operation string

	// RequestID correlates the events of one call.
	RequestID string

	// Model is the model name being used (empty for list_models).
	Model string

	// Duration is the elapsed time for finished requests.
	Duration time.Duration

	// Usage contains token usage when the provider reported it.
	Usage *gemlink.Usage

	// Error contains the classified error for EventRequestError.
	Error *gemlink.Error

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
