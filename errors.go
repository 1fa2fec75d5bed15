package gemlink

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// ErrEmptyInput is returned when a required input is empty.
var ErrEmptyInput = errors.New("empty input")

// ErrMissingAPIKey is returned when a client is constructed without an API key.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrNoImageInput is returned when neither an image path nor image data is given.
var ErrNoImageInput = errors.New("either an image path or image data is required")

// ErrAmbiguousImageInput is returned when both an image path and image data are given.
var ErrAmbiguousImageInput = errors.New("image path and image data are mutually exclusive")

// ErrorKind classifies provider failures by how callers should react to them.
type ErrorKind string

const (
	// KindAuthentication indicates missing, invalid or unauthorized credentials.
	KindAuthentication ErrorKind = "authentication"

	// KindRateLimit indicates a quota or rate limit was hit. Back off and retry.
	KindRateLimit ErrorKind = "rate_limit"

	// KindSafety indicates the request or response was blocked by safety filters.
	KindSafety ErrorKind = "safety"

	// KindUnknown is everything else, including transport timeouts.
	KindUnknown ErrorKind = "unknown"
)

// String returns the kind identifier.
func (k ErrorKind) String() string { return string(k) }

// Error is a provider failure normalized into one of the fixed error kinds.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int   // HTTP status code, 0 if not applicable
	Cause      error // original provider error
}

// Error returns the error message prefixed with its kind.
func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the original provider error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable returns true for rate limit errors.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimit
}

// BlockedError indicates the prompt was blocked by content filtering.
type BlockedError struct {
	Reason  string
	Message string
}

func (e *BlockedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request blocked by safety filter: %s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("request blocked by safety filter: %s", e.Reason)
}

// ValidationError is a local input error. It is raised before any provider
// call and is never classified.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ClassificationRule maps a lower-cased message fragment to an error kind.
type ClassificationRule struct {
	Kind     ErrorKind
	Patterns []string
}

// ClassificationRules is the ordered fallback table used when an error carries
// no structured status. The first matching rule wins.
var ClassificationRules = []ClassificationRule{
	{Kind: KindAuthentication, Patterns: []string{"api key"}},
	{Kind: KindRateLimit, Patterns: []string{"quota", "rate limit"}},
	{Kind: KindSafety, Patterns: []string{"safety"}},
}

// Classify normalizes err into a fresh *Error. Structured information wins
// over message matching: genai status codes and prompt blocks are checked
// first, then ClassificationRules. Returns nil for a nil error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return &Error{
			Kind:       classified.Kind,
			Message:    classified.Message,
			StatusCode: classified.StatusCode,
			Cause:      classified.Cause,
		}
	}

	msg := err.Error()
	code := statusCodeOf(err)

	if kind, ok := kindFromStructure(err); ok {
		return &Error{Kind: kind, Message: msg, StatusCode: code, Cause: err}
	}
	return &Error{Kind: classifyMessage(msg), Message: msg, StatusCode: code, Cause: err}
}

// kindFromStructure maps machine-readable error data to a kind.
func kindFromStructure(err error) (ErrorKind, bool) {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return KindSafety, true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return KindAuthentication, true
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
			return KindRateLimit, true
		}
	}
	return "", false
}

func classifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	for _, rule := range ClassificationRules {
		for _, p := range rule.Patterns {
			if strings.Contains(lower, p) {
				return rule.Kind
			}
		}
	}
	return KindUnknown
}

func statusCodeOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// KindOf returns the kind of a classified error, or KindUnknown if err is not
// a *Error. Returns an empty kind for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsAuthentication returns true if err is a classified authentication error.
func IsAuthentication(err error) bool { return isKind(err, KindAuthentication) }

// IsRateLimit returns true if err is a classified rate limit error.
func IsRateLimit(err error) bool { return isKind(err, KindRateLimit) }

// IsSafety returns true if err is a classified safety error.
func IsSafety(err error) bool { return isKind(err, KindSafety) }

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
