package gemlink

import (
	"fmt"

	"google.golang.org/genai"
)

// Role represents the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Valid reports whether r is a role the provider accepts in a transcript.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// HistoryEntry is a single turn of a conversation.
type HistoryEntry struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// UserEntry creates a user turn.
func UserEntry(content string) HistoryEntry {
	return HistoryEntry{Role: RoleUser, Content: content}
}

// ModelEntry creates a model turn.
func ModelEntry(content string) HistoryEntry {
	return HistoryEntry{Role: RoleModel, Content: content}
}

// ValidateHistory checks that every entry carries a known role.
func ValidateHistory(entries []HistoryEntry) error {
	for i, e := range entries {
		if !e.Role.Valid() {
			return &ValidationError{
				Field:  "history",
				Reason: fmt.Sprintf("entry %d has unsupported role %q", i, e.Role),
			}
		}
	}
	return nil
}

// Usage contains token counts reported by the provider. It is informational
// only and never drives client behavior.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CandidatesTokens int `json:"candidatesTokens"`
	ThoughtsTokens   int `json:"thoughtsTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// Response is a normalized generation result.
type Response struct {
	Content        string                                       `json:"content"`
	FinishReason   string                                       `json:"finishReason,omitempty"`
	ModelVersion   string                                       `json:"modelVersion,omitempty"`
	Candidates     []*genai.Candidate                           `json:"candidates,omitempty"`
	PromptFeedback *genai.GenerateContentResponsePromptFeedback `json:"promptFeedback,omitempty"`
	// Usage is nil when the provider did not report token counts.
	Usage *Usage `json:"usage,omitempty"`
}

// Text returns the concatenated text of the first candidate.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return r.Content
}

// StreamChunk is a single item of a streaming generation.
// The final successful item has Done set and empty Text. A failed stream ends
// with a single chunk carrying Err and no Done chunk.
type StreamChunk struct {
	Text string
	Done bool
	// Usage is populated on the Done chunk when the provider reported it.
	Usage *Usage
	Err   error
}

// ImageInput identifies an image for multimodal analysis.
// Exactly one of Path and Data must be set.
type ImageInput struct {
	Path string
	Data []byte
	// MIMEType applies to Data. Paths resolve their type from the extension.
	MIMEType string
}

// ModelDescriptor is a provider-reported model entry.
type ModelDescriptor struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"displayName,omitempty"`
	Description      string   `json:"description,omitempty"`
	Version          string   `json:"version,omitempty"`
	InputTokenLimit  int      `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit int      `json:"outputTokenLimit,omitempty"`
	SupportedActions []string `json:"supportedActions,omitempty"`
}
