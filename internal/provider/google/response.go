package google

import (
	"strings"

	"google.golang.org/genai"

	"github.com/spetersoncode/gemlink"
)

// NormalizeResponse converts an SDK response. A blocked prompt yields a
// *gemlink.BlockedError.
func NormalizeResponse(resp *genai.GenerateContentResponse) (*gemlink.Response, error) {
	if err := CheckBlocked(resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return &gemlink.Response{}, nil
	}

	out := &gemlink.Response{
		Content:        CandidateText(resp),
		ModelVersion:   resp.ModelVersion,
		Candidates:     resp.Candidates,
		PromptFeedback: resp.PromptFeedback,
		Usage:          ConvertUsage(resp.UsageMetadata),
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	return out, nil
}

// CandidateText concatenates the text parts of the first candidate, skipping
// thought summaries.
func CandidateText(resp *genai.GenerateContentResponse) string {
	parts := firstCandidateParts(resp)
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// ConvertUsage converts SDK usage metadata. Returns nil when absent.
func ConvertUsage(md *genai.GenerateContentResponseUsageMetadata) *gemlink.Usage {
	if md == nil {
		return nil
	}
	return &gemlink.Usage{
		PromptTokens:     int(md.PromptTokenCount),
		CandidatesTokens: int(md.CandidatesTokenCount),
		ThoughtsTokens:   int(md.ThoughtsTokenCount),
		TotalTokens:      int(md.TotalTokenCount),
	}
}

// ConvertModel converts a provider model entry.
func ConvertModel(m *genai.Model) gemlink.ModelDescriptor {
	return gemlink.ModelDescriptor{
		Name:             m.Name,
		DisplayName:      m.DisplayName,
		Description:      m.Description,
		Version:          m.Version,
		InputTokenLimit:  int(m.InputTokenLimit),
		OutputTokenLimit: int(m.OutputTokenLimit),
		SupportedActions: m.SupportedActions,
	}
}

// ConvertEmbedding widens the first embedding's values. Returns nil when the
// response carries no embedding.
func ConvertEmbedding(resp *genai.EmbedContentResponse) []float64 {
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil
	}
	values := resp.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func firstCandidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return nil
	}
	return c.Content.Parts
}
