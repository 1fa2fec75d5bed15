package google

import (
	"google.golang.org/genai"

	"github.com/spetersoncode/gemlink"
)

// CheckBlocked returns a *gemlink.BlockedError when the provider refused the
// prompt, and nil otherwise.
func CheckBlocked(resp *genai.GenerateContentResponse) error {
	if resp == nil || resp.PromptFeedback == nil || resp.PromptFeedback.BlockReason == "" {
		return nil
	}
	return &gemlink.BlockedError{
		Reason:  string(resp.PromptFeedback.BlockReason),
		Message: resp.PromptFeedback.BlockReasonMessage,
	}
}
