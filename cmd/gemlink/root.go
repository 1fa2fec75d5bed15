package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gemlink",
		Short:         "Gemini API client",
		Long:          `gemlink sends prompts, images and tool declarations to the Gemini API with client-side rate limiting and classified errors.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := root.PersistentFlags()
	flags.String("api-key", "", "Gemini API key (or GEMINI_API_KEY / GOOGLE_API_KEY)")
	flags.String("settings", "", "settings file (.yaml, .yml, .json, .jsonc)")
	flags.String("models", "", "model catalog file (.yaml, .yml, .json, .jsonc)")
	flags.StringP("model", "m", "", "model to use (default from settings)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Int("retries", 2, "retries on rate limit errors (0 disables)")
	flags.Duration("timeout", 2*time.Minute, "per-request timeout (0 disables)")

	root.AddCommand(
		newGenerateCmd(),
		newStreamCmd(),
		newChatCmd(),
		newImageCmd(),
		newToolsCmd(),
		newTokensCmd(),
		newEmbedCmd(),
		newModelsCmd(),
		newRecommendCmd(),
	)
	return root
}
