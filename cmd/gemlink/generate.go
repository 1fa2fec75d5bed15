package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spetersoncode/gemlink"
	"github.com/spetersoncode/gemlink/config"
)

const defaultImagePrompt = "Describe this image."

// addGenerationFlags registers the per-call generation flags.
func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().String("system", "", "system instruction")
	cmd.Flags().Float64("temperature", 0, "sampling temperature (0.0 to 2.0)")
	cmd.Flags().Int("max-tokens", 0, "maximum output tokens")
	cmd.Flags().Bool("usage", false, "print token usage and estimated cost to stderr")
}

// generationOptions turns the flags set on cmd into call options.
func generationOptions(cmd *cobra.Command) []gemlink.Option {
	var opts []gemlink.Option
	flags := cmd.Flags()
	if system, _ := flags.GetString("system"); system != "" {
		opts = append(opts, gemlink.WithSystemInstruction(system))
	}
	if flags.Changed("temperature") {
		t, _ := flags.GetFloat64("temperature")
		opts = append(opts, gemlink.WithTemperature(t))
	}
	if flags.Changed("max-tokens") {
		n, _ := flags.GetInt("max-tokens")
		opts = append(opts, gemlink.WithMaxTokens(n))
	}
	return opts
}

// model returns the model a call will use.
func (a *app) model() string {
	if a.cfg.Model != "" {
		return a.cfg.Model
	}
	return a.client.Settings().DefaultModel
}

// reportUsage prints token counts and, when the model is in the catalog, the
// estimated cost.
func (a *app) reportUsage(cmd *cobra.Command, u *gemlink.Usage) {
	if show, _ := cmd.Flags().GetBool("usage"); !show || u == nil {
		return
	}
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "tokens: prompt=%d output=%d thoughts=%d total=%d\n",
		u.PromptTokens, u.CandidatesTokens, u.ThoughtsTokens, u.TotalTokens)

	catalog := config.Catalog{Models: a.client.AvailableModels()}
	if info, ok := catalog.Model(a.model()); ok {
		fmt.Fprintf(w, "estimated cost: $%.6f\n", info.EstimateCost(*u))
	}
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <prompt...>",
		Short: "Generate a response to a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			opts := a.options(generationOptions(cmd)...)
			resp, err := withRetry(ctx, a, func() (*gemlink.Response, error) {
				return a.client.Generate(ctx, joinArgs(args), opts...)
			})
			if err != nil {
				return explain(err)
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text())
			a.reportUsage(cmd, resp.Usage)
			return nil
		},
	}
	addGenerationFlags(cmd)
	cmd.Flags().Bool("json", false, "print the full normalized response as JSON")
	return cmd
}

func newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream <prompt...>",
		Short: "Stream a response to a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			opts := a.options(generationOptions(cmd)...)
			stream, err := withRetry(ctx, a, func() (<-chan gemlink.StreamChunk, error) {
				return a.client.GenerateStream(ctx, joinArgs(args), opts...)
			})
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			for chunk := range stream {
				if chunk.Err != nil {
					fmt.Fprintln(out)
					return explain(chunk.Err)
				}
				if chunk.Done {
					fmt.Fprintln(out)
					a.reportUsage(cmd, chunk.Usage)
					return nil
				}
				fmt.Fprint(out, chunk.Text)
			}
			// Closed without a final chunk: the context ended first.
			return ctx.Err()
		},
	}
	addGenerationFlags(cmd)
	return cmd
}

func newImageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image <path> [prompt...]",
		Short: "Ask a question about an image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			prompt := joinArgs(args[1:])
			if prompt == "" {
				prompt = defaultImagePrompt
			}

			opts := a.options(generationOptions(cmd)...)
			resp, err := withRetry(ctx, a, func() (*gemlink.Response, error) {
				return a.client.AnalyzeImage(ctx, gemlink.ImageInput{Path: args[0]}, prompt, opts...)
			})
			if err != nil {
				return explain(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Text())
			a.reportUsage(cmd, resp.Usage)
			return nil
		},
	}
	addGenerationFlags(cmd)
	return cmd
}

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools --tools <file> <prompt...>",
		Short: "Offer tool declarations to the model and print its choice",
		Long: `Sends the prompt with the tools declared in a JSON file. The model either
answers in text or requests a function call, which is printed as JSON and
never executed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("tools")
			tools, err := loadTools(path)
			if err != nil {
				return err
			}

			ctx, cancel := a.callContext(cmd)
			defer cancel()

			opts := a.options(generationOptions(cmd)...)
			resp, err := withRetry(ctx, a, func() (*gemlink.ToolResponse, error) {
				return a.client.GenerateWithTools(ctx, joinArgs(args), tools, opts...)
			})
			if err != nil {
				return explain(err)
			}

			if call := resp.FunctionCall; call != nil {
				if tool, ok := gemlink.FindTool(tools, call.Name); ok {
					if err := tool.ValidateArgs(call.Args); err != nil {
						a.logger.Warn("function call arguments do not match the tool schema",
							zap.String("tool", call.Name), zap.Error(err))
					}
				}
			}
			a.reportUsage(cmd, resp.Usage)
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
	addGenerationFlags(cmd)
	cmd.Flags().String("tools", "", "JSON file with an array of tool declarations")
	_ = cmd.MarkFlagRequired("tools")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// explain adds a hint for the classified error kinds callers can act on.
func explain(err error) error {
	var classified *gemlink.Error
	if !errors.As(err, &classified) {
		return err
	}
	switch classified.Kind {
	case gemlink.KindAuthentication:
		return fmt.Errorf("%w (check your API key)", err)
	case gemlink.KindRateLimit:
		return fmt.Errorf("%w (try again later or raise --retries)", err)
	case gemlink.KindSafety:
		return fmt.Errorf("%w (rephrase the prompt)", err)
	default:
		return err
	}
}
