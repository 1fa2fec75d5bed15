package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/gemlink"
	"github.com/spetersoncode/gemlink/config"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <text...>",
		Short: "Count the tokens a text would consume",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			n, err := withRetry(ctx, a, func() (int, error) {
				return a.client.CountTokens(ctx, joinArgs(args), a.options()...)
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func newEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed <text...>",
		Short: "Print the embedding vector of a text as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			var opts []gemlink.EmbeddingOption
			if model, _ := cmd.Flags().GetString("embedding-model"); model != "" {
				opts = append(opts, gemlink.WithEmbeddingModel(model))
			}
			if dims, _ := cmd.Flags().GetInt("dimensions"); dims > 0 {
				opts = append(opts, gemlink.WithEmbeddingDimensions(dims))
			}
			if task, _ := cmd.Flags().GetString("task-type"); task != "" {
				opts = append(opts, gemlink.WithEmbeddingTaskType(gemlink.EmbeddingTaskType(strings.ToUpper(task))))
			}

			vec, err := withRetry(ctx, a, func() ([]float64, error) {
				return a.client.Embed(ctx, joinArgs(args), opts...)
			})
			if err != nil {
				return explain(err)
			}
			return writeJSON(cmd.OutOrStdout(), vec)
		},
	}
	cmd.Flags().String("embedding-model", "", "embedding model (default from settings)")
	cmd.Flags().Int("dimensions", 0, "truncate the vector to this many dimensions")
	cmd.Flags().String("task-type", "", "task type, e.g. RETRIEVAL_QUERY or SEMANTIC_SIMILARITY")
	return cmd
}

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List catalog models, or the provider's models with --remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if remote, _ := cmd.Flags().GetBool("remote"); remote {
				ctx, cancel := a.callContext(cmd)
				defer cancel()

				list, err := withRetry(ctx, a, func() ([]gemlink.ModelDescriptor, error) {
					return a.client.ListModels(ctx)
				})
				if err != nil {
					return explain(err)
				}
				fmt.Fprintln(tw, "NAME\tDISPLAY NAME\tINPUT LIMIT\tOUTPUT LIMIT")
				for _, m := range list {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", m.Name, m.DisplayName, m.InputTokenLimit, m.OutputTokenLimit)
				}
				return nil
			}

			fmt.Fprintln(tw, "ID\tNAME\tINPUT LIMIT\tINPUT $/M\tOUTPUT $/M")
			for _, m := range a.client.AvailableModels() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f\n",
					m.ID, m.DisplayName, m.InputTokenLimit, m.Pricing.InputPerMillion, m.Pricing.OutputPerMillion)
			}
			return nil
		},
	}
	cmd.Flags().Bool("remote", false, "ask the provider instead of the local catalog")
	return cmd
}

func newRecommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend <task-type>",
		Short: "Print the model recommended for a task type",
		Long: `Prints the catalog's model for a task type such as chat, code_generation,
analysis, reasoning, summarization, creative_writing, image_analysis,
tool_use, embedding or real_time. Unknown task types print the default model.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.client.RecommendedModel(config.TaskType(args[0])))
			return nil
		},
	}
}
