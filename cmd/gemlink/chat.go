package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/gemlink/chat"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Reads messages from stdin, one per line, and prints each reply.
Commands: /history prints the transcript, /reset clears it, /exit quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			maxTurns, _ := cmd.Flags().GetInt("max-turns")
			opts := []chat.Option{chat.WithMaxTurns(maxTurns)}
			if a.cfg.Model != "" {
				opts = append(opts, chat.WithModel(a.cfg.Model))
			}
			if system, _ := cmd.Flags().GetString("system"); system != "" {
				opts = append(opts, chat.WithSystemInstruction(system))
			}

			session, err := a.client.StartChat(opts...)
			if err != nil {
				return err
			}
			return runChat(cmd, a, session)
		},
	}
	cmd.Flags().Int("max-turns", 0, "keep only the last N exchanges (0 keeps all)")
	cmd.Flags().String("system", "", "system instruction")
	return cmd
}

func runChat(cmd *cobra.Command, a *app, session *chat.Session) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			session.Reset()
			fmt.Fprintln(out, "(history cleared)")
			continue
		case "/history":
			for _, e := range session.History() {
				fmt.Fprintf(out, "%s: %s\n", e.Role, e.Content)
			}
			continue
		}

		ctx, cancel := a.callContext(cmd)
		reply, err := withRetry(ctx, a, func() (*chat.Reply, error) {
			return session.SendMessage(ctx, line)
		})
		cancel()
		if err != nil {
			// The transcript is unchanged; the user can simply try again.
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", explain(err))
			if cmd.Context().Err() != nil {
				return cmd.Context().Err()
			}
			continue
		}
		fmt.Fprintln(out, reply.Text())
	}
}
