package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/finstack-labs/finsight/internal/agent"
	"github.com/finstack-labs/finsight/internal/llm"
	"github.com/finstack-labs/finsight/internal/metrics"
	"github.com/finstack-labs/finsight/pkg/core"
)

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	var (
		session string
		ask     string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the finance copilot about your metrics",
		Long: `Open an interactive session with the finance copilot. The copilot
answers questions about the latest metrics snapshot and can look up
individual KPIs and data tables while reasoning.

Conversations are persisted per session and restored on the next
start. Use --ask for a single question without entering the REPL.`,
		Example: `  # Interactive session
  finsight chat

  # One-shot question
  finsight chat --ask "How healthy is my cash flow?"

  # Separate conversation thread
  finsight chat --session planning`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, session, ask)
		},
	}

	cmd.Flags().StringVar(&session, "session", "default", "Conversation session to resume")
	cmd.Flags().StringVar(&ask, "ask", "", "Ask a single question and exit")
	return cmd
}

func runChat(cmd *cobra.Command, session, ask string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	snap, err := cmdCtx.Engine.Current(cmd.Context())
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	ag := agent.New(cmdCtx.NewLLMClient(), snap, cmdCtx.Logger)

	prior, err := cmdCtx.Store.GetChatMessages(session)
	if err != nil {
		return err
	}
	if len(prior) > 0 {
		turns := make([]llm.Message, 0, len(prior))
		for _, m := range prior {
			turns = append(turns, llm.Message{Role: m.Role, Content: m.Content})
		}
		ag.Restore(turns)
	}

	if ask != "" {
		return askAndRecord(cmd, cmdCtx, ag, session, ask)
	}

	return runChatREPL(cmd, cmdCtx, ag, session, len(prior))
}

func runChatREPL(cmd *cobra.Command, cmdCtx *CommandContext, ag *agent.Agent, session string, restored int) error {
	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.StatePath), "chat_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "finsight> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "MSME Finance Copilot (session: %s)\n", session)
	if restored > 0 {
		_, _ = fmt.Fprintf(out, "Restored %d earlier messages\n", restored)
	}
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleChatDotCommand(cmd, cmdCtx, ag, session, line); quit {
				break
			}
			continue
		}

		if err := askAndRecord(cmd, cmdCtx, ag, session, line); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(out)
	}

	return nil
}

func askAndRecord(cmd *cobra.Command, cmdCtx *CommandContext, ag *agent.Agent, session, question string) error {
	answer, err := ag.Ask(cmd.Context(), question)
	if err != nil {
		return err
	}

	if err := cmdCtx.Store.AppendChatMessage(&core.ChatMessage{
		SessionID: session, Role: "user", Content: question,
	}); err != nil {
		return err
	}
	if err := cmdCtx.Store.AppendChatMessage(&core.ChatMessage{
		SessionID: session, Role: "assistant", Content: answer,
	}); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}

func handleChatDotCommand(cmd *cobra.Command, cmdCtx *CommandContext, ag *agent.Agent, session, line string) (quit bool) {
	out := cmd.OutOrStdout()
	errW := cmd.ErrOrStderr()

	switch strings.ToLower(strings.Fields(line)[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printChatHelp(out)

	case ".metrics":
		snap, err := cmdCtx.Engine.Current(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			return false
		}
		for _, name := range snap.MetricNames() {
			_, _ = fmt.Fprintln(out, name)
		}

	case ".tables":
		_, err := cmdCtx.Engine.Current(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			return false
		}
		for _, name := range metrics.TableNames() {
			_, _ = fmt.Fprintln(out, name)
		}

	case ".refresh":
		snap, _, err := cmdCtx.Engine.Refresh(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			return false
		}
		ag.SetSnapshot(snap)
		_, _ = fmt.Fprintln(out, "Snapshot refreshed")

	case ".reset":
		if err := cmdCtx.Store.ClearChatSession(session); err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			return false
		}
		snap, err := cmdCtx.Engine.Current(cmd.Context())
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			return false
		}
		*ag = *agent.New(cmdCtx.NewLLMClient(), snap, cmdCtx.Logger)
		_, _ = fmt.Fprintf(out, "Session %q cleared\n", session)

	default:
		_, _ = fmt.Fprintf(errW, "Unknown command: %s (type .help for commands)\n", line)
	}

	return false
}

func printChatHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .metrics        List metric names the copilot can look up
  .tables         List data tables the copilot can preview
  .refresh        Re-run the pipeline and use the new snapshot
  .reset          Clear this session's conversation
  .quit           Exit the chat
`
	_, _ = fmt.Fprintln(w, help)
}
