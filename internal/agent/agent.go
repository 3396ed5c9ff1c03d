// Package agent implements the MSME Finance Copilot: a chat assistant
// whose answers are grounded in the metrics snapshot through two
// tools, get_metric for scalar KPIs and get_table for previewing
// derived tables.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finstack-labs/finsight/internal/llm"
	"github.com/finstack-labs/finsight/internal/metrics"
)

const systemPrompt = `You are **MSME Finance Copilot**, a concise financial-insight assistant.
• ALWAYS rely on the provided tools (get_metric, get_table) to retrieve
numbers; do not invent values.
• Focus on practical advice: cash-flow projections, loan eligibility, budgeting,
break-even analysis, and KPI interpretation.
• Respond with clear Markdown bullets or short paragraphs.`

// maxToolRounds bounds the tool-call loop so a confused model cannot
// spin forever.
const maxToolRounds = 8

// tablePreviewRows caps how many rows get_table returns.
const tablePreviewRows = 10

// Chatter is the slice of the LLM client the agent needs.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Message, error)
}

// Agent answers questions about one snapshot.
type Agent struct {
	llm    Chatter
	snap   *metrics.Snapshot
	logger *slog.Logger

	history []llm.Message
}

// New creates an Agent over a snapshot. If logger is nil, a discard
// logger is used.
func New(client Chatter, snap *metrics.Snapshot, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Agent{
		llm:     client,
		snap:    snap,
		logger:  logger,
		history: []llm.Message{{Role: "system", Content: systemPrompt}},
	}
}

// SetSnapshot swaps the snapshot the tools read from, keeping the
// conversation history.
func (a *Agent) SetSnapshot(snap *metrics.Snapshot) {
	a.snap = snap
}

// Restore seeds the conversation with prior user/assistant turns.
func (a *Agent) Restore(turns []llm.Message) {
	a.history = append(a.history, turns...)
}

func tools() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "get_metric",
				Description: "Return numeric KPI by name, e.g. 'current_ratio'.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"name": {"type": "string", "description": "Metric name"}
					},
					"required": ["name"]
				}`),
			},
		},
		{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        "get_table",
				Description: "Preview a data table such as 'cashflow' or 'sales_monthly'.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"name": {"type": "string", "description": "Table name"}
					},
					"required": ["name"]
				}`),
			},
		},
	}
}

// Ask sends a user question and runs the tool loop until the model
// produces a plain answer.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	a.history = append(a.history, llm.Message{Role: "user", Content: question})

	for round := 0; round < maxToolRounds; round++ {
		reply, err := a.llm.Chat(ctx, a.history, tools())
		if err != nil {
			return "", err
		}
		a.history = append(a.history, *reply)

		if len(reply.ToolCalls) == 0 {
			return strings.TrimSpace(reply.Content), nil
		}

		for _, call := range reply.ToolCalls {
			result := a.dispatch(call)
			a.logger.Debug("tool call",
				slog.String("tool", call.Function.Name),
				slog.String("args", call.Function.Arguments))
			a.history = append(a.history, llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
}

func (a *Agent) dispatch(call llm.ToolCall) string {
	var args struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return fmt.Sprintf("invalid arguments: %v", err)
	}

	switch call.Function.Name {
	case "get_metric":
		return a.getMetric(args.Name)
	case "get_table":
		return a.getTable(args.Name)
	}
	return fmt.Sprintf("unknown tool %q", call.Function.Name)
}

func (a *Agent) getMetric(name string) string {
	flat := a.snap.Flat()
	v, ok := flat[name]
	if !ok {
		return fmt.Sprintf("metric %q not found (available: %s)",
			name, strings.Join(a.snap.MetricNames(), ", "))
	}
	return fmt.Sprintf("%g", v)
}

func (a *Agent) getTable(name string) string {
	table, err := a.snap.Table(name)
	if err != nil {
		return "Table not found"
	}
	return renderMarkdown(table, tablePreviewRows)
}

// renderMarkdown produces a Markdown table of up to limit rows.
func renderMarkdown(t *metrics.Table, limit int) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")
	for i, row := range t.Rows {
		if i >= limit {
			break
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
