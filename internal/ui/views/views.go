// Package views renders the dashboard's HTML. Components are built by
// hand as templ.ComponentFunc values so SSE handlers can patch them
// with PatchElementTempl.
package views

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const datastarSrc = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"

// NavItem is one entry in the top navigation.
type NavItem struct {
	Label string
	Path  string
}

func navItems() []NavItem {
	return []NavItem{
		{Label: "Overview", Path: "/"},
		{Label: "Runs", Path: "/runs"},
		{Label: "Insights", Path: "/insights"},
		{Label: "Chat", Path: "/chat"},
	}
}

// Page wraps a body component in the full HTML document shell.
func Page(title, currentPath string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html lang=\"en\"><head>")
		b.WriteString("<meta charset=\"utf-8\">")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		fmt.Fprintf(&b, "<title>%s · finsight</title>", html.EscapeString(title))
		b.WriteString("<link rel=\"stylesheet\" href=\"/static/app.css\">")
		fmt.Fprintf(&b, "<script type=\"module\" src=\"%s\"></script>", datastarSrc)
		b.WriteString("</head><body>")

		b.WriteString("<header class=\"topbar\"><span class=\"brand\">finsight</span><nav>")
		for _, item := range navItems() {
			class := ""
			if item.Path == currentPath {
				class = " class=\"active\""
			}
			fmt.Fprintf(&b, "<a href=%q%s>%s</a>", item.Path, class, html.EscapeString(item.Label))
		}
		b.WriteString("</nav></header><main>")

		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main></body></html>")
		return err
	})
}

// KPI is one tile in the overview strip.
type KPI struct {
	Label string
	Value string
	Tone  string // "", "good", "bad"
}

// CashflowRow is one month of the cash-flow table.
type CashflowRow struct {
	Month      string
	CashIn     string
	CashOut    string
	Net        string
	NetNeg     bool
	Cumulative string
	CumNeg     bool
}

// OverviewData feeds the overview component.
type OverviewData struct {
	KPIs      []KPI
	Cashflow  []CashflowRow
	TakenAt   string
	HasChart  bool
	ChartPath string
}

// Overview renders the dashboard landing view. The root element id is
// stable so SSE patches can morph it in place.
func Overview(data OverviewData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<div id=\"overview\" data-on-load=\"@get('/updates/overview')\">")

		b.WriteString("<div class=\"kpi-strip\">")
		for _, k := range data.KPIs {
			class := "value"
			if k.Tone != "" {
				class += " " + k.Tone
			}
			fmt.Fprintf(&b, "<div class=\"kpi\"><div class=\"label\">%s</div><div class=%q>%s</div></div>",
				html.EscapeString(k.Label), class, html.EscapeString(k.Value))
		}
		b.WriteString("</div>")

		b.WriteString("<div class=\"panel\"><h2>Cash Flow</h2><table>")
		b.WriteString("<tr><th>Month</th><th>Cash In</th><th>Cash Out</th><th>Net</th><th>Cumulative</th></tr>")
		for _, row := range data.Cashflow {
			fmt.Fprintf(&b, "<tr><td>%s</td><td class=\"num\">%s</td><td class=\"num\">%s</td>",
				html.EscapeString(row.Month), html.EscapeString(row.CashIn), html.EscapeString(row.CashOut))
			fmt.Fprintf(&b, "<td class=%q>%s</td><td class=%q>%s</td></tr>",
				numClass(row.NetNeg), html.EscapeString(row.Net),
				numClass(row.CumNeg), html.EscapeString(row.Cumulative))
		}
		b.WriteString("</table></div>")

		if data.HasChart {
			fmt.Fprintf(&b, "<div class=\"panel\"><h2>Cash Flow Trend</h2><iframe class=\"chart-frame\" src=%q></iframe></div>",
				data.ChartPath)
		}

		if data.TakenAt != "" {
			fmt.Fprintf(&b, "<p class=\"muted\">Snapshot taken %s</p>", html.EscapeString(data.TakenAt))
		}

		b.WriteString("</div>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func numClass(neg bool) string {
	if neg {
		return "num neg"
	}
	return "num"
}

// RunRow is one entry in the run history table.
type RunRow struct {
	ID          string
	Environment string
	Status      string
	StartedAt   string
	Duration    string
	Error       string
}

// RunsTable renders the run history view.
func RunsTable(runs []RunRow) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<div id=\"runs\" data-on-load=\"@get('/updates/runs')\">")
		b.WriteString("<div class=\"panel\"><h2>Run History</h2>")

		if len(runs) == 0 {
			b.WriteString("<p class=\"muted\">No runs yet. Start one with <code>finsight run</code>.</p>")
		} else {
			b.WriteString("<table><tr><th>Run</th><th>Env</th><th>Status</th><th>Started</th><th>Duration</th><th>Error</th></tr>")
			for _, run := range runs {
				fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td class=\"status-%s\">%s</td><td>%s</td><td class=\"num\">%s</td><td>%s</td></tr>",
					html.EscapeString(shortID(run.ID)), html.EscapeString(run.Environment),
					html.EscapeString(run.Status), html.EscapeString(run.Status),
					html.EscapeString(run.StartedAt), html.EscapeString(run.Duration),
					html.EscapeString(run.Error))
			}
			b.WriteString("</table>")
		}

		b.WriteString("</div></div>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// InsightCard is one advisory panel.
type InsightCard struct {
	Kind    string
	Title   string
	Content string
	Model   string
	Pending bool
}

// InsightCards renders the three advisory cards.
func InsightCards(cards []InsightCard) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<div id=\"insights\" data-on-load=\"@get('/updates/insights')\">")
		b.WriteString("<div class=\"card-grid\">")
		for _, card := range cards {
			b.WriteString("<div class=\"panel insight-card\">")
			fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(card.Title))
			switch {
			case card.Pending:
				b.WriteString("<p class=\"muted\">Generating…</p>")
			case card.Content == "":
				b.WriteString("<p class=\"muted\">Not generated yet.</p>")
			default:
				fmt.Fprintf(&b, "<div class=\"body\">%s</div>", html.EscapeString(card.Content))
			}
			if card.Model != "" {
				fmt.Fprintf(&b, "<div class=\"meta\">%s</div>", html.EscapeString(card.Model))
			}
			fmt.Fprintf(&b, "<p><button data-on-click=\"@post('/insights/generate/%s')\">Generate</button></p>", card.Kind)
			b.WriteString("</div>")
		}
		b.WriteString("</div></div>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ChatMessage is one transcript entry.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatView renders the conversation and input form.
func ChatView(messages []ChatMessage, busy bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<div id=\"chat\" data-signals=\"{message: ''}\">")
		b.WriteString("<div class=\"panel\"><h2>Finance Copilot</h2>")

		b.WriteString("<div class=\"chat-log\">")
		if len(messages) == 0 {
			b.WriteString("<p class=\"muted\">Ask anything about your numbers.</p>")
		}
		for _, m := range messages {
			label := "Copilot"
			if m.Role == "user" {
				label = "You"
			}
			fmt.Fprintf(&b, "<div class=\"chat-msg %s\"><div class=\"role\">%s</div><div class=\"body\">%s</div></div>",
				html.EscapeString(m.Role), label, html.EscapeString(m.Content))
		}
		if busy {
			b.WriteString("<div class=\"chat-msg\"><div class=\"role\">Copilot</div><div class=\"body muted\">Thinking…</div></div>")
		}
		b.WriteString("</div>")

		b.WriteString("<div class=\"chat-form\">")
		b.WriteString("<input type=\"text\" placeholder=\"e.g. How many months of runway do I have?\" data-bind-message data-on-keydown=\"evt.key === 'Enter' &amp;&amp; @post('/chat/send')\">")
		b.WriteString("<button data-on-click=\"@post('/chat/send')\">Send</button>")
		b.WriteString("<button class=\"secondary\" data-on-click=\"@post('/chat/reset')\">Reset</button>")
		b.WriteString("</div>")

		b.WriteString("</div></div>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}
