// Package output renders command results for three audiences: styled
// text for a person at a terminal, Markdown for piped or agent
// consumption, and JSON for machines. Mode auto picks text on a TTY
// and Markdown otherwise.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

// Supported output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle     = lipgloss.NewStyle().Bold(true)
)

// Renderer writes formatted output to a command's streams.
type Renderer struct {
	out  io.Writer
	errW io.Writer
	mode Mode
}

// NewRenderer creates a renderer. Unknown or empty modes behave as
// auto.
func NewRenderer(out, errW io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	default:
		mode = ModeAuto
	}
	return &Renderer{out: out, errW: errW, mode: mode}
}

// EffectiveMode resolves auto against the output stream: text when it
// is a terminal, Markdown when piped.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ModeText
	}
	return ModeMarkdown
}

// Println writes a line to the output stream.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted text to the output stream.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Header writes a section heading.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, text))
		return
	}
	r.Println(headerStyle.Render(text))
}

// KeyValue writes a labeled value.
func (r *Renderer) KeyValue(key, value string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatKeyValue(key, value))
		return
	}
	r.Printf("%s %s\n", keyStyle.Render(key+":"), value)
}

// Success writes a positive status line.
func (r *Renderer) Success(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("✅ " + s)
		return
	}
	r.Println(successStyle.Render("✓ " + s))
}

// Warning writes a warning to the error stream.
func (r *Renderer) Warning(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		_, _ = fmt.Fprintln(r.errW, "⚠️ "+s)
		return
	}
	_, _ = fmt.Fprintln(r.errW, warnStyle.Render("! "+s))
}

// Error writes an error to the error stream.
func (r *Renderer) Error(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		_, _ = fmt.Fprintln(r.errW, "❌ "+s)
		return
	}
	_, _ = fmt.Fprintln(r.errW, errorStyle.Render("✗ "+s))
}

// Muted writes de-emphasized text.
func (r *Renderer) Muted(s string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("_" + s + "_")
		return
	}
	r.Println(mutedStyle.Render(s))
}

// StatusLine writes a name with a pass/fail marker and optional detail.
func (r *Renderer) StatusLine(name, status, detail string) {
	marker := "✓"
	style := successStyle
	switch status {
	case "warn", "warning":
		marker = "!"
		style = warnStyle
	case "error", "fail", "failed":
		marker = "✗"
		style = errorStyle
	}

	line := fmt.Sprintf("%s %s", marker, name)
	if detail != "" {
		line += "  " + detail
	}
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("- " + line)
		return
	}
	r.Println(style.Render(line))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders columns and rows in the effective mode: a styled table
// on a terminal, a pipe table for Markdown.
func (r *Renderer) Table(columns []string, rows [][]string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("| " + strings.Join(columns, " | ") + " |")
		seps := make([]string, len(columns))
		for i := range seps {
			seps[i] = "---"
		}
		r.Println("| " + strings.Join(seps, " | ") + " |")
		for _, row := range rows {
			r.Println("| " + strings.Join(row, " | ") + " |")
		}
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}
	t.Render()
}

// FormatHeader returns a Markdown heading.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a bold Markdown key-value line.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("**%s:** %s", key, value)
}
