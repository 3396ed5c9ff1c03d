package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finstack-labs/finsight/internal/cli/output"
	"github.com/finstack-labs/finsight/pkg/manifest"
)

// NewManifestCommand creates the manifest command group.
func NewManifestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect pip-style requirements manifests",
		Long: `Parse and validate pip-style requirements manifests used to declare
the Python dependencies of a data source's tooling.`,
	}

	cmd.AddCommand(newManifestLintCommand())
	cmd.AddCommand(newManifestListCommand())
	return cmd
}

// DiagnosticOutput is the JSON output for a single lint finding.
type DiagnosticOutput struct {
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

// LintOutput is the JSON output for manifest lint.
type LintOutput struct {
	File        string             `json:"file"`
	Diagnostics []DiagnosticOutput `json:"diagnostics"`
	Errors      int                `json:"errors"`
	Warnings    int                `json:"warnings"`
}

func newManifestLintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <file>",
		Short: "Validate a requirements manifest",
		Long: `Parse a requirements manifest and report malformed lines, duplicate
packages, invalid versions, unsatisfiable specifier sets, and
unpinned entries. Exits non-zero when any error-level finding is
present.`,
		Example: `  finsight manifest lint requirements.txt
  finsight manifest lint requirements.txt --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifestLint(cmd, args[0])
		},
	}
}

func runManifestLint(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	f, err := manifest.ParseFile(path)
	if err != nil {
		return err
	}

	diags := manifest.Lint(f)

	var errCount, warnCount int
	for _, d := range diags {
		switch d.Severity {
		case manifest.SeverityError:
			errCount++
		case manifest.SeverityWarning:
			warnCount++
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		out := LintOutput{
			File:        path,
			Diagnostics: make([]DiagnosticOutput, 0, len(diags)),
			Errors:      errCount,
			Warnings:    warnCount,
		}
		for _, d := range diags {
			out.Diagnostics = append(out.Diagnostics, DiagnosticOutput{
				Line:     d.Line,
				Severity: d.Severity.String(),
				Rule:     d.RuleID,
				Message:  d.Message,
			})
		}
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		r.Header(1, "Manifest Lint")
		r.KeyValue("File", path)
		r.Println("")

		if len(diags) == 0 {
			r.Success("No problems found")
			return nil
		}

		rows := make([][]string, 0, len(diags))
		for _, d := range diags {
			rows = append(rows, []string{
				strconv.Itoa(d.Line), d.Severity.String(), d.RuleID, d.Message,
			})
		}
		r.Table([]string{"line", "severity", "rule", "message"}, rows)
		r.Println("")

		summary := fmt.Sprintf("%d error(s), %d warning(s)", errCount, warnCount)
		if errCount > 0 {
			r.Error(summary)
		} else {
			r.Warning(summary)
		}
	}

	if errCount > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("manifest has %d error(s)", errCount)
	}
	return nil
}

// RequirementOutput is the JSON output for one manifest entry.
type RequirementOutput struct {
	Name       string   `json:"name"`
	Normalized string   `json:"normalized"`
	Extras     []string `json:"extras,omitempty"`
	Specifiers string   `json:"specifiers,omitempty"`
	Marker     string   `json:"marker,omitempty"`
	Line       int      `json:"line"`
}

func newManifestListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <file>",
		Short: "List the entries of a requirements manifest",
		Example: `  finsight manifest list requirements.txt
  finsight manifest list requirements.txt --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifestList(cmd, args[0])
		},
	}
}

func runManifestList(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	f, err := manifest.ParseFile(path)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		out := make([]RequirementOutput, 0, len(f.Requirements))
		for _, req := range f.Requirements {
			out = append(out, RequirementOutput{
				Name:       req.Name,
				Normalized: manifest.NormalizeName(req.Name),
				Extras:     req.Extras,
				Specifiers: specifierString(req),
				Marker:     req.Marker,
				Line:       req.Line,
			})
		}
		return r.JSON(out)
	}

	r.Header(1, "Manifest Entries")
	r.KeyValue("File", path)
	r.Println("")

	rows := make([][]string, 0, len(f.Requirements))
	for _, req := range f.Requirements {
		rows = append(rows, []string{
			strconv.Itoa(req.Line),
			req.Name,
			specifierString(req),
			req.Marker,
		})
	}
	r.Table([]string{"line", "package", "specifiers", "marker"}, rows)

	if len(f.Diagnostics) > 0 {
		r.Println("")
		r.Warning(fmt.Sprintf("%d line(s) could not be parsed; run manifest lint for details", len(f.Diagnostics)))
	}
	return nil
}

func specifierString(req manifest.Requirement) string {
	parts := make([]string, 0, len(req.Specifiers))
	for _, s := range req.Specifiers {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ",")
}
