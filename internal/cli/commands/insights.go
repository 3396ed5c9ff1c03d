package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finstack-labs/finsight/internal/cli/output"
	"github.com/finstack-labs/finsight/internal/insights"
	"github.com/finstack-labs/finsight/pkg/core"
)

// NewInsightsCommand creates the insights command.
func NewInsightsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights [kind...]",
		Short: "Generate LLM-backed financial insights",
		Long: `Generate narrative insights from the latest metrics snapshot.

Kinds: budget, loan, health. With no arguments all kinds are generated.
Insights are cached per input hash; identical metrics reuse the stored
text without calling the model.`,
		Example: `  # Generate every insight
  finsight insights

  # Only the loan eligibility assessment
  finsight insights loan`,
		ValidArgs: insights.Kinds(),
		Args:      cobra.OnlyValidArgs,
		RunE:      runInsights,
	}
	return cmd
}

// InsightOutput is the JSON output for a single insight.
type InsightOutput struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

func runInsights(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer

	snap, err := cmdCtx.Engine.Current(cmd.Context())
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	gen := cmdCtx.NewInsightGenerator()

	kinds := args
	if len(kinds) == 0 {
		kinds = insights.Kinds()
	}

	bal := cmdCtx.Engine.Balance()
	results := make([]InsightOutput, 0, len(kinds))
	for _, kind := range kinds {
		content, err := gen.Generate(cmd.Context(), kind, snap, bal)
		if err != nil {
			return fmt.Errorf("generate %s insight: %w", kind, err)
		}
		results = append(results, InsightOutput{Kind: kind, Content: content})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(results)
	}

	for i, res := range results {
		if i > 0 {
			r.Println("")
		}
		r.Header(2, insightTitle(res.Kind))
		r.Println(res.Content)
	}
	return nil
}

func insightTitle(kind string) string {
	switch kind {
	case core.InsightBudget:
		return "Budget Plan"
	case core.InsightLoan:
		return "Loan Eligibility"
	case core.InsightHealth:
		return "Health Check"
	}
	return kind
}
