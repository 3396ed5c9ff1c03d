package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/finstack-labs/finsight/internal/cli/output"
	"github.com/finstack-labs/finsight/internal/metrics"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline and refresh the metrics snapshot",
		Long: `Extract sales, expenses, payroll, and product data from the source
database, compute the metrics snapshot, and persist it as a run.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Refresh against the configured source
  finsight run

  # Refresh the prod environment with JSON output
  finsight run --env prod --output json`,
		Aliases: []string{"refresh"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd)
		},
	}
	return cmd
}

// RunOutput is the JSON output for the run command.
type RunOutput struct {
	RunID          string  `json:"run_id"`
	Environment    string  `json:"environment"`
	Status         string  `json:"status"`
	TotalSales     float64 `json:"total_sales"`
	TotalExpenses  float64 `json:"total_expenses"`
	BurnRateMonths float64 `json:"burn_rate_months"`
	ElapsedMS      int64   `json:"elapsed_ms"`
}

func runRun(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	start := time.Now()

	snap, run, err := cmdCtx.Engine.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	elapsed := time.Since(start)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(RunOutput{
			RunID:          run.ID,
			Environment:    run.Environment,
			Status:         string(run.Status),
			TotalSales:     snap.Sales.TotalSales,
			TotalExpenses:  totalExpenses(snap),
			BurnRateMonths: snap.BurnRateMonths,
			ElapsedMS:      elapsed.Milliseconds(),
		})
	}

	r.Header(1, "Pipeline Run")
	r.KeyValue("Run", run.ID)
	r.KeyValue("Environment", run.Environment)
	r.KeyValue("Total sales", fmt.Sprintf("RM %.2f", snap.Sales.TotalSales))
	r.KeyValue("Total expenses", fmt.Sprintf("RM %.2f", totalExpenses(snap)))
	r.KeyValue("Burn rate", fmt.Sprintf("%.1f months", snap.BurnRateMonths))
	r.Println("")

	r.Header(2, "Cash Flow")
	table, err := snap.Table("cashflow")
	if err != nil {
		return err
	}
	r.Table(table.Columns, table.Rows)

	r.Println("")
	r.Success(fmt.Sprintf("Completed in %s", elapsed.Round(time.Millisecond)))
	return nil
}

func totalExpenses(snap *metrics.Snapshot) float64 {
	var total float64
	for _, m := range snap.Expenses.Monthly {
		total += m.Total
	}
	return total
}
