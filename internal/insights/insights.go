// Package insights produces short advisory texts from a metrics
// snapshot: a budget plan, a loan eligibility assessment, and a
// financial health check. Results are cached in the state store keyed
// by a hash of their inputs, so an unchanged snapshot never triggers a
// second model call.
package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/template"

	"github.com/finstack-labs/finsight/internal/metrics"
	"github.com/finstack-labs/finsight/pkg/core"
)

// Completer is the slice of the LLM client the generators need.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// BusinessProfile holds the facts about the business that are not
// derivable from the operational data.
type BusinessProfile struct {
	YearsInBusiness int `koanf:"years_in_business" json:"years_in_business"`
	CreditScore     int `koanf:"credit_score" json:"credit_score"`
}

// Generator creates and caches insights.
type Generator struct {
	llm     Completer
	store   core.Store
	profile BusinessProfile
	logger  *slog.Logger
}

// NewGenerator creates a Generator. If logger is nil, a discard logger
// is used.
func NewGenerator(llm Completer, store core.Store, profile BusinessProfile, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{llm: llm, store: store, profile: profile, logger: logger}
}

const (
	budgetSystem = "You are a succinct SME-finance advisor. " +
		"Reply with brief Markdown bullet lists only."
	loanSystem = "You are a bank credit analyst speaking to a micro-business owner. " +
		"Be clear and concise; use Markdown bullets only."
	healthSystem = "You are an MSME financial coach. " +
		"Answer with short Markdown bullet lists; no extra commentary."
)

var budgetPrompt = template.Must(template.New("budget").Parse(`**Context**
• Avg monthly sales : RM {{printf "%.0f" .MonthlySales}}
• Inventory value   : RM {{printf "%.0f" .InventoryValue}}
• Salaries / month  : RM {{printf "%.0f" .Salaries}}
• Utilities / month : RM {{printf "%.0f" .Utilities}}

**Task**
Draft a 3-month budget plan:
1. Revenue goal
2. Spending cap (rent, utilities, salaries, COGS, marketing)
3. Net cash target
Respond in ≤120 words, *Markdown bullets only*.
`))

var loanPrompt = template.Must(template.New("loan").Parse(`• Avg monthly sales : RM {{printf "%.0f" .AvgMonthlySales}}
• Assets            : RM {{printf "%.0f" .TotalAssets}}
• Liabilities       : RM {{printf "%.0f" .Liabilities}}
• Years operating   : {{.YearsInBusiness}}
• Credit score      : {{.CreditScore}}

Evaluate loan eligibility and suggest:
• Max loan amount
• Ideal term & rate
• Key approval risks
≤80 words, Markdown bullets.
`))

var healthPrompt = template.Must(template.New("health").Parse(`• Profit margin         : {{printf "%.1f" .ProfitMargin}} %
• Current ratio         : {{printf "%.2f" .CurrentRatio}}
• Debt-to-equity ratio  : {{printf "%.2f" .DebtToEquity}}
• Inventory turnover    : {{printf "%.1f" .InventoryTurnover}}×/month
• Sales per employee    : RM {{printf "%.0f" .EmployeeProductivity}}

Give:
• 2 strengths
• 2 weaknesses
• 2 quick wins
• Overall health score /10
Respond in ≤120 words, Markdown bullets.
`))

// BudgetPlan returns a 3-month budget plan for the snapshot.
func (g *Generator) BudgetPlan(ctx context.Context, snap *metrics.Snapshot, bal metrics.Balance) (string, error) {
	months := float64(len(snap.SalesMonthly))
	if months == 0 {
		months = 1
	}
	inputs := struct {
		MonthlySales   float64 `json:"monthly_sales"`
		InventoryValue float64 `json:"inventory_value"`
		Salaries       float64 `json:"salaries"`
		Utilities      float64 `json:"utilities"`
	}{
		MonthlySales:   snap.Sales.AverageMonthlySales,
		InventoryValue: snap.Expenses.TotalIngredients,
		Salaries:       snap.Employees.TotalSalary,
		Utilities:      (snap.Expenses.TotalElectricity + snap.Expenses.TotalWater) / months,
	}
	return g.generate(ctx, core.InsightBudget, budgetSystem, budgetPrompt, inputs)
}

// LoanEligibility returns a loan eligibility assessment.
func (g *Generator) LoanEligibility(ctx context.Context, snap *metrics.Snapshot, bal metrics.Balance) (string, error) {
	inputs := struct {
		AvgMonthlySales float64 `json:"avg_monthly_sales"`
		TotalAssets     float64 `json:"total_assets"`
		Liabilities     float64 `json:"liabilities"`
		YearsInBusiness int     `json:"years_in_business"`
		CreditScore     int     `json:"credit_score"`
	}{
		AvgMonthlySales: snap.Sales.AverageMonthlySales,
		TotalAssets:     bal.CurrentAssets,
		Liabilities:     bal.CurrentLiabilities + bal.TotalDebt,
		YearsInBusiness: g.profile.YearsInBusiness,
		CreditScore:     g.profile.CreditScore,
	}
	return g.generate(ctx, core.InsightLoan, loanSystem, loanPrompt, inputs)
}

// HealthCheck returns a financial health review.
func (g *Generator) HealthCheck(ctx context.Context, snap *metrics.Snapshot, bal metrics.Balance) (string, error) {
	var turnover float64
	if snap.Expenses.TotalIngredients > 0 {
		turnover = snap.Sales.AverageMonthlySales / snap.Expenses.TotalIngredients
	}
	var perEmployee float64
	if snap.Employees.ActiveEmployees > 0 {
		perEmployee = snap.Sales.AverageMonthlySales / float64(snap.Employees.ActiveEmployees)
	}
	inputs := struct {
		ProfitMargin         float64 `json:"profit_margin"`
		CurrentRatio         float64 `json:"current_ratio"`
		DebtToEquity         float64 `json:"debt_to_equity"`
		InventoryTurnover    float64 `json:"inventory_turnover"`
		EmployeeProductivity float64 `json:"employee_productivity"`
	}{
		ProfitMargin:         snap.Ratios["gross_margin"] * 100,
		CurrentRatio:         snap.Ratios["current_ratio"],
		DebtToEquity:         snap.Ratios["debt_to_equity"],
		InventoryTurnover:    turnover,
		EmployeeProductivity: perEmployee,
	}
	return g.generate(ctx, core.InsightHealth, healthSystem, healthPrompt, inputs)
}

// Generate dispatches on the insight kind constants.
func (g *Generator) Generate(ctx context.Context, kind string, snap *metrics.Snapshot, bal metrics.Balance) (string, error) {
	switch kind {
	case core.InsightBudget:
		return g.BudgetPlan(ctx, snap, bal)
	case core.InsightLoan:
		return g.LoanEligibility(ctx, snap, bal)
	case core.InsightHealth:
		return g.HealthCheck(ctx, snap, bal)
	}
	return "", fmt.Errorf("unknown insight kind %q", kind)
}

// Kinds lists the supported insight kinds.
func Kinds() []string {
	return []string{core.InsightBudget, core.InsightLoan, core.InsightHealth}
}

func (g *Generator) generate(ctx context.Context, kind, system string, prompt *template.Template, inputs any) (string, error) {
	hash, err := hashInputs(inputs)
	if err != nil {
		return "", err
	}

	if cached, err := g.store.GetInsight(kind, hash); err != nil {
		return "", err
	} else if cached != nil {
		g.logger.Debug("insight cache hit",
			slog.String("kind", kind), slog.String("hash", hash[:8]))
		return cached.Content, nil
	}

	var buf strings.Builder
	if err := prompt.Execute(&buf, inputs); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", kind, err)
	}

	content, err := g.llm.Complete(ctx, system, buf.String())
	if err != nil {
		return "", fmt.Errorf("failed to generate %s insight: %w", kind, err)
	}
	content = strings.TrimSpace(content)

	if err := g.store.SaveInsight(&core.InsightRecord{
		Kind:      kind,
		InputHash: hash,
		Content:   content,
		Model:     g.llm.Model(),
	}); err != nil {
		return "", err
	}

	g.logger.Info("generated insight", slog.String("kind", kind))
	return content, nil
}

// hashInputs hashes the canonical JSON encoding of the prompt inputs.
func hashInputs(inputs any) (string, error) {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("failed to hash insight inputs: %w", err)
	}

	// json.Marshal on a struct already yields stable field order, but
	// normalize through a map anyway so shape changes keep old cache
	// entries from colliding.
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return "", err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, m[k])
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
