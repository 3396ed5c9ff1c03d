package insights

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finstack-labs/finsight/internal/metrics"
	"github.com/finstack-labs/finsight/internal/state"
	"github.com/finstack-labs/finsight/internal/testutil"
	"github.com/finstack-labs/finsight/pkg/core"
)

type fakeLLM struct {
	calls   int
	lastSys string
	lastMsg string
	reply   string
	err     error
}

func (f *fakeLLM) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.lastSys = system
	f.lastMsg = user
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Model() string { return "fake-model" }

func testSnapshot() *metrics.Snapshot {
	return &metrics.Snapshot{
		Expenses: metrics.ExpenseSummary{
			TotalElectricity: 600,
			TotalWater:       200,
			TotalIngredients: 4000,
			TotalSalary:      9000,
		},
		SalesMonthly: []metrics.SalesMonthly{
			{Month: "2025-01", TotalSales: 12000},
			{Month: "2025-02", TotalSales: 14000},
		},
		Sales:     metrics.SalesMetrics{AverageMonthlySales: 13000},
		Employees: metrics.EmployeeMetrics{TotalSalary: 9000, ActiveEmployees: 3},
		Ratios: map[string]float64{
			"gross_margin":   0.65,
			"current_ratio":  2.1,
			"debt_to_equity": 0.3,
		},
	}
}

func newTestGenerator(t *testing.T, llm Completer) *Generator {
	t.Helper()
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())

	profile := BusinessProfile{YearsInBusiness: 3, CreditScore: 680}
	return NewGenerator(llm, store, profile, testutil.NewTestLogger(t))
}

func TestBudgetPlan(t *testing.T) {
	llm := &fakeLLM{reply: "- cut flour spend"}
	g := newTestGenerator(t, llm)
	bal := metrics.Balance{CurrentAssets: 85000, CurrentLiabilities: 32000, TotalDebt: 15000}

	out, err := g.BudgetPlan(context.Background(), testSnapshot(), bal)
	require.NoError(t, err)
	assert.Equal(t, "- cut flour spend", out)

	assert.Contains(t, llm.lastSys, "SME-finance advisor")
	assert.Contains(t, llm.lastMsg, "Avg monthly sales : RM 13000")
	assert.Contains(t, llm.lastMsg, "Utilities / month : RM 400")
	assert.Contains(t, llm.lastMsg, "3-month budget plan")
}

func TestLoanEligibilityPromptInputs(t *testing.T) {
	llm := &fakeLLM{reply: "- max RM 50k"}
	g := newTestGenerator(t, llm)
	bal := metrics.Balance{CurrentAssets: 85000, CurrentLiabilities: 32000, TotalDebt: 15000}

	_, err := g.LoanEligibility(context.Background(), testSnapshot(), bal)
	require.NoError(t, err)

	assert.Contains(t, llm.lastSys, "credit analyst")
	assert.Contains(t, llm.lastMsg, "Liabilities       : RM 47000")
	assert.Contains(t, llm.lastMsg, "Years operating   : 3")
	assert.Contains(t, llm.lastMsg, "Credit score      : 680")
}

func TestHealthCheckPromptInputs(t *testing.T) {
	llm := &fakeLLM{reply: "- 8/10"}
	g := newTestGenerator(t, llm)

	_, err := g.HealthCheck(context.Background(), testSnapshot(), metrics.Balance{})
	require.NoError(t, err)

	assert.Contains(t, llm.lastSys, "financial coach")
	assert.Contains(t, llm.lastMsg, "Profit margin         : 65.0 %")
	assert.Contains(t, llm.lastMsg, "Current ratio         : 2.10")
}

func TestInsightCaching(t *testing.T) {
	llm := &fakeLLM{reply: "- advice"}
	g := newTestGenerator(t, llm)
	snap := testSnapshot()
	bal := metrics.Balance{CurrentAssets: 85000}

	_, err := g.BudgetPlan(context.Background(), snap, bal)
	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls)

	// Same inputs hit the cache.
	out, err := g.BudgetPlan(context.Background(), snap, bal)
	require.NoError(t, err)
	assert.Equal(t, "- advice", out)
	assert.Equal(t, 1, llm.calls)

	// Changed inputs trigger a new call.
	snap.Sales.AverageMonthlySales = 20000
	_, err = g.BudgetPlan(context.Background(), snap, bal)
	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls)
}

func TestGenerateDispatch(t *testing.T) {
	llm := &fakeLLM{reply: "- ok"}
	g := newTestGenerator(t, llm)
	snap := testSnapshot()

	for _, kind := range Kinds() {
		out, err := g.Generate(context.Background(), kind, snap, metrics.Balance{})
		require.NoError(t, err)
		assert.Equal(t, "- ok", out)
	}

	_, err := g.Generate(context.Background(), "horoscope", snap, metrics.Balance{})
	assert.Error(t, err)
}

func TestGenerateRecordsModel(t *testing.T) {
	llm := &fakeLLM{reply: "- ok"}
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())

	g := NewGenerator(llm, store, BusinessProfile{}, testutil.NewTestLogger(t))
	_, err := g.HealthCheck(context.Background(), testSnapshot(), metrics.Balance{})
	require.NoError(t, err)

	recs, err := store.ListInsights(10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, core.InsightHealth, recs[0].Kind)
	assert.Equal(t, "fake-model", recs[0].Model)
}
