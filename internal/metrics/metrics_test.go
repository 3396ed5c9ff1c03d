package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finstack-labs/finsight/internal/extract"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSummarizeExpenses(t *testing.T) {
	expenses := []extract.Expense{
		{Type: "Rent", Amount: 2500, BillDate: day(2025, 1, 1)},
		{Type: "Electricity", Amount: 300, BillDate: day(2025, 1, 10)},
		{Type: "Water", Amount: 80, BillDate: day(2025, 1, 12)},
		{Type: "Bakery Supplies", Amount: 1200, BillDate: day(2025, 1, 15)},
		{Type: "Advertising", Amount: 150, BillDate: day(2025, 2, 1)},
		{Type: "Insurance", Amount: 400, BillDate: day(2025, 2, 5)},
	}

	s := SummarizeExpenses(expenses)

	assert.InDelta(t, 2500, s.TotalRent, 0.001)
	assert.InDelta(t, 300, s.TotalElectricity, 0.001)
	assert.InDelta(t, 80, s.TotalWater, 0.001)
	assert.InDelta(t, 1200, s.TotalIngredients, 0.001)
	assert.InDelta(t, 150, s.TotalMarketing, 0.001)

	// Advertising counts as both marketing and other.
	assert.InDelta(t, 550, s.TotalOther, 0.001)

	require.Len(t, s.Monthly, 2)
	jan := s.Monthly[0]
	assert.Equal(t, "2025-01", jan.Month)
	assert.InDelta(t, 380, jan.Utilities, 0.001)
	assert.InDelta(t, 4080, jan.Total, 0.001)
}

func TestAggregateSalesFromSaleAmount(t *testing.T) {
	days := []extract.SaleDay{
		{Date: day(2025, 1, 1), SaleAmount: 500, HasSaleAmount: true, ProductSales: map[string]int{"1": 10}},
		{Date: day(2025, 1, 2), SaleAmount: 300, HasSaleAmount: true, ProductSales: map[string]int{"1": 6}},
		{Date: day(2025, 3, 1), SaleAmount: 700, HasSaleAmount: true, ProductSales: map[string]int{"2": 14}},
	}

	monthly, m := AggregateSales(days, nil)

	// February has no sales days but still appears.
	require.Len(t, monthly, 3)
	assert.Equal(t, "2025-01", monthly[0].Month)
	assert.InDelta(t, 800, monthly[0].TotalSales, 0.001)
	assert.InDelta(t, 400, monthly[0].AverageDailySales, 0.001)
	assert.Equal(t, 2, monthly[0].TransactionCount)
	assert.Equal(t, 16, monthly[0].TotalItemsSold)

	assert.Equal(t, "2025-02", monthly[1].Month)
	assert.Zero(t, monthly[1].TotalSales)

	assert.InDelta(t, 1500, m.TotalSales, 0.001)
	assert.InDelta(t, 500, m.AverageMonthlySales, 0.001)
	assert.Equal(t, "2025-01", m.HighestSalesMonth)
	assert.Equal(t, "2025-02", m.LowestSalesMonth)
}

func TestAggregateSalesFromPrices(t *testing.T) {
	days := []extract.SaleDay{
		{Date: day(2025, 1, 1), ProductSales: map[string]int{"1": 4, "2": 2}},
	}
	prices := map[int]float64{1: 8.5, 2: 4.0}

	monthly, _ := AggregateSales(days, prices)
	require.Len(t, monthly, 1)
	assert.InDelta(t, 42.0, monthly[0].TotalSales, 0.001)
}

func TestAggregateSalesFallsBackToItemCount(t *testing.T) {
	days := []extract.SaleDay{
		{Date: day(2025, 1, 1), ProductSales: map[string]int{"1": 4, "2": 2}},
	}
	monthly, _ := AggregateSales(days, nil)
	require.Len(t, monthly, 1)
	assert.InDelta(t, 6.0, monthly[0].TotalSales, 0.001)
}

func TestAggregateSalesEmpty(t *testing.T) {
	monthly, m := AggregateSales(nil, nil)
	assert.Empty(t, monthly)
	assert.Zero(t, m.TotalSales)
}

func TestSummarizeEmployees(t *testing.T) {
	m := SummarizeEmployees([]extract.Employee{
		{Name: "Ana", Salary: 3200, HireDate: day(2024, 6, 15)},
		{Name: "Ben", Salary: 2800, HireDate: day(2024, 6, 20)},
		{Name: "Siti", Salary: 4100, HireDate: day(2025, 1, 2)},
	})

	assert.InDelta(t, 10100, m.TotalSalary, 0.001)
	assert.InDelta(t, 10100.0/3, m.AverageSalary, 0.001)
	assert.Equal(t, 3, m.ActiveEmployees)
	assert.Equal(t, "Siti", m.TopPerformer)
	assert.InDelta(t, 6000, m.MonthlySalaries["2024-06"], 0.001)
}

func TestProcessProducts(t *testing.T) {
	rows, m := ProcessProducts([]extract.Product{
		{ProductID: 1, Name: "Loaf", Price: 10},
		{ProductID: 2, Name: "Sample", Price: 0},
	})

	require.Len(t, rows, 2)
	assert.InDelta(t, 7.0, rows[0].Cost, 0.001)
	assert.InDelta(t, 3.0, rows[0].ProfitPerItem, 0.001)

	assert.Equal(t, 2, m.TotalProducts)
	assert.InDelta(t, 5.0, m.AveragePrice, 0.001)

	// Zero-priced rows are excluded from the margin average.
	assert.InDelta(t, 0.3, m.AverageProfitMargin, 0.001)
}

func TestCashflow(t *testing.T) {
	monthly := []SalesMonthly{
		{Month: "2025-01", TotalSales: 12000},
		{Month: "2025-02", TotalSales: 9000},
	}
	expenses := []extract.Expense{
		{Type: "Rent", Amount: 9500, BillDate: day(2025, 1, 1)},
		{Type: "Rent", Amount: 10300, BillDate: day(2025, 2, 1)},
		{Type: "Rent", Amount: 500, BillDate: day(2024, 12, 1)}, // outside the series
	}

	cf := Cashflow(monthly, expenses)
	require.Len(t, cf, 2)
	assert.InDelta(t, 2500, cf[0].NetCash, 0.001)
	assert.InDelta(t, -1300, cf[1].NetCash, 0.001)
	assert.InDelta(t, 1200, cf[1].CumCash, 0.001)
}

func TestFinancialRatios(t *testing.T) {
	monthly := []SalesMonthly{{Month: "2025-01", TotalSales: 20000}}
	exp := ExpenseSummary{TotalIngredients: 6000, TotalOther: 2000, TotalSalary: 8000}
	bal := Balance{CurrentAssets: 85000, CurrentLiabilities: 32000, TotalDebt: 15000, Equity: 53000, Inventory: 6000}

	r := FinancialRatios(monthly, exp, bal)

	assert.InDelta(t, 0.7, r["gross_margin"], 0.001)
	assert.InDelta(t, 85000.0/32000, r["current_ratio"], 0.001)
	assert.InDelta(t, 79000.0/32000, r["quick_ratio"], 0.001)
	assert.InDelta(t, 15000.0/53000, r["debt_to_equity"], 0.001)
	assert.InDelta(t, 2.0, r["dscr"], 0.001)
}

func TestFinancialRatiosGuardsZeroDenominators(t *testing.T) {
	r := FinancialRatios(nil, ExpenseSummary{}, Balance{})
	assert.InDelta(t, 1.0, r["gross_margin"], 0.001)
	assert.InDelta(t, 0.0, r["current_ratio"], 0.001)
	assert.InDelta(t, 0.0, r["debt_to_equity"], 0.001)
}

func TestBurnRateMonths(t *testing.T) {
	burning := []CashflowRow{
		{Month: "2025-01", NetCash: 2500, CumCash: 2500},
		{Month: "2025-02", NetCash: -1300, CumCash: 1200},
	}
	assert.InDelta(t, 1200.0/1300, BurnRateMonths(burning), 0.001)

	healthy := []CashflowRow{{Month: "2025-01", NetCash: 2500, CumCash: 2500}}
	assert.InDelta(t, 99, BurnRateMonths(healthy), 0.001)

	assert.InDelta(t, 99, BurnRateMonths(nil), 0.001)
}

func TestBuildSnapshot(t *testing.T) {
	snap := Build(day(2025, 3, 1),
		[]extract.Expense{
			{Type: "Rent", Amount: 2500, BillDate: day(2025, 1, 1)},
			{Type: "Bakery Supplies", Amount: 1000, BillDate: day(2025, 1, 5)},
		},
		[]extract.SaleDay{
			{Date: day(2025, 1, 2), SaleAmount: 6000, HasSaleAmount: true, ProductSales: map[string]int{"1": 100}},
		},
		[]extract.Employee{{Name: "Ana", Salary: 3000, HireDate: day(2024, 6, 1)}},
		[]extract.Product{{ProductID: 1, Name: "Loaf", Price: 10}},
		Balance{CurrentAssets: 85000, CurrentLiabilities: 32000, TotalDebt: 15000, Equity: 53000},
	)

	// Payroll flows into the expense summary after the fact.
	assert.InDelta(t, 3000, snap.Expenses.TotalSalary, 0.001)

	// Unset inventory defaults to ingredient spend.
	assert.InDelta(t, (85000.0-1000)/32000, snap.Ratios["quick_ratio"], 0.001)

	flat := snap.Flat()
	assert.InDelta(t, 6000, flat["total_sales"], 0.001)
	assert.InDelta(t, 99, flat["burn_rate_months"], 0.001)
	assert.Contains(t, flat, "gross_margin")

	table, err := snap.Table("cashflow")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2025-01", table.Rows[0][0])

	_, err = snap.Table("nope")
	assert.Error(t, err)
}
