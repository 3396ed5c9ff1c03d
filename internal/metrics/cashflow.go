package metrics

import "github.com/finstack-labs/finsight/internal/extract"

// CashflowRow is one month of cash movement.
type CashflowRow struct {
	Month   string  `json:"month"`
	CashIn  float64 `json:"cash_in"`
	CashOut float64 `json:"cash_out"`
	NetCash float64 `json:"net_cash"`
	CumCash float64 `json:"cum_cash"`
}

// Cashflow pairs monthly sales inflow with expense outflow and tracks
// the running balance. The series covers exactly the months present in
// the sales aggregate; expense months outside it are dropped.
func Cashflow(monthly []SalesMonthly, expenses []extract.Expense) []CashflowRow {
	outflow := map[string]float64{}
	for _, e := range expenses {
		outflow[monthKey(e.BillDate)] += e.Amount
	}

	rows := make([]CashflowRow, 0, len(monthly))
	var cum float64
	for _, m := range monthly {
		net := m.TotalSales - outflow[m.Month]
		cum += net
		rows = append(rows, CashflowRow{
			Month:   m.Month,
			CashIn:  m.TotalSales,
			CashOut: outflow[m.Month],
			NetCash: net,
			CumCash: cum,
		})
	}
	return rows
}

// Balance holds the balance-sheet positions used by the ratio
// calculations. These are configured, not extracted.
type Balance struct {
	CurrentAssets      float64 `koanf:"current_assets" json:"current_assets"`
	CurrentLiabilities float64 `koanf:"current_liabilities" json:"current_liabilities"`
	TotalDebt          float64 `koanf:"total_debt" json:"total_debt"`
	Equity             float64 `koanf:"equity" json:"equity"`
	Inventory          float64 `koanf:"inventory" json:"inventory"`
}

// FinancialRatios computes the built-in ratio set. Denominators are
// floored at 1 so a degenerate balance sheet cannot divide by zero,
// and zero total sales is treated as 1 for the same reason.
func FinancialRatios(monthly []SalesMonthly, exp ExpenseSummary, bal Balance) map[string]float64 {
	var salesTotal float64
	for _, m := range monthly {
		salesTotal += m.TotalSales
	}
	if salesTotal == 0 {
		salesTotal = 1
	}

	equity := bal.Equity
	if equity == 0 {
		equity = 1
	}

	return map[string]float64{
		"gross_margin":   (salesTotal - exp.TotalIngredients) / salesTotal,
		"current_ratio":  bal.CurrentAssets / atLeastOne(bal.CurrentLiabilities),
		"quick_ratio":    (bal.CurrentAssets - bal.Inventory) / atLeastOne(bal.CurrentLiabilities),
		"debt_to_equity": bal.TotalDebt / atLeastOne(equity),
		"dscr":           salesTotal / atLeastOne(exp.TotalOther+exp.TotalSalary),
	}
}

// BurnRateMonths estimates runway from the final month of the cash
// flow series. A business that is not burning cash reports 99.
func BurnRateMonths(cashflow []CashflowRow) float64 {
	if len(cashflow) == 0 {
		return 99
	}
	last := cashflow[len(cashflow)-1]
	if last.NetCash >= 0 {
		return 99
	}
	return last.CumCash / -last.NetCash
}

func atLeastOne(v float64) float64 {
	if v < 1 {
		return 1
	}
	return v
}
