package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/finstack-labs/finsight/internal/extract"
)

// Snapshot is the complete output of one pipeline run: every derived
// table plus the scalar metrics. It marshals to JSON for persistence.
type Snapshot struct {
	TakenAt time.Time `json:"taken_at"`

	Expenses       ExpenseSummary     `json:"expenses"`
	SalesMonthly   []SalesMonthly     `json:"sales_monthly"`
	Sales          SalesMetrics       `json:"sales"`
	Employees      EmployeeMetrics    `json:"employees"`
	Products       []ProductRow       `json:"products"`
	ProductMetrics ProductMetrics     `json:"product_metrics"`
	Cashflow       []CashflowRow      `json:"cashflow"`
	Ratios         map[string]float64 `json:"ratios"`
	BurnRateMonths float64            `json:"burn_rate_months"`
}

// Flat returns every scalar metric keyed by name. This is the lookup
// surface for the chat agent and for user-defined ratio formulas.
func (s *Snapshot) Flat() map[string]float64 {
	m := map[string]float64{
		"total_rent":              s.Expenses.TotalRent,
		"total_electricity":       s.Expenses.TotalElectricity,
		"total_water":             s.Expenses.TotalWater,
		"total_ingredients":       s.Expenses.TotalIngredients,
		"total_marketing":         s.Expenses.TotalMarketing,
		"total_other":             s.Expenses.TotalOther,
		"total_salary":            s.Expenses.TotalSalary,
		"total_sales":             s.Sales.TotalSales,
		"average_monthly_sales":   s.Sales.AverageMonthlySales,
		"average_salary":          s.Employees.AverageSalary,
		"active_employees":        float64(s.Employees.ActiveEmployees),
		"total_products":          float64(s.ProductMetrics.TotalProducts),
		"average_price":           s.ProductMetrics.AveragePrice,
		"average_profit_per_item": s.ProductMetrics.AverageProfitPerItem,
		"average_profit_margin":   s.ProductMetrics.AverageProfitMargin,
		"burn_rate_months":        s.BurnRateMonths,
	}
	for name, v := range s.Ratios {
		m[name] = v
	}
	return m
}

// MetricNames returns the sorted names from Flat.
func (s *Snapshot) MetricNames() []string {
	flat := s.Flat()
	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table is a column-ordered view over one derived table.
type Table struct {
	Columns []string
	Rows    [][]string
}

// TableNames lists the tables reachable through Table.
func TableNames() []string {
	return []string{"sales_monthly", "products", "cashflow", "monthly_expenses"}
}

// Table returns a named derived table, or an error naming the
// available tables when the name is unknown.
func (s *Snapshot) Table(name string) (*Table, error) {
	switch name {
	case "sales_monthly":
		t := &Table{Columns: []string{"month", "total_sales", "average_daily_sales", "transaction_count", "total_items_sold"}}
		for _, r := range s.SalesMonthly {
			t.Rows = append(t.Rows, []string{
				r.Month, money(r.TotalSales), money(r.AverageDailySales),
				strconv.Itoa(r.TransactionCount), strconv.Itoa(r.TotalItemsSold),
			})
		}
		return t, nil
	case "products":
		t := &Table{Columns: []string{"product_id", "name", "price", "cost", "profit_per_item"}}
		for _, r := range s.Products {
			t.Rows = append(t.Rows, []string{
				strconv.Itoa(r.ProductID), r.Name, money(r.Price), money(r.Cost), money(r.ProfitPerItem),
			})
		}
		return t, nil
	case "cashflow":
		t := &Table{Columns: []string{"month", "cash_in", "cash_out", "net_cash", "cum_cash"}}
		for _, r := range s.Cashflow {
			t.Rows = append(t.Rows, []string{
				r.Month, money(r.CashIn), money(r.CashOut), money(r.NetCash), money(r.CumCash),
			})
		}
		return t, nil
	case "monthly_expenses":
		t := &Table{Columns: []string{"month", "utilities", "total"}}
		for _, r := range s.Expenses.Monthly {
			t.Rows = append(t.Rows, []string{r.Month, money(r.Utilities), money(r.Total)})
		}
		return t, nil
	}
	return nil, fmt.Errorf("unknown table %q (available: %v)", name, TableNames())
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Build assembles a snapshot from extracted records and the configured
// balance sheet. Inventory on the balance sheet is taken from
// ingredient spend when the configuration leaves it at zero.
func Build(takenAt time.Time,
	expenses []extract.Expense,
	sales []extract.SaleDay,
	employees []extract.Employee,
	products []extract.Product,
	bal Balance,
) *Snapshot {
	expSummary := SummarizeExpenses(expenses)
	productRows, productMetrics := ProcessProducts(products)
	monthly, salesMetrics := AggregateSales(sales, PriceLookup(productRows))
	empMetrics := SummarizeEmployees(employees)

	expSummary.TotalSalary = empMetrics.TotalSalary

	cashflow := Cashflow(monthly, expenses)
	if bal.Inventory == 0 {
		bal.Inventory = expSummary.TotalIngredients
	}

	return &Snapshot{
		TakenAt:        takenAt,
		Expenses:       expSummary,
		SalesMonthly:   monthly,
		Sales:          salesMetrics,
		Employees:      empMetrics,
		Products:       productRows,
		ProductMetrics: productMetrics,
		Cashflow:       cashflow,
		Ratios:         FinancialRatios(monthly, expSummary, bal),
		BurnRateMonths: BurnRateMonths(cashflow),
	}
}
