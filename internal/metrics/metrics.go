// Package metrics turns extracted business records into the derived
// figures the dashboard and insight generators consume: expense
// summaries, monthly sales aggregates, payroll totals, product
// profitability, cash flow, and financial ratios.
package metrics

import (
	"strings"

	"github.com/finstack-labs/finsight/internal/extract"
)

// ExpenseSummary holds category totals across all paid expenses plus
// the per-month breakdown.
type ExpenseSummary struct {
	TotalRent        float64          `json:"total_rent"`
	TotalElectricity float64          `json:"total_electricity"`
	TotalWater       float64          `json:"total_water"`
	TotalIngredients float64          `json:"total_ingredients"`
	TotalMarketing   float64          `json:"total_marketing"`
	TotalOther       float64          `json:"total_other"`
	TotalSalary      float64          `json:"total_salary"`
	Monthly          []MonthlyExpense `json:"monthly"`
}

// MonthlyExpense is one month of expenses broken down by type.
// Utilities combines electricity and water.
type MonthlyExpense struct {
	Month     string             `json:"month"`
	ByType    map[string]float64 `json:"by_type"`
	Utilities float64            `json:"utilities"`
	Total     float64            `json:"total"`
}

// SummarizeExpenses computes category totals and the monthly breakdown.
// TotalSalary is left at zero; the caller fills it from payroll data.
// Ingredient spend is anything whose type mentions the bakery; such
// rows are excluded from TotalOther, but marketing spend counts toward
// both TotalMarketing and TotalOther.
func SummarizeExpenses(expenses []extract.Expense) ExpenseSummary {
	var s ExpenseSummary
	byMonth := map[string]*MonthlyExpense{}
	var months []string

	for _, e := range expenses {
		isIngredient := strings.Contains(strings.ToLower(e.Type), "bakery")
		switch {
		case e.Type == "Rent":
			s.TotalRent += e.Amount
		case e.Type == "Electricity":
			s.TotalElectricity += e.Amount
		case e.Type == "Water":
			s.TotalWater += e.Amount
		case isIngredient:
			s.TotalIngredients += e.Amount
		default:
			s.TotalOther += e.Amount
		}
		if e.Type == "Advertising" || e.Type == "Marketing" {
			s.TotalMarketing += e.Amount
		}

		month := monthKey(e.BillDate)
		m, ok := byMonth[month]
		if !ok {
			m = &MonthlyExpense{Month: month, ByType: map[string]float64{}}
			byMonth[month] = m
			months = append(months, month)
		}
		m.ByType[e.Type] += e.Amount
		m.Total += e.Amount
	}

	sortMonths(months)
	for _, month := range months {
		m := byMonth[month]
		m.Utilities = m.ByType["Electricity"] + m.ByType["Water"]
		s.Monthly = append(s.Monthly, *m)
	}
	return s
}

// EmployeeMetrics summarizes the active payroll.
type EmployeeMetrics struct {
	TotalSalary     float64            `json:"total_salary"`
	AverageSalary   float64            `json:"average_salary"`
	ActiveEmployees int                `json:"active_employees"`
	TopPerformer    string             `json:"top_performer"`
	MonthlySalaries map[string]float64 `json:"monthly_salaries"`
}

// SummarizeEmployees computes payroll totals. MonthlySalaries groups
// salary by hire month.
func SummarizeEmployees(employees []extract.Employee) EmployeeMetrics {
	m := EmployeeMetrics{
		ActiveEmployees: len(employees),
		MonthlySalaries: map[string]float64{},
	}
	if len(employees) == 0 {
		return m
	}

	top := employees[0]
	for _, e := range employees {
		m.TotalSalary += e.Salary
		m.MonthlySalaries[monthKey(e.HireDate)] += e.Salary
		if e.Salary > top.Salary {
			top = e
		}
	}
	m.AverageSalary = m.TotalSalary / float64(len(employees))
	m.TopPerformer = top.Name
	return m
}

// ProductRow is a catalog entry with derived cost and profit figures.
// Cost is estimated at 70% of the sale price.
type ProductRow struct {
	ProductID     int     `json:"product_id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Cost          float64 `json:"cost"`
	ProfitPerItem float64 `json:"profit_per_item"`
}

// ProductMetrics summarizes catalog-wide profitability.
type ProductMetrics struct {
	TotalProducts        int     `json:"total_products"`
	AveragePrice         float64 `json:"average_price"`
	AverageProfitPerItem float64 `json:"average_profit_per_item"`
	AverageProfitMargin  float64 `json:"average_profit_margin"`
}

// ProcessProducts derives cost and profit per item for each product.
// Zero-priced products are skipped when averaging the profit margin.
func ProcessProducts(products []extract.Product) ([]ProductRow, ProductMetrics) {
	rows := make([]ProductRow, 0, len(products))
	var m ProductMetrics
	m.TotalProducts = len(products)

	var marginSum float64
	var marginCount int
	for _, p := range products {
		cost := p.Price * 0.7
		row := ProductRow{
			ProductID:     p.ProductID,
			Name:          p.Name,
			Price:         p.Price,
			Cost:          cost,
			ProfitPerItem: p.Price - cost,
		}
		rows = append(rows, row)

		m.AveragePrice += p.Price
		m.AverageProfitPerItem += row.ProfitPerItem
		if p.Price != 0 {
			marginSum += row.ProfitPerItem / p.Price
			marginCount++
		}
	}
	if len(products) > 0 {
		m.AveragePrice /= float64(len(products))
		m.AverageProfitPerItem /= float64(len(products))
	}
	if marginCount > 0 {
		m.AverageProfitMargin = marginSum / float64(marginCount)
	}
	return rows, m
}

// PriceLookup builds a product-id to price map for sales valuation.
func PriceLookup(rows []ProductRow) map[int]float64 {
	lut := make(map[int]float64, len(rows))
	for _, r := range rows {
		lut[r.ProductID] = r.Price
	}
	return lut
}
