// Package extract pulls operational business data out of the target
// database: paid expenses, daily sales, monthly summaries, active
// employees, and the product catalog.
//
// Queries use SELECT * and resolve columns by name, so the source
// schema can grow columns without breaking extraction. Numeric and
// timestamp columns are coerced leniently: unparsable values become
// zero rather than failing the whole refresh.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finstack-labs/finsight/pkg/adapter"
)

// Expense is one paid expense record.
type Expense struct {
	Type     string
	Amount   float64
	BillDate time.Time
	DueDate  time.Time
	Status   string
}

// SaleDay is one day of sales. ProductSales maps product id to quantity
// sold. SaleAmount carries the explicit revenue column when the source
// table has one.
type SaleDay struct {
	Date          time.Time
	ProductSales  map[string]int
	SaleAmount    float64
	HasSaleAmount bool
}

// MonthlySummary is one pre-aggregated monthly sales row.
type MonthlySummary struct {
	Month      string
	TotalSales float64
}

// Employee is one active employee record.
type Employee struct {
	Name     string
	Salary   float64
	HireDate time.Time
}

// Product is one catalog entry.
type Product struct {
	ProductID int
	Name      string
	Price     float64
}

// Extractor runs the extraction queries over a connected adapter.
type Extractor struct {
	db     adapter.Adapter
	logger *slog.Logger
}

// New creates an Extractor. If logger is nil, a discard logger is used.
func New(db adapter.Adapter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{db: db, logger: logger}
}

// Expenses returns paid expense records with coerced types.
func (e *Extractor) Expenses(ctx context.Context) ([]Expense, error) {
	rows, err := e.db.Query(ctx, `SELECT * FROM expenses WHERE status = 'Paid'`)
	if err != nil {
		return nil, fmt.Errorf("failed to extract expenses: %w", err)
	}
	raw, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expenses: %w", err)
	}

	out := make([]Expense, 0, len(raw))
	for _, r := range raw {
		out = append(out, Expense{
			Type:     asString(r["type"]),
			Amount:   asFloat(r["amount"]),
			BillDate: asTime(r["bill_date"]),
			DueDate:  asTime(r["due_date"]),
			Status:   asString(r["status"]),
		})
	}

	e.logger.Debug("extracted expenses", slog.Int("rows", len(out)))
	return out, nil
}

// DailySales returns daily sales rows. The product_sales column holds
// JSON (or JSONB) mapping product id to quantity; malformed payloads
// degrade to an empty map instead of failing the refresh.
func (e *Extractor) DailySales(ctx context.Context) ([]SaleDay, error) {
	rows, err := e.db.Query(ctx, `SELECT * FROM daily_sales`)
	if err != nil {
		return nil, fmt.Errorf("failed to extract daily sales: %w", err)
	}
	raw, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan daily sales: %w", err)
	}

	out := make([]SaleDay, 0, len(raw))
	for _, r := range raw {
		day := SaleDay{
			Date:         asTime(r["date"]),
			ProductSales: parseProductSales(r["product_sales"], e.logger),
		}
		if v, ok := r["sale_amount"]; ok {
			day.SaleAmount = asFloat(v)
			day.HasSaleAmount = true
		}
		out = append(out, day)
	}

	e.logger.Debug("extracted daily sales", slog.Int("rows", len(out)))
	return out, nil
}

// parseProductSales normalizes the product_sales payload. Some rows
// were written with single-quoted pseudo-JSON; those are repaired by
// swapping quote characters before the retry.
func parseProductSales(v any, logger *slog.Logger) map[string]int {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return map[string]int{}
	}

	var quantities map[string]float64
	if err := json.Unmarshal([]byte(s), &quantities); err != nil {
		repaired := strings.ReplaceAll(s, "'", `"`)
		if err := json.Unmarshal([]byte(repaired), &quantities); err != nil {
			logger.Warn("failed to parse product_sales", slog.String("value", s))
			return map[string]int{}
		}
	}

	out := make(map[string]int, len(quantities))
	for pid, qty := range quantities {
		out[pid] = int(qty)
	}
	return out
}

// MonthlySummaries returns the pre-aggregated monthly sales table.
func (e *Extractor) MonthlySummaries(ctx context.Context) ([]MonthlySummary, error) {
	rows, err := e.db.Query(ctx, `SELECT * FROM monthly_sales`)
	if err != nil {
		return nil, fmt.Errorf("failed to extract monthly summaries: %w", err)
	}
	raw, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan monthly summaries: %w", err)
	}

	out := make([]MonthlySummary, 0, len(raw))
	for _, r := range raw {
		out = append(out, MonthlySummary{
			Month:      asString(r["month"]),
			TotalSales: asFloat(r["total_sales"]),
		})
	}
	return out, nil
}

// Employees returns active employees with coerced types.
func (e *Extractor) Employees(ctx context.Context) ([]Employee, error) {
	rows, err := e.db.Query(ctx, `SELECT * FROM employees WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to extract employees: %w", err)
	}
	raw, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan employees: %w", err)
	}

	out := make([]Employee, 0, len(raw))
	for _, r := range raw {
		out = append(out, Employee{
			Name:     asString(r["name"]),
			Salary:   asFloat(r["salary"]),
			HireDate: asTime(r["hire_date"]),
		})
	}

	e.logger.Debug("extracted employees", slog.Int("rows", len(out)))
	return out, nil
}

// Products returns the product catalog with coerced prices.
func (e *Extractor) Products(ctx context.Context) ([]Product, error) {
	rows, err := e.db.Query(ctx, `SELECT * FROM products`)
	if err != nil {
		return nil, fmt.Errorf("failed to extract products: %w", err)
	}
	raw, err := scanAll(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}

	out := make([]Product, 0, len(raw))
	for _, r := range raw {
		out = append(out, Product{
			ProductID: asInt(r["product_id"]),
			Name:      asString(r["name"]),
			Price:     asFloat(r["price"]),
		})
	}
	return out, nil
}
