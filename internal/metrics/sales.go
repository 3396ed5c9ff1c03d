package metrics

import (
	"sort"
	"strconv"
	"time"

	"github.com/finstack-labs/finsight/internal/extract"
)

// SalesMonthly is one calendar month of aggregated sales. Months with
// no recorded days still appear, zero-valued, so the series has no
// gaps between the first and last observed month.
type SalesMonthly struct {
	Month            string  `json:"month"`
	TotalSales       float64 `json:"total_sales"`
	AverageDailySales float64 `json:"average_daily_sales"`
	TransactionCount int     `json:"transaction_count"`
	TotalItemsSold   int     `json:"total_items_sold"`
}

// SalesMetrics summarizes the monthly series.
type SalesMetrics struct {
	TotalSales          float64 `json:"total_sales"`
	AverageMonthlySales float64 `json:"average_monthly_sales"`
	HighestSalesMonth   string  `json:"highest_sales_month"`
	LowestSalesMonth    string  `json:"lowest_sales_month"`
}

// AggregateSales rolls daily sales up into a gap-free monthly series.
// Daily revenue comes from the explicit sale amount when the source
// recorded one, otherwise from quantities priced through the product
// lookup, otherwise from the raw item count.
func AggregateSales(days []extract.SaleDay, prices map[int]float64) ([]SalesMonthly, SalesMetrics) {
	if len(days) == 0 {
		return nil, SalesMetrics{}
	}

	type bucket struct {
		total float64
		count int
		items int
	}
	buckets := map[string]*bucket{}
	var first, last time.Time

	for _, d := range days {
		items := 0
		for _, qty := range d.ProductSales {
			items += qty
		}

		var revenue float64
		switch {
		case d.HasSaleAmount:
			revenue = d.SaleAmount
		case prices != nil:
			for pid, qty := range d.ProductSales {
				id, err := strconv.Atoi(pid)
				if err != nil {
					continue
				}
				revenue += float64(qty) * prices[id]
			}
		default:
			revenue = float64(items)
		}

		month := monthKey(d.Date)
		b, ok := buckets[month]
		if !ok {
			b = &bucket{}
			buckets[month] = b
		}
		b.total += revenue
		b.count++
		b.items += items

		if first.IsZero() || d.Date.Before(first) {
			first = d.Date
		}
		if d.Date.After(last) {
			last = d.Date
		}
	}

	var monthly []SalesMonthly
	for cur := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC); !cur.After(last); cur = cur.AddDate(0, 1, 0) {
		month := cur.Format("2006-01")
		row := SalesMonthly{Month: month}
		if b, ok := buckets[month]; ok {
			row.TotalSales = b.total
			row.TransactionCount = b.count
			row.TotalItemsSold = b.items
			if b.count > 0 {
				row.AverageDailySales = b.total / float64(b.count)
			}
		}
		monthly = append(monthly, row)
	}

	var m SalesMetrics
	highest, lowest := monthly[0], monthly[0]
	for _, row := range monthly {
		m.TotalSales += row.TotalSales
		if row.TotalSales > highest.TotalSales {
			highest = row
		}
		if row.TotalSales < lowest.TotalSales {
			lowest = row
		}
	}
	m.AverageMonthlySales = m.TotalSales / float64(len(monthly))
	m.HighestSalesMonth = highest.Month
	m.LowestSalesMonth = lowest.Month
	return monthly, m
}

func monthKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01")
}

func sortMonths(months []string) {
	sort.Strings(months)
}
