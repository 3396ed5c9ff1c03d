package overview

import (
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/finstack-labs/finsight/internal/metrics"
	"github.com/finstack-labs/finsight/internal/pipeline"
	"github.com/finstack-labs/finsight/internal/ui/notifier"
	"github.com/finstack-labs/finsight/internal/ui/views"
)

// Handlers provides HTTP handlers for the overview feature.
type Handlers struct {
	engine   *pipeline.Engine
	notifier *notifier.Notifier
}

// NewHandlers creates a Handlers instance.
func NewHandlers(engine *pipeline.Engine, notify *notifier.Notifier) *Handlers {
	return &Handlers{engine: engine, notifier: notify}
}

// OverviewPage renders the full overview page.
func (h *Handlers) OverviewPage(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Current(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := views.Page("Overview", "/", views.Overview(buildOverviewData(snap)))
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// OverviewUpdates is the long-lived SSE endpoint for the overview. It
// patches the view whenever the pipeline broadcasts a new snapshot.
func (h *Handlers) OverviewUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			snap, err := h.engine.Current(ctx)
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(views.Overview(buildOverviewData(snap))); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// CashflowChart serves the cash-flow trend as a standalone chart page,
// embedded by the overview in an iframe.
func (h *Handlers) CashflowChart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Current(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	months := make([]string, 0, len(snap.Cashflow))
	cashIn := make([]opts.LineData, 0, len(snap.Cashflow))
	cashOut := make([]opts.LineData, 0, len(snap.Cashflow))
	cumCash := make([]opts.LineData, 0, len(snap.Cashflow))
	for _, row := range snap.Cashflow {
		months = append(months, row.Month)
		cashIn = append(cashIn, opts.LineData{Value: row.CashIn})
		cashOut = append(cashOut, opts.LineData{Value: row.CashOut})
		cumCash = append(cumCash, opts.LineData{Value: row.CumCash})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Cash Flow by Month"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(months).
		AddSeries("Cash In", cashIn).
		AddSeries("Cash Out", cashOut).
		AddSeries("Cumulative", cumCash)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func buildOverviewData(snap *metrics.Snapshot) views.OverviewData {
	var netCash float64
	if n := len(snap.Cashflow); n > 0 {
		netCash = snap.Cashflow[n-1].CumCash
	}

	data := views.OverviewData{
		KPIs: []views.KPI{
			{Label: "Total Sales", Value: ringgit(snap.Sales.TotalSales)},
			{Label: "Net Cash", Value: ringgit(netCash), Tone: tone(netCash)},
			{Label: "Runway", Value: runway(snap.BurnRateMonths)},
			{Label: "Gross Margin", Value: fmt.Sprintf("%.1f %%", snap.Ratios["gross_margin"]*100)},
		},
		TakenAt:   snap.TakenAt.Format("2006-01-02 15:04:05"),
		HasChart:  len(snap.Cashflow) > 0,
		ChartPath: "/charts/cashflow",
	}

	for _, row := range snap.Cashflow {
		data.Cashflow = append(data.Cashflow, views.CashflowRow{
			Month:      row.Month,
			CashIn:     ringgit(row.CashIn),
			CashOut:    ringgit(row.CashOut),
			Net:        ringgit(row.NetCash),
			NetNeg:     row.NetCash < 0,
			Cumulative: ringgit(row.CumCash),
			CumNeg:     row.CumCash < 0,
		})
	}
	return data
}

func ringgit(v float64) string {
	return fmt.Sprintf("RM %.2f", v)
}

func tone(v float64) string {
	if v < 0 {
		return "bad"
	}
	return "good"
}

func runway(months float64) string {
	if months >= 99 {
		return "cash positive"
	}
	return fmt.Sprintf("%.1f months", months)
}
