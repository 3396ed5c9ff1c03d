// Package overview provides the dashboard landing page: KPI strip,
// cash-flow table, and trend chart.
package overview

import (
	"github.com/go-chi/chi/v5"

	"github.com/finstack-labs/finsight/internal/pipeline"
	"github.com/finstack-labs/finsight/internal/ui/notifier"
)

// SetupRoutes registers the overview feature routes.
func SetupRoutes(router chi.Router, engine *pipeline.Engine, notify *notifier.Notifier) error {
	handlers := NewHandlers(engine, notify)

	router.Get("/", handlers.OverviewPage)
	router.Get("/updates/overview", handlers.OverviewUpdates)
	router.Get("/charts/cashflow", handlers.CashflowChart)

	return nil
}
