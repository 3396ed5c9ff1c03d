// Package insights provides the advisory cards feature: three
// LLM-generated texts (budget plan, loan eligibility, health check)
// with on-demand regeneration.
package insights

import (
	"github.com/go-chi/chi/v5"

	"github.com/finstack-labs/finsight/internal/insights"
	"github.com/finstack-labs/finsight/internal/pipeline"
	"github.com/finstack-labs/finsight/internal/ui/notifier"
	"github.com/finstack-labs/finsight/pkg/core"
)

// SetupRoutes registers the insights feature routes.
func SetupRoutes(
	router chi.Router,
	engine *pipeline.Engine,
	store core.Store,
	generator *insights.Generator,
	notify *notifier.Notifier,
) error {
	handlers := NewHandlers(engine, store, generator, notify)

	router.Get("/insights", handlers.InsightsPage)
	router.Get("/updates/insights", handlers.InsightsUpdates)
	router.Post("/insights/generate/{kind}", handlers.GenerateInsight)

	return nil
}
