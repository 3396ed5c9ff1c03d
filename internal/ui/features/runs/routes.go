// Package runs provides the run history feature.
package runs

import (
	"github.com/go-chi/chi/v5"

	"github.com/finstack-labs/finsight/internal/ui/notifier"
	"github.com/finstack-labs/finsight/pkg/core"
)

// SetupRoutes registers the runs feature routes.
func SetupRoutes(router chi.Router, store core.Store, notify *notifier.Notifier) error {
	handlers := NewHandlers(store, notify)

	router.Get("/runs", handlers.RunsPage)
	router.Get("/updates/runs", handlers.RunsUpdates)

	return nil
}
