// Package router wires the dashboard's feature routes.
package router

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/finstack-labs/finsight/internal/agent"
	gen "github.com/finstack-labs/finsight/internal/insights"
	"github.com/finstack-labs/finsight/internal/pipeline"
	chatFeature "github.com/finstack-labs/finsight/internal/ui/features/chat"
	insightsFeature "github.com/finstack-labs/finsight/internal/ui/features/insights"
	overviewFeature "github.com/finstack-labs/finsight/internal/ui/features/overview"
	runsFeature "github.com/finstack-labs/finsight/internal/ui/features/runs"
	"github.com/finstack-labs/finsight/internal/ui/notifier"
	"github.com/finstack-labs/finsight/internal/ui/resources"
	"github.com/finstack-labs/finsight/pkg/core"
)

// SetupRoutes configures all routes for the dashboard server.
func SetupRoutes(
	router chi.Router,
	engine *pipeline.Engine,
	store core.Store,
	generator *gen.Generator,
	chatter agent.Chatter,
	sessionStore *sessions.CookieStore,
	notify *notifier.Notifier,
	isDev bool,
) error {
	if isDev {
		setupReload(router)
	}

	router.Handle("/static/*", resources.Handler())

	if err := overviewFeature.SetupRoutes(router, engine, notify); err != nil {
		return err
	}
	if err := runsFeature.SetupRoutes(router, store, notify); err != nil {
		return err
	}
	if err := insightsFeature.SetupRoutes(router, engine, store, generator, notify); err != nil {
		return err
	}
	if err := chatFeature.SetupRoutes(router, engine, store, sessionStore, chatter); err != nil {
		return err
	}

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
