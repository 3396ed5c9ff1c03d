package insights

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	gen "github.com/finstack-labs/finsight/internal/insights"
	"github.com/finstack-labs/finsight/internal/pipeline"
	"github.com/finstack-labs/finsight/internal/ui/notifier"
	"github.com/finstack-labs/finsight/internal/ui/views"
	"github.com/finstack-labs/finsight/pkg/core"
)

const recentInsights = 30

// Handlers provides HTTP handlers for the insights feature.
type Handlers struct {
	engine    *pipeline.Engine
	store     core.Store
	generator *gen.Generator
	notifier  *notifier.Notifier
}

// NewHandlers creates a Handlers instance.
func NewHandlers(engine *pipeline.Engine, store core.Store, generator *gen.Generator, notify *notifier.Notifier) *Handlers {
	return &Handlers{engine: engine, store: store, generator: generator, notifier: notify}
}

// InsightsPage renders the advisory cards.
func (h *Handlers) InsightsPage(w http.ResponseWriter, r *http.Request) {
	cards, err := h.buildCards()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := views.Page("Insights", "/insights", views.InsightCards(cards))
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// InsightsUpdates patches the cards when insights are regenerated.
func (h *Handlers) InsightsUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			cards, err := h.buildCards()
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(views.InsightCards(cards)); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// GenerateInsight runs one generator against the current snapshot and
// patches the cards with the result.
func (h *Handlers) GenerateInsight(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	sse := datastar.NewSSE(w, r)

	snap, err := h.engine.Current(r.Context())
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	if _, err := h.generator.Generate(r.Context(), kind, snap, h.engine.Balance()); err != nil {
		_ = sse.ConsoleError(fmt.Errorf("generate %s: %w", kind, err))
		return
	}

	cards, err := h.buildCards()
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(views.InsightCards(cards)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	// Other tabs showing insights pick up the change too.
	h.notifier.Broadcast()
}

// buildCards assembles one card per kind from the most recent stored
// insight of that kind.
func (h *Handlers) buildCards() ([]views.InsightCard, error) {
	recent, err := h.store.ListInsights(recentInsights)
	if err != nil {
		return nil, err
	}

	latest := map[string]*core.InsightRecord{}
	for _, rec := range recent {
		if _, seen := latest[rec.Kind]; !seen {
			latest[rec.Kind] = rec
		}
	}

	cards := make([]views.InsightCard, 0, 3)
	for _, kind := range gen.Kinds() {
		card := views.InsightCard{Kind: kind, Title: cardTitle(kind)}
		if rec := latest[kind]; rec != nil {
			card.Content = rec.Content
			card.Model = rec.Model
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func cardTitle(kind string) string {
	switch kind {
	case core.InsightBudget:
		return "Budget Plan"
	case core.InsightLoan:
		return "Loan Eligibility"
	case core.InsightHealth:
		return "Health Check"
	}
	return kind
}
