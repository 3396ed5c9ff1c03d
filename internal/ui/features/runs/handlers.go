package runs

import (
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/finstack-labs/finsight/internal/ui/notifier"
	"github.com/finstack-labs/finsight/internal/ui/views"
	"github.com/finstack-labs/finsight/pkg/core"
)

const historyLimit = 50

// Handlers provides HTTP handlers for the runs feature.
type Handlers struct {
	store    core.Store
	notifier *notifier.Notifier
}

// NewHandlers creates a Handlers instance.
func NewHandlers(store core.Store, notify *notifier.Notifier) *Handlers {
	return &Handlers{store: store, notifier: notify}
}

// RunsPage renders the run history page.
func (h *Handlers) RunsPage(w http.ResponseWriter, r *http.Request) {
	rows, err := h.buildRunRows()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := views.Page("Runs", "/runs", views.RunsTable(rows))
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RunsUpdates patches the run table when new runs complete.
func (h *Handlers) RunsUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			rows, err := h.buildRunRows()
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(views.RunsTable(rows)); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func (h *Handlers) buildRunRows() ([]views.RunRow, error) {
	runs, err := h.store.ListRuns(historyLimit)
	if err != nil {
		return nil, err
	}

	rows := make([]views.RunRow, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, views.RunRow{
			ID:          run.ID,
			Environment: run.Environment,
			Status:      string(run.Status),
			StartedAt:   run.StartedAt.Format("2006-01-02 15:04:05"),
			Duration:    runDuration(run),
			Error:       run.Error,
		})
	}
	return rows, nil
}

func runDuration(run *core.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
