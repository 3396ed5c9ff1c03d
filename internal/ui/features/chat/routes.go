// Package chat provides the copilot conversation feature. Each browser
// session gets its own conversation thread, persisted in the state
// store and replayed into the agent on every turn.
package chat

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/finstack-labs/finsight/internal/agent"
	"github.com/finstack-labs/finsight/internal/pipeline"
	"github.com/finstack-labs/finsight/pkg/core"
)

// SetupRoutes registers the chat feature routes.
func SetupRoutes(
	router chi.Router,
	engine *pipeline.Engine,
	store core.Store,
	sessionStore sessions.Store,
	chatter agent.Chatter,
) error {
	handlers := NewHandlers(engine, store, sessionStore, chatter)

	router.Get("/chat", handlers.ChatPage)
	router.Post("/chat/send", handlers.SendMessage)
	router.Post("/chat/reset", handlers.ResetSession)

	return nil
}
