package chat

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/finstack-labs/finsight/internal/agent"
	"github.com/finstack-labs/finsight/internal/llm"
	"github.com/finstack-labs/finsight/internal/pipeline"
	"github.com/finstack-labs/finsight/internal/ui/views"
	"github.com/finstack-labs/finsight/pkg/core"
)

const (
	sessionName = "finsight"
	sessionKey  = "chat_session"
)

// ChatSignals carries the frontend input state.
type ChatSignals struct {
	Message string `json:"message"`
}

// Handlers provides HTTP handlers for the chat feature.
type Handlers struct {
	engine       *pipeline.Engine
	store        core.Store
	sessionStore sessions.Store
	chatter      agent.Chatter
}

// NewHandlers creates a Handlers instance.
func NewHandlers(engine *pipeline.Engine, store core.Store, sessionStore sessions.Store, chatter agent.Chatter) *Handlers {
	return &Handlers{engine: engine, store: store, sessionStore: sessionStore, chatter: chatter}
}

// ChatPage renders the conversation page.
func (h *Handlers) ChatPage(w http.ResponseWriter, r *http.Request) {
	sid, err := h.sessionID(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	msgs, err := h.transcript(sid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := views.Page("Chat", "/chat", views.ChatView(msgs, false))
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SendMessage runs one agent turn: show the user message immediately,
// then patch again with the copilot's answer.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	var signals ChatSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	question := strings.TrimSpace(signals.Message)
	if question == "" {
		return
	}

	sid, err := h.sessionID(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	prior, err := h.store.GetChatMessages(sid)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	// Echo the question with a thinking indicator before the model
	// round-trip, and clear the input box.
	pending := historyToViews(prior)
	pending = append(pending, views.ChatMessage{Role: "user", Content: question})
	if err := sse.PatchElementTempl(views.ChatView(pending, true)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchSignals([]byte(`{"message": ""}`)); err != nil {
		_ = sse.ConsoleError(err)
	}

	snap, err := h.engine.Current(r.Context())
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	ag := agent.New(h.chatter, snap, nil)
	if len(prior) > 0 {
		turns := make([]llm.Message, 0, len(prior))
		for _, m := range prior {
			turns = append(turns, llm.Message{Role: m.Role, Content: m.Content})
		}
		ag.Restore(turns)
	}

	answer, err := ag.Ask(r.Context(), question)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	if err := h.store.AppendChatMessage(&core.ChatMessage{
		SessionID: sid, Role: "user", Content: question,
	}); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := h.store.AppendChatMessage(&core.ChatMessage{
		SessionID: sid, Role: "assistant", Content: answer,
	}); err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	final := append(pending, views.ChatMessage{Role: "assistant", Content: answer})
	if err := sse.PatchElementTempl(views.ChatView(final, false)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// ResetSession clears the conversation thread.
func (h *Handlers) ResetSession(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	sid, err := h.sessionID(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := h.store.ClearChatSession(sid); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(views.ChatView(nil, false)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// sessionID returns the browser's chat session id, minting one into
// the cookie session on first contact.
func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	session, err := h.sessionStore.Get(r, sessionName)
	if err != nil {
		// A stale or tampered cookie falls back to a fresh session.
		session, _ = h.sessionStore.New(r, sessionName)
	}

	if sid, ok := session.Values[sessionKey].(string); ok && sid != "" {
		return sid, nil
	}

	sid := uuid.New().String()
	session.Values[sessionKey] = sid
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return sid, nil
}

func (h *Handlers) transcript(sid string) ([]views.ChatMessage, error) {
	msgs, err := h.store.GetChatMessages(sid)
	if err != nil {
		return nil, err
	}
	return historyToViews(msgs), nil
}

func historyToViews(msgs []*core.ChatMessage) []views.ChatMessage {
	out := make([]views.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, views.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
