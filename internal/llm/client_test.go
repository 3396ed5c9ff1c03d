package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finstack-labs/finsight/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	}, testutil.NewTestLogger(t))
}

func TestComplete(t *testing.T) {
	var gotReq map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "sales look healthy"}},
			},
		})
	})

	out, err := c.Complete(context.Background(), "you are an analyst", "how are sales?")
	require.NoError(t, err)
	assert.Equal(t, "sales look healthy", out)

	assert.Equal(t, DefaultModel, gotReq["model"])
	assert.InDelta(t, DefaultTemperature, gotReq["temperature"].(float64), 0.001)
	assert.InDelta(t, float64(DefaultMaxTokens), gotReq["max_tokens"].(float64), 0.001)
}

func TestChatToolCalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"message": map[string]any{
						"role": "assistant",
						"tool_calls": []map[string]any{
							{
								"id":   "call_1",
								"type": "function",
								"function": map[string]any{
									"name":      "get_metric",
									"arguments": `{"name":"total_sales"}`,
								},
							},
						},
					},
					"finish_reason": "tool_calls",
				},
			},
		})
	})

	msg, err := c.Chat(context.Background(),
		[]Message{{Role: "user", Content: "what are total sales?"}},
		[]Tool{{Type: "function", Function: ToolFunction{Name: "get_metric"}}})
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "get_metric", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"name":"total_sales"}`, msg.ToolCalls[0].Function.Arguments)
}

func TestChatRetriesRateLimit(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "ok"}},
			},
		})
	})

	msg, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, 2, calls)
}

func TestChatAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid model"}}`))
	})

	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestChatMissingAPIKey(t *testing.T) {
	c := NewClient(Config{}, testutil.NewTestLogger(t))
	_, err := c.Chat(context.Background(), nil, nil)
	assert.Error(t, err)
}
