// Package llm is a minimal client for OpenAI-compatible chat
// completion APIs. The default endpoint is the DashScope
// compatible-mode gateway serving the Qwen models, but any provider
// that speaks /chat/completions works.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Defaults used when the configuration leaves fields empty.
const (
	DefaultBaseURL     = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"
	DefaultModel       = "qwen-plus-2025-04-28"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 512
	DefaultTimeout     = 2 * time.Minute
)

const maxResponseBytes = 10 * 1024 * 1024

// Config holds client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Message is one chat turn. Tool results set Role to "tool" and carry
// the originating ToolCallID.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Tool describes a function the model may call.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the schema half of a tool definition.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall is the model's request to invoke a tool.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the call target and its JSON arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Tools       []Tool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client, filling unset config fields with the
// Qwen defaults. If logger is nil, a discard logger is used.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Chat sends a conversation and returns the assistant's reply message.
// Rate-limit and server errors are retried with exponential backoff.
func (c *Client) Chat(ctx context.Context, messages []Message, tools []Tool) (*Message, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	const maxRetries = 3
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			c.logger.Debug("retrying chat request",
				slog.Int("attempt", attempt), slog.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		msg, retryable, err := c.send(ctx, body)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("chat request failed after %d retries: %w", maxRetries, lastErr)
}

func (c *Client) send(ctx context.Context, body []byte) (*Message, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("rate limit exceeded (429)")
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error (%d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(data, 300))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, false, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, false, fmt.Errorf("response contained no choices")
	}

	msg := parsed.Choices[0].Message
	return &msg, false, nil
}

// Complete is a convenience wrapper for a single system+user exchange
// without tools.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
	msg, err := c.Chat(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
