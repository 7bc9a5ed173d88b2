package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkopenai "github.com/sashabaranov/go-openai"

	"github.com/wirereport/wirereport/internal/provider"
)

func newTestProvider(baseURL string) *OpenAI {
	cfg := Config{Model: "gpt-4o-mini"}
	cfg.defaults()

	clientCfg := sdkopenai.DefaultConfig("test-key")
	clientCfg.BaseURL = baseURL
	return &OpenAI{
		config: cfg,
		client: sdkopenai.NewClientWithConfig(clientCfg),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestComplete_Success(t *testing.T) {
	var gotReq sdkopenai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Markets steady."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
		}`))
	}))
	defer srv.Close()

	o := newTestProvider(srv.URL)

	resp, err := o.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.LLMMessage{
			{Role: provider.MessageRoleSystem, Content: "You are a journalist."},
			{Role: provider.MessageRoleUser, Content: "Summarize"},
		},
		MaxTokens: 800,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "Markets steady." {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 16 {
		t.Errorf("expected total tokens 16, got %d", resp.Usage.TotalTokens)
	}
	if gotReq.MaxTokens != 800 {
		t.Errorf("expected request max tokens 800, got %d", gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("unexpected messages %+v", gotReq.Messages)
	}
}

func TestComplete_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "requests"}}`))
	}))
	defer srv.Close()

	o := newTestProvider(srv.URL)

	_, err := o.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "hi"}},
	})
	if !errors.Is(err, provider.ErrRateLimit) {
		t.Errorf("expected ErrRateLimit, got %v", err)
	}
}

func TestComplete_ProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer srv.Close()

	o := newTestProvider(srv.URL)

	_, err := o.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "hi"}},
	})
	if !errors.Is(err, provider.ErrProviderDown) {
		t.Errorf("expected ErrProviderDown, got %v", err)
	}
}
