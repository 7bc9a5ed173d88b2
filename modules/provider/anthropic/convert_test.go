package anthropic

import (
	"testing"

	"github.com/wirereport/wirereport/internal/provider"
)

func TestConvertRequest_SplitsSystemMessages(t *testing.T) {
	cfg := Config{Model: "claude-sonnet-4-5-20250929", MaxTokens: 1024}

	params := convertRequest(provider.CompletionRequest{
		Messages: []provider.LLMMessage{
			{Role: provider.MessageRoleSystem, Content: "You are a journalist."},
			{Role: provider.MessageRoleUser, Content: "Report on the last hour."},
		},
	}, &cfg, nil)

	if len(params.System) != 1 {
		t.Fatalf("expected 1 system block, got %d", len(params.System))
	}
	if params.System[0].Text != "You are a journalist." {
		t.Errorf("unexpected system text %q", params.System[0].Text)
	}
	if len(params.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(params.Messages))
	}
}

func TestConvertRequest_MaxTokensOverride(t *testing.T) {
	cfg := Config{Model: "m", MaxTokens: 1024}

	params := convertRequest(provider.CompletionRequest{
		Messages:  []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "hi"}},
		MaxTokens: 800,
	}, &cfg, nil)
	if params.MaxTokens != 800 {
		t.Errorf("expected max tokens 800, got %d", params.MaxTokens)
	}

	params = convertRequest(provider.CompletionRequest{
		Messages: []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "hi"}},
	}, &cfg, nil)
	if params.MaxTokens != 1024 {
		t.Errorf("expected config default 1024, got %d", params.MaxTokens)
	}
}

func TestConvertRequest_Temperature(t *testing.T) {
	cfg := Config{Model: "m", MaxTokens: 1024}
	temp := 0.3

	params := convertRequest(provider.CompletionRequest{
		Messages:    []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "hi"}},
		Temperature: &temp,
	}, &cfg, nil)

	if !params.Temperature.Valid() || params.Temperature.Value != 0.3 {
		t.Errorf("expected temperature 0.3, got %+v", params.Temperature)
	}
}
