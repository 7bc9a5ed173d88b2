package openai

import (
	"context"

	sdkopenai "github.com/sashabaranov/go-openai"

	"github.com/wirereport/wirereport/internal/provider"
)

// Complete sends a synchronous completion request to the Chat Completions API.
func (o *OpenAI) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	resp, err := o.client.CreateChatCompletion(ctx, convertRequest(req, &o.config))
	if err != nil {
		return provider.CompletionResponse{}, mapError(err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return provider.CompletionResponse{
		Content: content,
		Usage: provider.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// convertRequest transforms a CompletionRequest into SDK parameters. The
// Chat Completions API takes system messages inline, so the message list
// maps one to one.
func convertRequest(req provider.CompletionRequest, cfg *Config) sdkopenai.ChatCompletionRequest {
	messages := make([]sdkopenai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = sdkopenai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	out := sdkopenai.ChatCompletionRequest{
		Model:     cfg.Model,
		Messages:  messages,
		MaxTokens: cfg.MaxTokens,
	}
	if req.MaxTokens > 0 {
		out.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	return out
}

// HealthCheck validates connectivity and authentication with a model listing,
// the cheapest authenticated call the API offers.
func (o *OpenAI) HealthCheck(ctx context.Context) error {
	_, err := o.client.ListModels(ctx)
	return mapError(err)
}
