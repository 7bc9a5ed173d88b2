package anthropic

import (
	"context"
	"fmt"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
)

// HealthCheck verifies connectivity and credentials. The Messages API has
// no ping endpoint, so the cheapest probe is a one-token completion
// against the configured model, mapped through the same error taxonomy as
// regular requests.
func (a *Anthropic) HealthCheck(ctx context.Context) error {
	params := sdkanthropic.MessageNewParams{
		Model:     sdkanthropic.Model(a.config.Model),
		MaxTokens: 1,
		Messages: []sdkanthropic.MessageParam{
			sdkanthropic.NewUserMessage(sdkanthropic.NewTextBlock("ping")),
		},
	}
	if _, err := a.client.Messages.New(ctx, params); err != nil {
		return fmt.Errorf("anthropic: health probe: %w", mapError(err))
	}
	return nil
}
