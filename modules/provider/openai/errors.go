package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	sdkopenai "github.com/sashabaranov/go-openai"

	"github.com/wirereport/wirereport/internal/provider"
)

// mapError converts an SDK error into the appropriate provider sentinel
// error. Non-API errors are returned as-is.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *sdkopenai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", provider.ErrRateLimit, apiErr.Message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", provider.ErrProviderDown, apiErr.Message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("openai auth error (HTTP %d): %w", apiErr.HTTPStatusCode, err)
	default:
		return fmt.Errorf("openai error (HTTP %d): %w", apiErr.HTTPStatusCode, err)
	}
}
