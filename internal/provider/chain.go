package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Chain tries each configured provider in order, failing over to the next
// one on retryable errors. Non-retryable errors (bad request, auth) are
// surfaced immediately; failing over would just repeat them.
type Chain struct {
	entries []ChainEntry
	logger  *slog.Logger
}

// ChainEntry is one provider in the failover order.
type ChainEntry struct {
	Name     string
	Provider Provider
}

// NewChain creates a chain from the given entries, first entry first.
func NewChain(entries []ChainEntry, logger *slog.Logger) (*Chain, error) {
	if len(entries) == 0 {
		return nil, ErrNoProvider
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{entries: entries, logger: logger}, nil
}

// Complete implements Provider by delegating to the first entry that
// succeeds or fails non-retryably.
func (c *Chain) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	var errs []error

	for _, entry := range c.entries {
		resp, err := entry.Provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRetryable(err) {
			return CompletionResponse{}, fmt.Errorf("provider %s: %w", entry.Name, err)
		}

		c.logger.Warn("provider failed, trying next in chain",
			"provider", entry.Name,
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", entry.Name, err))
	}

	return CompletionResponse{}, fmt.Errorf("%w: %w", ErrAllProviders, errors.Join(errs...))
}

// ModelName implements Provider, reporting the primary entry's model.
func (c *Chain) ModelName() string {
	return c.entries[0].Provider.ModelName()
}

// Names returns the provider names in failover order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}
