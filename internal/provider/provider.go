// Package provider defines the interface for communicating with LLM
// summarization backends and a simple failover chain across them.
package provider

import "context"

// Provider is the interface for communicating with an LLM. Concrete
// implementations live in separate packages (e.g., provider.anthropic)
// and typically also implement core.Module for lifecycle management.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// ModelName returns the identifier of the underlying model.
	ModelName() string
}

// HealthChecker is an optional interface that providers may implement to
// support active health probing.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
