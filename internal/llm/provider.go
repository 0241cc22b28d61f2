package llm

import (
	"context"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// LLMProvider is the minimal surface the extraction engine needs from a
// model backend.
type LLMProvider interface {
	// Name returns the provider name (e.g., "openai", "mock")
	Name() string

	// Complete sends a completion request and returns the full response.
	// Implementations return *types.Error values with LLM_* codes.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Health checks the health status of the provider and its connectivity
	Health(ctx context.Context) types.HealthStatus
}
