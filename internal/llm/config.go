package llm

import (
	"fmt"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// ProviderType represents the type of LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderMock   ProviderType = "mock"
)

// ProviderConfig contains configuration for a specific LLM provider.
type ProviderConfig struct {
	Type            ProviderType
	APIKey          string
	BaseURL         string
	DefaultModel    string
	ReasoningEffort string

	// MockResponses seeds the mock provider.
	MockResponses []string
}

// Validate performs validation on the ProviderConfig.
func (p ProviderConfig) Validate() error {
	switch p.Type {
	case ProviderOpenAI, ProviderMock:
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED, fmt.Sprintf("unknown provider type: %q", p.Type))
	}
	if p.DefaultModel == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "default model cannot be empty")
	}
	if p.ReasoningEffort != "" && !IsValidEffort(p.ReasoningEffort) {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, fmt.Sprintf("invalid reasoning effort: %q", p.ReasoningEffort))
	}
	return nil
}
