package providers

import (
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/llm"
)

// NewProvider creates a new LLM provider based on the configuration
func NewProvider(cfg llm.ProviderConfig) (llm.LLMProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case llm.ProviderOpenAI:
		return NewOpenAIProvider(cfg)

	case llm.ProviderMock:
		responses := cfg.MockResponses
		if len(responses) == 0 {
			responses = []string{"```academic.csv\nName,Type,Description,Target Components / Interfaces,Affected Components / Interfaces,Reference\n```\n```audit.jsonl\n```"}
		}
		return NewMockProvider(responses), nil

	default:
		return nil, llm.NewProviderNotFoundError(string(cfg.Type))
	}
}
