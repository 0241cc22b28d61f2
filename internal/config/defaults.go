package config

import (
	"path/filepath"
	"time"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := DefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir:       homeDir,
			DataDir:       "data",
			OutputDir:     "outputs",
			ParallelLimit: 4,
			Timeout:       30 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "gpt-5",
			ReasoningEffort:   "medium",
			Verbosity:         "low",
			StrictPrompt:      true,
			MaxContextChars:   180_000,
			MaxOutputTokens:   8000,
			RequestsPerMinute: 20,
			MaxRetries:        3,
		},
		Graph: GraphConfig{
			URI:                     "bolt://localhost:7687",
			Username:                "neo4j",
			MaxConnections:          50,
			ConnectionTimeout:       30 * time.Second,
			MaxTransactionRetryTime: 30 * time.Second,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir, "ledger.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			ServiceName: "oransok",
			SampleRate:  1.0,
		},
	}
}
