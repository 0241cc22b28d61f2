package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

func newTestLoader(env map[string]string) ConfigLoader {
	return &viperConfigLoader{
		validator: NewValidator(),
		getenv:    func(k string) string { return env[k] },
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.Core.HomeDir)
	assert.Equal(t, "data", cfg.Core.DataDir)
	assert.Equal(t, "outputs", cfg.Core.OutputDir)
	assert.Equal(t, 4, cfg.Core.ParallelLimit)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-5", cfg.LLM.Model)
	assert.Equal(t, "medium", cfg.LLM.ReasoningEffort)
	assert.True(t, cfg.LLM.StrictPrompt)
	assert.Equal(t, 180_000, cfg.LLM.MaxContextChars)
	assert.Equal(t, 8000, cfg.LLM.MaxOutputTokens)

	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
	assert.False(t, cfg.Graph.StrictTypes)

	assert.True(t, cfg.Ledger.Enabled)
	assert.Equal(t, filepath.Join(cfg.Core.HomeDir, "ledger.db"), cfg.Ledger.Path)

	require.NoError(t, NewValidator().Validate(cfg))
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
core:
  data_dir: /srv/oran/data
  parallel_limit: 8
  timeout: 10m

llm:
  model: gpt-4.1
  reasoning_effort: high

graph:
  uri: neo4j://graph:7687
  strict_types: true
  post_import_queries:
    - "MATCH (n:Attack) SET n.reviewed = false"

logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := newTestLoader(nil).Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/srv/oran/data", cfg.Core.DataDir)
	assert.Equal(t, "outputs", cfg.Core.OutputDir)
	assert.Equal(t, 8, cfg.Core.ParallelLimit)
	assert.Equal(t, 10*time.Minute, cfg.Core.Timeout)

	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
	assert.Equal(t, "high", cfg.LLM.ReasoningEffort)
	assert.Equal(t, 8000, cfg.LLM.MaxOutputTokens)

	assert.Equal(t, "neo4j://graph:7687", cfg.Graph.URI)
	assert.Equal(t, "neo4j", cfg.Graph.Username)
	assert.True(t, cfg.Graph.StrictTypes)
	assert.Equal(t, []string{"MATCH (n:Attack) SET n.reviewed = false"}, cfg.Graph.PostImportQueries)
	assert.Equal(t, 30*time.Second, cfg.Graph.ConnectionTimeout)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadInterpolatesEnvVars(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
core:
  output_dir: ${ORAN_OUT}/runs
graph:
  password: ${GRAPH_SECRET}
ledger:
  path: ${UNSET_VAR}/ledger.db
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := newTestLoader(map[string]string{
		"ORAN_OUT":     "/tmp/oran",
		"GRAPH_SECRET": "s3cret",
	}).Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/oran/runs", cfg.Core.OutputDir)
	assert.Equal(t, "s3cret", cfg.Graph.Password)
	assert.Equal(t, "${UNSET_VAR}/ledger.db", cfg.Ledger.Path)
}

func TestLoadWithDefaultsAppliesEnvOverrides(t *testing.T) {
	cfg, err := newTestLoader(map[string]string{
		"OPENAI_API_KEY":  "sk-test",
		"ORAN_DATA_DIR":   "/data",
		"ORAN_MASTER_CSV": "/data/master.csv",
		"ORAN_RUN_DIR":    "/outputs/run-1",
		"NEO4J_URI":       "bolt://db:7687",
		"NEO4J_USERNAME":  "admin",
		"NEO4J_PASSWORD":  "pw",
	}).LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "/data", cfg.Core.DataDir)
	assert.Equal(t, "/data/master.csv", cfg.Core.MasterCSV)
	assert.Equal(t, "/outputs/run-1", cfg.Core.RunDir)
	assert.Equal(t, "bolt://db:7687", cfg.Graph.URI)
	assert.Equal(t, "admin", cfg.Graph.Username)
	assert.Equal(t, "pw", cfg.Graph.Password)
}

func TestApplyEnvKeepsConfiguredAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "from-file"

	ApplyEnv(cfg, func(k string) string {
		if k == "OPENAI_API_KEY" {
			return "from-env"
		}
		return ""
	})

	assert.Equal(t, "from-file", cfg.LLM.APIKey)
}

func TestLoadInvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name: "parallel limit too low",
			content: `
core:
  parallel_limit: 0
`,
			errContains: "core.parallel_limit must be at least 1",
		},
		{
			name: "unknown provider",
			content: `
llm:
  provider: anthropic
`,
			errContains: "llm.provider must be one of",
		},
		{
			name: "bad reasoning effort",
			content: `
llm:
  reasoning_effort: extreme
`,
			errContains: "llm.reasoning_effort must be one of",
		},
		{
			name: "tracing without endpoint",
			content: `
tracing:
  enabled: true
`,
			errContains: "tracing.endpoint is required",
		},
		{
			name: "metrics without textfile",
			content: `
metrics:
  enabled: true
`,
			errContains: "metrics.textfile is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.content), 0644))

			_, err := newTestLoader(nil).Load(configPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.True(t, errors.Is(err, types.NewError(types.CONFIG_VALIDATION_FAILED, "")))
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("core: [unterminated"), 0644))

	_, err := newTestLoader(nil).Load(configPath)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Graph.PostImportQueries = []string{"RETURN 1"}
	cfg.Core.ParallelLimit = 2

	require.NoError(t, Save(cfg, path))

	loaded, err := newTestLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Core.ParallelLimit)
	assert.Equal(t, cfg.Core.Timeout, loaded.Core.Timeout)
	assert.Equal(t, []string{"RETURN 1"}, loaded.Graph.PostImportQueries)
}

func TestMasked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.APIKey = "sk-live"
	cfg.Graph.Password = "hunter2"

	masked := Masked(cfg)
	assert.Equal(t, "********", masked.LLM.APIKey)
	assert.Equal(t, "********", masked.Graph.Password)
	assert.Equal(t, "sk-live", cfg.LLM.APIKey, "original must be untouched")
}

func TestValidatorReportsYAMLPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.BaseURL = "not a url"
	cfg.LLM.MaxRetries = 11
	cfg.Graph.URI = ""

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.base_url must be a valid URL")
	assert.Contains(t, err.Error(), "llm.max_retries must be at most 10 (got: 11)")
	assert.Contains(t, err.Error(), "graph.uri is required")
}
