package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
	getenv    func(string) string
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
		getenv:    os.Getenv,
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the file at path layered over DefaultConfig, so a partial file
// only overrides what it names.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to encode default config", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to load default config", err)
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	l.interpolate(&cfg)
	ApplyEnv(&cfg, l.getenv)

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "configuration validation failed", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration with environment
// overrides applied.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		ApplyEnv(cfg, l.getenv)
		if err := l.validator.Validate(cfg); err != nil {
			return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "default configuration validation failed", err)
		}
		return cfg, nil
	}

	return l.Load(path)
}

// interpolate expands ${VAR} references in every string-valued setting that
// commonly carries paths or secrets.
func (l *viperConfigLoader) interpolate(cfg *Config) {
	for _, s := range []*string{
		&cfg.Core.HomeDir,
		&cfg.Core.DataDir,
		&cfg.Core.OutputDir,
		&cfg.Core.MasterCSV,
		&cfg.Core.RunDir,
		&cfg.LLM.BaseURL,
		&cfg.LLM.APIKey,
		&cfg.LLM.Model,
		&cfg.Graph.URI,
		&cfg.Graph.Username,
		&cfg.Graph.Password,
		&cfg.Graph.Database,
		&cfg.Graph.MappingFile,
		&cfg.Ledger.Path,
		&cfg.Tracing.Endpoint,
		&cfg.Metrics.Textfile,
	} {
		*s = interpolateString(*s, l.getenv)
	}
}

// interpolateString replaces ${VAR_NAME} with environment variable values.
// Unset variables are left as-is.
func interpolateString(s string, getenv func(string) string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if envValue := getenv(varName); envValue != "" {
			return envValue
		}
		return match
	})
}

// ApplyEnv applies the well-known environment overrides on top of cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"OPENAI_API_KEY", &cfg.LLM.APIKey},
		{"ORAN_DATA_DIR", &cfg.Core.DataDir},
		{"ORAN_MASTER_CSV", &cfg.Core.MasterCSV},
		{"ORAN_RUN_DIR", &cfg.Core.RunDir},
		{"NEO4J_URI", &cfg.Graph.URI},
		{"NEO4J_USERNAME", &cfg.Graph.Username},
		{"NEO4J_PASSWORD", &cfg.Graph.Password},
	}
	for _, o := range overrides {
		// OPENAI_API_KEY only fills a missing key; the others always win.
		if o.env == "OPENAI_API_KEY" && *o.target != "" {
			continue
		}
		if v := getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to create config directory", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return types.WrapError(types.CONFIG_PARSE_FAILED, "failed to encode config", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}
