package config

import (
	"time"
)

// Config is the root configuration for oransok.
type Config struct {
	Core    CoreConfig    `mapstructure:"core" yaml:"core" validate:"required"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Graph   GraphConfig   `mapstructure:"graph" yaml:"graph"`
	Ledger  LedgerConfig  `mapstructure:"ledger" yaml:"ledger"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// CoreConfig contains filesystem layout and execution limits.
type CoreConfig struct {
	HomeDir string `mapstructure:"home_dir" yaml:"home_dir"`

	// DataDir holds the graph datasets and the master academic CSV.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// OutputDir is where extraction runs create their run-* directories.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// MasterCSV overrides master CSV auto-detection inside DataDir.
	MasterCSV string `mapstructure:"master_csv" yaml:"master_csv,omitempty"`

	// RunDir is the default run directory for merge and pipeline commands.
	RunDir string `mapstructure:"run_dir" yaml:"run_dir,omitempty"`

	ParallelLimit int           `mapstructure:"parallel_limit" yaml:"parallel_limit" validate:"min=1,max=100"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
}

// LLMConfig contains extraction model settings.
type LLMConfig struct {
	Provider          string  `mapstructure:"provider" yaml:"provider" validate:"oneof=openai mock"`
	Model             string  `mapstructure:"model" yaml:"model" validate:"required"`
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey            string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	ReasoningEffort   string  `mapstructure:"reasoning_effort" yaml:"reasoning_effort" validate:"omitempty,oneof=low medium high"`
	Verbosity         string  `mapstructure:"verbosity" yaml:"verbosity" validate:"omitempty,oneof=low medium high"`
	StrictPrompt      bool    `mapstructure:"strict_prompt" yaml:"strict_prompt"`
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	MaxContextChars   int     `mapstructure:"max_context_chars" yaml:"max_context_chars" validate:"min=1000"`
	MaxOutputTokens   int     `mapstructure:"max_output_tokens" yaml:"max_output_tokens" validate:"min=1"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute" validate:"min=0"`
	MaxRetries        int     `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`
}

// GraphConfig contains Neo4j connection and import settings.
type GraphConfig struct {
	URI                     string        `mapstructure:"uri" yaml:"uri" validate:"required"`
	Username                string        `mapstructure:"username" yaml:"username" validate:"required"`
	Password                string        `mapstructure:"password" yaml:"password"`
	Database                string        `mapstructure:"database" yaml:"database,omitempty"`
	MaxConnections          int           `mapstructure:"max_connections" yaml:"max_connections" validate:"min=1,max=500"`
	ConnectionTimeout       time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout" validate:"min=1s"`
	MaxTransactionRetryTime time.Duration `mapstructure:"max_transaction_retry_time" yaml:"max_transaction_retry_time"`

	// StrictTypes turns unresolved relationship destinations into errors.
	StrictTypes bool `mapstructure:"strict_types" yaml:"strict_types"`

	// MappingFile is an optional YAML file with extra name aliases,
	// expansions and drops.
	MappingFile string `mapstructure:"mapping_file" yaml:"mapping_file,omitempty"`

	// PostImportQueries run in order after every import.
	PostImportQueries []string `mapstructure:"post_import_queries" yaml:"post_import_queries,omitempty"`
}

// LedgerConfig controls the sqlite extraction ledger.
type LedgerConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate" validate:"min=0,max=1"`
}

// MetricsConfig controls the prometheus textfile export.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Textfile string `mapstructure:"textfile" yaml:"textfile,omitempty"`
}
