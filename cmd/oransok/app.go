package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/config"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graph"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graphimport"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/ledger"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/llm"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/llm/providers"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/observability"
)

// appState is the per-invocation runtime built from flags and config.
type appState struct {
	cfg        *config.Config
	configPath string
	handler    slog.Handler
	metrics    *observability.Metrics
	tracer     *sdktrace.TracerProvider

	// newGraphClient is replaced in tests.
	newGraphClient func(cfg config.GraphConfig) (graph.GraphClient, error)
	// newProvider is replaced in tests.
	newProvider func(cfg config.LLMConfig) (llm.LLMProvider, error)
}

var app = &appState{
	newGraphClient: defaultGraphClient,
	newProvider:    defaultProvider,
}

// setupApp loads configuration and builds logging, tracing and metrics
// before any command runs.
func setupApp(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	if flags.HomeDir != "" {
		if err := os.Setenv("ORANSOK_HOME", flags.HomeDir); err != nil {
			return internal.WrapError(internal.ExitConfigError, "failed to set home directory", err)
		}
	}
	app.configPath = flags.ConfigFile
	if app.configPath == "" {
		app.configPath = config.DefaultConfigPath(config.DefaultHomeDir())
	}

	if skipConfig[cmd.Name()] {
		return nil
	}

	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(app.configPath)
	if err != nil {
		return err
	}
	app.cfg = cfg

	logCfg := cfg.Logging
	logCfg.Level = flags.LogLevel(logCfg.Level)
	app.handler = observability.NewHandler(cmd.ErrOrStderr(), logCfg)
	slog.SetDefault(slog.New(app.handler))

	app.tracer, err = observability.InitTracing(cmd.Context(), cfg.Tracing)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		app.metrics = observability.NewMetrics()
	}
	return nil
}

// teardown flushes metrics and traces. It is safe to call when setup never
// ran.
func (a *appState) teardown(ctx context.Context) error {
	var firstErr error
	if a.cfg != nil && a.metrics != nil && a.cfg.Metrics.Textfile != "" {
		firstErr = a.metrics.WriteTextfile(a.cfg.Metrics.Textfile)
	}
	if err := observability.ShutdownTracing(ctx, a.tracer); err != nil && firstErr == nil {
		firstErr = err
	}
	a.tracer = nil
	return firstErr
}

// logger returns a component logger on the configured handler.
func (a *appState) logger(component string) *observability.TracedLogger {
	if a.handler == nil {
		return observability.NopLogger(component)
	}
	return observability.NewTracedLogger(a.handler, component)
}

// commandContext bounds long-running commands by core.timeout.
func (a *appState) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if a.cfg == nil || a.cfg.Core.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), a.cfg.Core.Timeout)
}

// connectGraph creates and connects the configured graph client. The caller
// must Close it.
func (a *appState) connectGraph(ctx context.Context) (graph.GraphClient, error) {
	client, err := a.newGraphClient(a.cfg.Graph)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func defaultGraphClient(cfg config.GraphConfig) (graph.GraphClient, error) {
	client, err := graph.NewNeo4jClient(graph.FromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return client, nil
}

func defaultProvider(cfg config.LLMConfig) (llm.LLMProvider, error) {
	return providers.NewProvider(llm.ProviderConfig{
		Type:            llm.ProviderType(cfg.Provider),
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		DefaultModel:    cfg.Model,
		ReasoningEffort: cfg.ReasoningEffort,
	})
}

// openLedger opens the extraction ledger when enabled. The returned close
// function is never nil.
func (a *appState) openLedger(ctx context.Context) (ledger.Store, func(), error) {
	if !a.cfg.Ledger.Enabled {
		return nil, func() {}, nil
	}
	db, err := ledger.Open(ctx, a.cfg.Ledger.Path)
	if err != nil {
		return nil, func() {}, err
	}
	return ledger.NewStore(db), func() { _ = db.Close() }, nil
}

// mapping loads the graph name mapping, including the configured file.
func (a *appState) mapping() (*graphimport.Mapping, error) {
	return graphimport.LoadMapping(a.cfg.Graph.MappingFile)
}

// formatter returns the output formatter selected by --output.
func formatter(cmd *cobra.Command) internal.Formatter {
	return internal.NewFormatter(globalFlags.GetOutputFormat(), cmd.OutOrStdout())
}

// info prints a line unless --quiet is set.
func info(w io.Writer, format string, args ...any) {
	if globalFlags.IsQuiet() {
		return
	}
	_, _ = fmt.Fprintf(w, format, args...)
}
