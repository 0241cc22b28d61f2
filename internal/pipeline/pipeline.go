// Package pipeline sequences the post-extraction steps for a run directory:
// optional graph wipe, merge into the master CSV and graph import.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graph"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graphimport"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/merge"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/observability"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Mode selects what Run does to the graph.
type Mode string

const (
	ModeAppend  Mode = "append"
	ModeRebuild Mode = "rebuild"
	ModeDryRun  Mode = "dry-run"
)

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAppend, ModeRebuild, ModeDryRun:
		return m, nil
	}
	return "", types.NewError(ErrCodeInvalidMode,
		fmt.Sprintf("unknown mode %q (want append, rebuild or dry-run)", s))
}

// DefaultMasterName is used when no CSV in the data directory looks like a
// master.
const DefaultMasterName = "academics.csv"

var masterPatterns = []string{"academic", "academics", "paper", "papers"}

// DetectMaster returns override when set. Otherwise it returns the first
// CSV in dataDir whose lower-cased name contains one of the master patterns,
// trying the patterns in order, and falls back to academics.csv.
func DetectMaster(dataDir, override string) string {
	if override != "" {
		return override
	}

	candidates, _ := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	sort.Strings(candidates)
	for _, pat := range masterPatterns {
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(filepath.Base(c)), pat) {
				return c
			}
		}
	}
	return filepath.Join(dataDir, DefaultMasterName)
}

// Config holds the pipeline inputs that do not change between runs.
type Config struct {
	DataDir           string
	MasterCSV         string
	StrictTypes       bool
	PostImportQueries []string
}

// Result describes a pipeline run.
type Result struct {
	Mode      Mode
	RunDir    string
	MasterCSV string

	// Files and Rows are the dry-run estimate.
	Files int
	Rows  int

	Added    int
	Total    int
	Skipped  []string
	Import   graphimport.Stats
	Duration time.Duration
}

// Summary renders the result for the terminal.
func (r *Result) Summary() string {
	if r.Mode == ModeDryRun {
		return fmt.Sprintf("[Dry-run] Would append ~%d rows from %d CSV files\nTarget master CSV: %s",
			r.Rows, r.Files, r.MasterCSV)
	}

	label := "Appended"
	if r.Mode == ModeRebuild {
		label = "Rebuilt"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Added %d new rows to master CSV (now %d rows)\n", label, r.Added, r.Total)
	fmt.Fprintf(&b, "Master: %s\n", r.MasterCSV)
	fmt.Fprintf(&b, "Run dir: %s\n", r.RunDir)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped unreadable CSVs: %s\n", strings.Join(r.Skipped, ", "))
	}
	b.WriteString("--- graph import ---\n")
	b.WriteString(r.Import.String())
	return b.String()
}

// Pipeline runs the post-extraction steps against a graph.
type Pipeline struct {
	client  graph.GraphClient
	cfg     Config
	mapping *graphimport.Mapping
	logger  *observability.TracedLogger
	metrics *observability.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(logger *observability.TracedLogger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithMapping sets the name mapping handed to the graph importer.
func WithMapping(m *graphimport.Mapping) Option {
	return func(p *Pipeline) {
		p.mapping = m
	}
}

// New creates a Pipeline. client may be nil when only dry runs are made.
func New(client graph.GraphClient, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		client: client,
		cfg:    cfg,
		logger: observability.NopLogger("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes runDir in mode. Dry runs touch neither the master CSV nor
// the graph.
func (p *Pipeline) Run(ctx context.Context, runDir string, mode Mode) (res *Result, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.String("mode", string(mode)),
		attribute.String("run_dir", filepath.Base(runDir)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if mode, err = ParseMode(string(mode)); err != nil {
		return nil, err
	}

	runDir, err = filepath.Abs(runDir)
	if err != nil {
		return nil, types.WrapError(ErrCodeRunNotFound, "invalid run directory", err)
	}
	if info, statErr := os.Stat(runDir); statErr != nil || !info.IsDir() {
		return nil, types.NewError(ErrCodeRunNotFound, "run_dir not found: "+runDir)
	}

	dataDir, err := filepath.Abs(p.cfg.DataDir)
	if err != nil {
		return nil, types.WrapError(ErrCodeRunNotFound, "invalid data directory", err)
	}

	res = &Result{
		Mode:      mode,
		RunDir:    runDir,
		MasterCSV: DetectMaster(dataDir, p.cfg.MasterCSV),
	}
	logger := p.logger.WithRunID(filepath.Base(runDir))
	logger.Info(ctx, "pipeline started", "mode", mode, "master", res.MasterCSV)

	if mode == ModeDryRun {
		res.Files, res.Rows, err = tabular.CountRows(runDir, merge.Outputs...)
		if err != nil {
			return nil, err
		}
		res.Duration = time.Since(start)
		return res, nil
	}

	if p.client == nil {
		return nil, types.NewError(ErrCodeNoClient, "pipeline needs a graph client for mode "+string(mode))
	}

	if mode == ModeRebuild {
		deleted, err := p.client.DeleteAll(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info(ctx, "dropped all graph data", "nodes_deleted", deleted)
	}

	if err := p.appendRun(ctx, logger, res); err != nil {
		return nil, err
	}

	importer := graphimport.NewImporter(p.client, graphimport.Config{
		DataDir:           dataDir,
		MasterCSV:         res.MasterCSV,
		StrictTypes:       p.cfg.StrictTypes,
		PostImportQueries: p.cfg.PostImportQueries,
	},
		graphimport.WithMapping(p.mapping),
		graphimport.WithLogger(p.logger),
		graphimport.WithMetrics(p.metrics),
	)
	res.Import, err = importer.Run(ctx, graphimport.Options{})
	if err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	logger.Info(ctx, "pipeline finished",
		"added", res.Added,
		"total", res.Total,
		"nodes", res.Import.Nodes,
		"relationships", res.Import.Relationships,
		"duration", res.Duration,
	)
	return res, nil
}

func (p *Pipeline) appendRun(ctx context.Context, logger *observability.TracedLogger, res *Result) (err error) {
	start := time.Now()
	_, span := observability.StartSpan(ctx, "pipeline.merge")
	defer func() { observability.EndSpan(span, err) }()
	defer p.metrics.ObserveStage("merge", start)

	header, rows, skipped, err := tabular.ReadDir(res.RunDir, merge.Outputs...)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		logger.Warn(ctx, "skipping unreadable CSV", "path", s)
	}
	res.Skipped = skipped

	res.Added, res.Total, err = merge.AppendToMaster(res.MasterCSV, header, rows)
	if err != nil {
		return err
	}
	p.metrics.AddRows(res.Added, len(rows)-res.Added)
	return nil
}
