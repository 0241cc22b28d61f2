// Package graphimport maps the reference datasets and the academic master
// CSV onto graph nodes and relationships and upserts them through a
// graph.GraphClient.
package graphimport

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graph"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/observability"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Config locates the inputs of an import.
type Config struct {
	DataDir           string
	MasterCSV         string
	StrictTypes       bool
	PostImportQueries []string
}

// Options controls a single import run.
type Options struct {
	// DryRun builds the plan without writing anything.
	DryRun bool
	// Reset deletes every node before importing.
	Reset bool
}

// Stats summarises an import run.
type Stats struct {
	Nodes         int
	Relationships int
	Unresolved    int
	Folded        int
	Deleted       int
	Queries       int
	DryRun        bool
	Duration      time.Duration
}

func (s Stats) String() string {
	verb := "Imported"
	if s.DryRun {
		verb = "Would import"
	}
	out := fmt.Sprintf("%s %d nodes and %d relationships (%d unresolved, %d folded duplicates)",
		verb, s.Nodes, s.Relationships, s.Unresolved, s.Folded)
	if s.Deleted > 0 {
		out += fmt.Sprintf(", deleted %d nodes first", s.Deleted)
	}
	if s.Queries > 0 {
		out += fmt.Sprintf(", ran %d post-import queries", s.Queries)
	}
	return out + fmt.Sprintf(" in %s", s.Duration.Round(time.Millisecond))
}

// Importer loads datasets into the graph.
type Importer struct {
	client  graph.GraphClient
	cfg     Config
	mapping *Mapping
	logger  *observability.TracedLogger
	metrics *observability.Metrics
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithMapping replaces the built-in name mapping.
func WithMapping(m *Mapping) ImporterOption {
	return func(i *Importer) {
		if m != nil {
			i.mapping = m
		}
	}
}

func WithLogger(logger *observability.TracedLogger) ImporterOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func WithMetrics(m *observability.Metrics) ImporterOption {
	return func(i *Importer) {
		i.metrics = m
	}
}

// NewImporter creates an Importer. client may be nil for dry runs and
// schema rendering.
func NewImporter(client graph.GraphClient, cfg Config, opts ...ImporterOption) *Importer {
	i := &Importer{
		client:  client,
		cfg:     cfg,
		mapping: DefaultMapping(),
		logger:  observability.NopLogger("graphimport"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Plan loads the datasets and resolves them into nodes and edges.
func (i *Importer) Plan(ctx context.Context) (*Plan, error) {
	ds, err := LoadDatasets(i.cfg.DataDir, i.cfg.MasterCSV)
	if err != nil {
		return nil, err
	}

	plan, warnings, err := BuildPlan(ds, i.mapping, i.cfg.StrictTypes)
	for _, w := range warnings {
		i.logger.Warn(ctx, "duplicate node folded", "detail", w)
	}
	if err != nil {
		return nil, err
	}
	for _, u := range plan.Unresolved {
		i.logger.Warn(ctx, "unresolved relationship endpoint", "relationship", u.String())
	}
	return plan, nil
}

// Run imports the datasets. Nodes are merged by label and name, so running
// it twice leaves the graph unchanged.
func (i *Importer) Run(ctx context.Context, opts Options) (stats Stats, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "graphimport.run", attribute.Bool("dry_run", opts.DryRun))
	defer func() { observability.EndSpan(span, err) }()
	defer i.metrics.ObserveStage("graph_import", start)

	stats.DryRun = opts.DryRun
	if !opts.DryRun && i.client == nil {
		return stats, types.NewError(ErrCodeNoClient, "graph import needs a graph client")
	}

	plan, err := i.Plan(ctx)
	if err != nil {
		return stats, err
	}
	stats.Folded = plan.Folded
	stats.Unresolved = len(plan.Unresolved)

	if opts.DryRun {
		stats.Nodes = len(plan.Nodes)
		stats.Relationships = len(plan.Edges)
		stats.Duration = time.Since(start)
		i.logger.Info(ctx, "graph import dry run", "nodes", stats.Nodes, "relationships", stats.Relationships)
		return stats, nil
	}

	if opts.Reset {
		n, err := i.client.DeleteAll(ctx)
		if err != nil {
			return stats, err
		}
		stats.Deleted = n
		i.logger.Info(ctx, "dropped all graph data", "nodes_deleted", n)
	}

	for _, n := range plan.Nodes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := i.client.MergeNode(ctx, n.Label, n.Name, n.Props); err != nil {
			return stats, err
		}
		stats.Nodes++
	}

	for _, e := range plan.Edges {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		ok, err := i.client.MergeRelationship(ctx, e.FromLabel, e.From, e.ToLabel, e.To, e.Type, map[string]any{"all": e.All})
		if err != nil {
			return stats, err
		}
		if !ok {
			stats.Unresolved++
			i.logger.Warn(ctx, "relationship endpoint missing from graph",
				"from", e.From, "to", e.To, "type", e.Type)
			continue
		}
		stats.Relationships++
	}
	i.metrics.GraphUpserts(stats.Nodes, stats.Relationships)

	for _, q := range i.cfg.PostImportQueries {
		qStart := time.Now()
		i.logger.Info(ctx, "running post-import query", "query", q)
		if _, err := i.client.Write(ctx, q, nil); err != nil {
			return stats, types.WrapError(ErrCodeQueryFailed, "post-import query failed", err)
		}
		stats.Queries++
		i.logger.Debug(ctx, "post-import query done", "duration", time.Since(qStart))
	}

	stats.Duration = time.Since(start)
	i.logger.Info(ctx, "graph import finished",
		"nodes", stats.Nodes,
		"relationships", stats.Relationships,
		"unresolved", stats.Unresolved,
		"duration", stats.Duration,
	)
	return stats, nil
}
