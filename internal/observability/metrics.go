package observability

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

const metricsNamespace = "oransok"

// Metrics holds the process counters. A nil *Metrics is valid and records
// nothing, so packages can accept one without checking configuration.
type Metrics struct {
	registry *prometheus.Registry

	RowsAdded              prometheus.Counter
	RowsDuplicate          prometheus.Counter
	LLMRequests            *prometheus.CounterVec
	DocumentsExtracted     *prometheus.CounterVec
	GraphNodesUpserted     prometheus.Counter
	GraphRelationsUpserted prometheus.Counter
	StageDuration          *prometheus.HistogramVec
}

// NewMetrics creates and registers all oransok metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RowsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_added_total",
			Help:      "Rows appended to the master CSV",
		}),
		RowsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_duplicate_total",
			Help:      "Incoming rows skipped as exact duplicates",
		}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "llm_requests_total",
			Help:      "LLM completion requests by outcome",
		}, []string{"status"}),
		DocumentsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_extracted_total",
			Help:      "Documents processed by the extraction batch by outcome",
		}, []string{"status"}),
		GraphNodesUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "graph_nodes_upserted_total",
			Help:      "Nodes merged into the graph",
		}),
		GraphRelationsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "graph_relationships_upserted_total",
			Help:      "Relationships merged into the graph",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of pipeline stages",
			Buckets:   prometheus.ExponentialBuckets(0.05, 4, 8),
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.RowsAdded,
		m.RowsDuplicate,
		m.LLMRequests,
		m.DocumentsExtracted,
		m.GraphNodesUpserted,
		m.GraphRelationsUpserted,
		m.StageDuration,
	)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) AddRows(added, duplicate int) {
	if m == nil {
		return
	}
	m.RowsAdded.Add(float64(added))
	m.RowsDuplicate.Add(float64(duplicate))
}

func (m *Metrics) LLMRequest(status string) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(status).Inc()
}

func (m *Metrics) DocumentExtracted(status string) {
	if m == nil {
		return
	}
	m.DocumentsExtracted.WithLabelValues(status).Inc()
}

func (m *Metrics) GraphUpserts(nodes, relationships int) {
	if m == nil {
		return
	}
	m.GraphNodesUpserted.Add(float64(nodes))
	m.GraphRelationsUpserted.Add(float64(relationships))
}

// ObserveStage records the time elapsed since start under stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.WrapError(ErrCodeMetricsWrite, "failed to create metrics directory", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return types.WrapError(ErrCodeMetricsWrite, "failed to write metrics textfile", err)
	}
	return nil
}
