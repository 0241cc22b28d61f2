package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/document"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/ledger"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/observability"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// ManifestName is the per-run index of processed documents.
const ManifestName = "manifest.jsonl"

// Document statuses recorded in the manifest.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// DefaultParallelLimit bounds concurrent extractions when none is given.
const DefaultParallelLimit = 4

// BatchOptions controls a batch run.
type BatchOptions struct {
	OutputDir string
	DocType   string
	Scope     string

	// Force re-extracts documents the ledger already knows.
	Force bool

	Extract Options
}

// DocumentResult is one manifest line.
type DocumentResult struct {
	File       string   `json:"file"`
	CSVName    string   `json:"csv_name"`
	DocType    string   `json:"doc_type"`
	Scope      string   `json:"scope"`
	Rows       int      `json:"rows"`
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors"`
	RuntimeSec float64  `json:"runtime_sec"`
	Status     string   `json:"status"`
	Error      string   `json:"error,omitempty"`
	SHA256     string   `json:"sha256,omitempty"`
	Logs       []string `json:"-"`
}

// RunSummary describes a completed batch.
type RunSummary struct {
	RunID     string           `json:"run_id"`
	RunDir    string           `json:"run_dir"`
	Documents []DocumentResult `json:"documents"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Duration  time.Duration    `json:"duration_ns"`
}

// Batch extracts many documents into one run directory.
type Batch struct {
	engine   *Engine
	ledger   ledger.Store
	logger   *observability.TracedLogger
	metrics  *observability.Metrics
	parallel int
	model    string
	now      func() time.Time
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithLedger enables skipping documents already extracted.
func WithLedger(store ledger.Store) BatchOption {
	return func(b *Batch) {
		b.ledger = store
	}
}

// WithParallelLimit bounds concurrent extractions.
func WithParallelLimit(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.parallel = n
		}
	}
}

func WithBatchLogger(logger *observability.TracedLogger) BatchOption {
	return func(b *Batch) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithBatchMetrics(m *observability.Metrics) BatchOption {
	return func(b *Batch) {
		b.metrics = m
	}
}

// WithClock overrides the clock used for run directory names.
func WithClock(now func() time.Time) BatchOption {
	return func(b *Batch) {
		b.now = now
	}
}

// NewBatch creates a Batch driving engine.
func NewBatch(engine *Engine, opts ...BatchOption) *Batch {
	b := &Batch{
		engine:   engine,
		logger:   observability.NopLogger("extract"),
		parallel: DefaultParallelLimit,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewRunID returns "run-<UTC timestamp>-<8 hex chars>".
func NewRunID(now time.Time) string {
	return fmt.Sprintf("run-%s-%s", now.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}

// Run extracts files into a fresh run directory under opts.OutputDir. A
// failing document is recorded in the manifest and does not stop the
// others; Run itself fails only when the run directory cannot be prepared
// or ctx is cancelled.
func (b *Batch) Run(ctx context.Context, files []string, opts BatchOptions) (*RunSummary, error) {
	if len(files) == 0 {
		return nil, types.NewError(ErrCodeNoDocuments, "no PDF files given")
	}
	if opts.DocType == "" {
		opts.DocType = tabular.DocTypeAcademic
	}

	start := b.now()
	runID := NewRunID(start)
	runDir := filepath.Join(opts.OutputDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, types.WrapError(ErrCodeRunDirFailed, "failed to create "+runDir, err)
	}

	logger := b.logger.WithRunID(runID)
	logger.Info(ctx, "extraction run started",
		"run_dir", runDir,
		"documents", len(files),
		"parallel", b.parallel,
	)

	manifest, err := os.OpenFile(filepath.Join(runDir, ManifestName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, types.WrapError(ErrCodeRunDirFailed, "failed to create manifest", err)
	}
	defer manifest.Close()

	var (
		mu      sync.Mutex
		enc     = json.NewEncoder(manifest)
		results = make([]DocumentResult, len(files))
		bases   = uniqueBases(files)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallel)

	for i, file := range files {
		g.Go(func() error {
			res := b.process(gctx, logger, runID, runDir, file, bases[i], opts)
			results[i] = res
			b.metrics.DocumentExtracted(res.Status)

			mu.Lock()
			defer mu.Unlock()
			if err := enc.Encode(res); err != nil {
				return types.WrapError(ErrCodeWriteFailed, "failed to append manifest", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:     runID,
		RunDir:    runDir,
		Documents: results,
		Duration:  b.now().Sub(start),
	}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			summary.Succeeded++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	logger.Info(ctx, "extraction run finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", summary.Duration,
	)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (b *Batch) process(ctx context.Context, logger *observability.TracedLogger, runID, runDir, file, base string, opts BatchOptions) DocumentResult {
	res := DocumentResult{
		File:    file,
		DocType: opts.DocType,
		Scope:   opts.Scope,
		Errors:  []string{},
	}

	hash, err := document.HashFile(file)
	if err != nil {
		return failed(res, err)
	}
	res.SHA256 = hash

	if b.ledger != nil && !opts.Force {
		entry, err := b.ledger.Lookup(ctx, hash)
		if err != nil {
			logger.Warn(ctx, "ledger lookup failed", "file", file, "error", err)
		} else if entry != nil {
			logger.Info(ctx, "skipping document already extracted",
				"file", file,
				"run_id", entry.RunID,
				"csv", entry.CSVPath,
			)
			res.Status = StatusSkipped
			res.Valid = true
			res.Rows = entry.Rows
			return res
		}
	}

	out, err := b.engine.Run(ctx, file, opts.DocType, opts.Scope, opts.Extract)
	if err != nil {
		logger.Error(ctx, "document extraction failed", "file", file, "error", err)
		return failed(res, err)
	}
	res.Logs = out.Logs
	res.RuntimeSec = out.Runtime.Seconds()
	res.Rows = len(out.Records)

	valid, errs := Validate(out.Records, opts.Extract.Strict)
	res.Valid = valid
	if errs != nil {
		res.Errors = errs
	}

	csvPath, err := WriteRecordsCSV(out.Records, runDir, base)
	if err != nil {
		return failed(res, err)
	}
	res.CSVName = filepath.Base(csvPath)

	if _, err := WriteAudit(out.AuditLines, runDir, base); err != nil {
		return failed(res, err)
	}
	res.Status = StatusOK

	if b.ledger != nil && valid {
		model := opts.Extract.Model
		if model == "" {
			model = DefaultModel
		}
		err := b.ledger.Record(ctx, ledger.Entry{
			Hash:    hash,
			Path:    file,
			RunID:   runID,
			CSVPath: csvPath,
			Rows:    res.Rows,
			Model:   model,
		})
		if err != nil {
			logger.Warn(ctx, "failed to record ledger entry", "file", file, "error", err)
		}
	}
	return res
}

func failed(res DocumentResult, err error) DocumentResult {
	res.Status = StatusError
	res.Error = err.Error()
	if errors.Is(err, context.Canceled) {
		res.Error = "canceled"
	}
	return res
}

// uniqueBases derives output base names from file stems, suffixing
// repeats with -2, -3 and so on. Names are compared case-insensitively and a
// suffixed name never collides with another file's own stem.
func uniqueBases(files []string) []string {
	stems := make([]string, len(files))
	taken := make(map[string]bool, len(files))
	for i, f := range files {
		stems[i] = Stem(f)
	}

	out := make([]string, len(files))
	next := make(map[string]int, len(files))
	for i, stem := range stems {
		key := strings.ToLower(stem)
		if !taken[key] {
			taken[key] = true
			out[i] = stem
			continue
		}
		n := next[key]
		if n < 2 {
			n = 2
		}
		for {
			cand := fmt.Sprintf("%s-%d", stem, n)
			n++
			if ck := strings.ToLower(cand); !taken[ck] && !containsFold(stems, ck) {
				taken[ck] = true
				out[i] = cand
				break
			}
		}
		next[key] = n
	}
	return out
}

func containsFold(stems []string, key string) bool {
	for _, s := range stems {
		if strings.ToLower(s) == key {
			return true
		}
	}
	return false
}
