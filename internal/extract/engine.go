// Package extract turns PDFs into academic CSV rows with an LLM: it builds
// the prompt, calls the provider with retries and rate limiting, parses the
// fenced output blocks and writes per-document CSV and audit files.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/document"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/llm"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/observability"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

const (
	DefaultModel           = "gpt-5"
	DefaultMaxOutputTokens = 8000
	DefaultMaxRetries      = 3
	defaultBackoff         = 500 * time.Millisecond
)

// Options controls a single extraction.
type Options struct {
	Model           string
	ReasoningEffort string
	Verbosity       string
	Strict          bool
	MaxChars        int
	MaxOutputTokens int
}

// Result is the outcome of extracting one document.
type Result struct {
	File        string
	SHA256      string
	Records     []Record
	AuditLines  []string
	Logs        []string
	Runtime     time.Duration
	PromptChars int
	OutputChars int
	Truncated   bool
}

// Engine runs extractions against an LLM provider.
type Engine struct {
	provider   llm.LLMProvider
	limiter    *rate.Limiter
	logger     *observability.TracedLogger
	metrics    *observability.Metrics
	maxRetries int
	backoff    time.Duration
	loadText   func(ctx context.Context, path string, opts document.Options) (document.Text, error)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRequestsPerMinute throttles provider calls. Zero or less disables it.
func WithRequestsPerMinute(rpm int) EngineOption {
	return func(e *Engine) {
		if rpm <= 0 {
			e.limiter = nil
			return
		}
		e.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}
}

// WithMaxRetries sets how many times a retryable provider error is retried.
func WithMaxRetries(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay between retries; it doubles per attempt.
func WithBackoff(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.backoff = d
	}
}

func WithLogger(logger *observability.TracedLogger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an Engine for provider.
func NewEngine(provider llm.LLMProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		provider:   provider,
		logger:     observability.NopLogger("extract"),
		maxRetries: DefaultMaxRetries,
		backoff:    defaultBackoff,
		loadText:   document.LoadText,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Provider returns the provider the engine calls.
func (e *Engine) Provider() llm.LLMProvider {
	return e.provider
}

// Run extracts records from the PDF at path.
func (e *Engine) Run(ctx context.Context, path, docType, scope string, opts Options) (res *Result, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "extract.document",
		attribute.String("file", filepath.Base(path)),
		attribute.String("doc_type", docType),
	)
	defer func() { observability.EndSpan(span, err) }()

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	if opts.ReasoningEffort != "" && !llm.IsValidEffort(opts.ReasoningEffort) {
		return nil, types.NewError(ErrCodeInvalidOption,
			fmt.Sprintf("reasoning effort must be low, medium or high (got %q)", opts.ReasoningEffort))
	}

	text, err := e.loadText(ctx, path, document.Options{MaxChars: opts.MaxChars, Logger: e.logger.Slog()})
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(text.Content, scope, opts.Strict)
	req := llm.NewCompletionRequest(model,
		[]llm.Message{llm.NewSystemMessage(SystemPrompt), llm.NewUserMessage(prompt)},
		llm.WithMaxTokens(maxTokens),
		llm.WithReasoningEffort(opts.ReasoningEffort),
		llm.WithVerbosity(opts.Verbosity),
		llm.WithMetadata(llm.MetadataDocument, filepath.Base(path)),
	)

	resp, err := e.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	output := resp.Message.Content

	csvLines, auditLines := ExtractBlocks(output)
	header, rows := ParseAcademicCSV(csvLines)
	records := RecordsFromRows(header, rows, docType, Stem(path))

	p := message.NewPrinter(language.English)
	logs := []string{
		fmt.Sprintf("[LLM] file=%s scope=%s model=%s", filepath.Base(path), scope, model),
		p.Sprintf("[LLM] prompt_chars=%d output_chars=%d rows=%d", len([]rune(prompt)), len([]rune(output)), len(records)),
	}
	if len(auditLines) > 0 {
		logs = append(logs, fmt.Sprintf("[Audit] %d evidence rows captured.", len(auditLines)))
	}

	res = &Result{
		File:        path,
		SHA256:      text.SHA256,
		Records:     records,
		AuditLines:  auditLines,
		Logs:        logs,
		Runtime:     time.Since(start),
		PromptChars: len([]rune(prompt)),
		OutputChars: len([]rune(output)),
		Truncated:   text.Truncated,
	}

	span.SetAttributes(attribute.Int("rows", len(records)))
	e.logger.Info(ctx, "document extracted",
		"file", filepath.Base(path),
		"rows", len(records),
		"audit_lines", len(auditLines),
		"truncated", text.Truncated,
		"duration", res.Runtime,
	)
	return res, nil
}

// complete calls the provider, retrying retryable errors with exponential
// backoff. Every attempt waits for the rate limiter first.
func (e *Engine) complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, llm.TranslateError(e.provider.Name(), err)
			}
		}

		resp, err := e.provider.Complete(ctx, req)
		if err == nil {
			e.metrics.LLMRequest("success")
			return resp, nil
		}
		lastErr = err

		if !llm.IsRetryable(err) {
			e.metrics.LLMRequest("error")
			return nil, err
		}
		e.metrics.LLMRequest("retry")

		if attempt < e.maxRetries {
			backoff := e.backoff * time.Duration(1<<attempt)
			e.logger.Warn(ctx, "retrying LLM request",
				"attempt", attempt+1,
				"backoff", backoff,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return nil, llm.TranslateError(e.provider.Name(), ctx.Err())
			case <-time.After(backoff):
			}
		}
	}

	return nil, types.WrapError(ErrCodeLLMExhausted,
		fmt.Sprintf("LLM request failed after %d attempts", e.maxRetries+1), lastErr)
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
