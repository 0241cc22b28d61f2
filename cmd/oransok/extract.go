package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/extract"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/llm"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
)

var (
	extractDocType  string
	extractScope    string
	extractModel    string
	extractEffort   string
	extractStrict   bool
	extractForce    bool
	extractOutDir   string
	extractMaxChars int
)

var extractCmd = &cobra.Command{
	Use:   "extract PDF|DIR...",
	Short: "Extract security entities from PDFs into a new run directory",
	Long: `Extract sends each PDF's text to the configured LLM and writes one CSV
and one audit file per document into a fresh run directory, plus a
manifest.jsonl describing every document.

Directories are searched recursively for *.pdf files. Documents already in
the extraction ledger are skipped unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractDocType, "doc-type", tabular.DocTypeAcademic,
		fmt.Sprintf("Document type (%q or %q)", tabular.DocTypeAcademic, tabular.DocTypeSpecification))
	extractCmd.Flags().StringVar(&extractScope, "scope", extract.ScopeBoth, "Extraction scope: risks, threats or both")
	extractCmd.Flags().StringVar(&extractModel, "model", "", "Model name (default: llm.model)")
	extractCmd.Flags().StringVar(&extractEffort, "effort", "", "Reasoning effort low|medium|high (default: llm.reasoning_effort)")
	extractCmd.Flags().BoolVar(&extractStrict, "strict", false, "Use the strict prompt hint (default: llm.strict_prompt)")
	extractCmd.Flags().BoolVar(&extractForce, "force", false, "Re-extract documents already in the ledger")
	extractCmd.Flags().StringVar(&extractOutDir, "out", "", "Output directory for run-* folders (default: core.output_dir)")
	extractCmd.Flags().IntVar(&extractMaxChars, "max-chars", 0, "Truncate PDF text to this many characters (default: llm.max_context_chars)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := app.commandContext(cmd)
	defer cancel()
	cfg := app.cfg

	docType, err := normalizeDocType(extractDocType)
	if err != nil {
		return err
	}

	files, err := collectPDFs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return internal.NewCLIError(internal.ExitError, "no PDF files found in "+strings.Join(args, ", "))
	}

	opts := extract.Options{
		Model:           firstNonEmpty(extractModel, cfg.LLM.Model),
		ReasoningEffort: firstNonEmpty(extractEffort, cfg.LLM.ReasoningEffort),
		Verbosity:       cfg.LLM.Verbosity,
		Strict:          cfg.LLM.StrictPrompt,
		MaxChars:        cfg.LLM.MaxContextChars,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	}
	if cmd.Flags().Changed("strict") {
		opts.Strict = extractStrict
	}
	if extractMaxChars > 0 {
		opts.MaxChars = extractMaxChars
	}
	if opts.ReasoningEffort != "" && !llm.IsValidEffort(opts.ReasoningEffort) {
		return internal.NewCLIError(internal.ExitError, "--effort must be low, medium or high")
	}

	provider, err := app.newProvider(cfg.LLM)
	if err != nil {
		return err
	}

	store, closeLedger, err := app.openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()

	engine := extract.NewEngine(provider,
		extract.WithRequestsPerMinute(cfg.LLM.RequestsPerMinute),
		extract.WithMaxRetries(cfg.LLM.MaxRetries),
		extract.WithLogger(app.logger("extract")),
		extract.WithMetrics(app.metrics),
	)
	batch := extract.NewBatch(engine,
		extract.WithLedger(store),
		extract.WithParallelLimit(cfg.Core.ParallelLimit),
		extract.WithBatchLogger(app.logger("extract")),
		extract.WithBatchMetrics(app.metrics),
	)

	info(cmd.ErrOrStderr(), "Extracting %d document(s) with %s...\n", len(files), opts.Model)
	summary, err := batch.Run(ctx, files, extract.BatchOptions{
		OutputDir: firstNonEmpty(extractOutDir, cfg.Core.OutputDir),
		DocType:   docType,
		Scope:     extractScope,
		Force:     extractForce,
		Extract:   opts,
	})
	if err != nil {
		return err
	}

	out := formatter(cmd)
	if globalFlags.GetOutputFormat() == internal.FormatJSON {
		return out.PrintJSON(summary)
	}

	info(cmd.OutOrStdout(), "Run directory: %s\n", summary.RunDir)
	rows := make([][]string, 0, len(summary.Documents))
	for _, d := range summary.Documents {
		detail := d.CSVName
		if d.Error != "" {
			detail = d.Error
		} else if len(d.Errors) > 0 {
			detail = fmt.Sprintf("%s (%d validation issues)", d.CSVName, len(d.Errors))
		}
		rows = append(rows, []string{
			filepath.Base(d.File),
			internal.StatusColor(d.Status).Sprint(d.Status),
			fmt.Sprint(d.Rows),
			fmt.Sprintf("%.1fs", d.RuntimeSec),
			detail,
		})
	}
	if err := out.PrintTable([]string{"file", "status", "rows", "time", "output"}, rows); err != nil {
		return err
	}

	msg := fmt.Sprintf("%d succeeded, %d failed, %d skipped", summary.Succeeded, summary.Failed, summary.Skipped)
	if summary.Failed > 0 {
		return out.PrintWarning(msg)
	}
	return out.PrintSuccess(msg)
}

// normalizeDocType accepts the canonical names plus the short forms
// "academic" and "spec".
func normalizeDocType(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "academic", strings.ToLower(tabular.DocTypeAcademic):
		return tabular.DocTypeAcademic, nil
	case "spec", "specification", strings.ToLower(tabular.DocTypeSpecification):
		return tabular.DocTypeSpecification, nil
	}
	return "", internal.NewCLIError(internal.ExitError, fmt.Sprintf("unknown --doc-type %q", s))
}

// collectPDFs expands directories into the PDFs below them, sorted, and
// keeps explicit file arguments as given.
func collectPDFs(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, internal.WrapError(internal.ExitError, "cannot read "+arg, err)
		}
		if !fi.IsDir() {
			add(arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, internal.WrapError(internal.ExitError, "failed to scan "+arg, err)
		}
		sort.Strings(found)
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
