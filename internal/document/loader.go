package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

const (
	// DefaultMaxChars bounds the text handed to the model.
	DefaultMaxChars = 180_000

	// minUsefulChars is the trimmed length below which the primary
	// extractor is considered to have failed.
	minUsefulChars = 32

	truncationMarker = "\n…(truncated)…"
)

// Strategy names the extractor that produced a Text.
type Strategy string

const (
	StrategyPlain Strategy = "plain"
	StrategyRows  Strategy = "rows"
)

// Options controls LoadText.
type Options struct {
	// MaxChars truncates the text to this many runes. Zero means DefaultMaxChars.
	MaxChars int

	// SkipPreflight disables the pdfcpu validation pass.
	SkipPreflight bool

	Logger *slog.Logger
}

// Text is the extracted content of one PDF.
type Text struct {
	Path      string
	Content   string
	Pages     int
	Chars     int // rune count before truncation
	Truncated bool
	SHA256    string
	Strategy  Strategy
}

// LoadText extracts the plain text of the PDF at path.
func LoadText(ctx context.Context, path string, opts Options) (Text, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	if err := ctx.Err(); err != nil {
		return Text{}, err
	}

	sum, err := HashFile(path)
	if err != nil {
		return Text{}, err
	}

	out := Text{Path: path, SHA256: sum}

	if !opts.SkipPreflight {
		pages, err := preflight(path)
		if err != nil {
			logger.Warn("pdf preflight failed; continuing with text extraction", "path", path, "error", err)
		} else {
			out.Pages = pages
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return Text{}, types.WrapError(ErrCodeOpenFailed, "failed to open PDF", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Text{}, types.WrapError(ErrCodeOpenFailed, "failed to stat PDF", err)
	}

	reader, err := newReader(f, info.Size())
	if err != nil {
		return Text{}, types.WrapError(ErrCodeReadFailed, fmt.Sprintf("could not read PDF %s", path), err)
	}
	if n := reader.NumPage(); n > out.Pages {
		out.Pages = n
	}

	text, err := plainText(reader, logger)
	out.Strategy = StrategyPlain
	if err != nil || len(strings.TrimSpace(text)) < minUsefulChars {
		if err != nil {
			logger.Warn("plain text extraction failed", "path", path, "error", err)
		}
		if err := ctx.Err(); err != nil {
			return Text{}, err
		}
		rows, rowErr := rowText(reader)
		if rowErr != nil && strings.TrimSpace(text) == "" {
			return Text{}, types.WrapError(ErrCodeNoText, fmt.Sprintf("could not extract text from PDF %s", path), rowErr)
		}
		if len(strings.TrimSpace(rows)) > len(strings.TrimSpace(text)) {
			text = rows
			out.Strategy = StrategyRows
		}
	}

	if strings.TrimSpace(text) == "" {
		return Text{}, types.NewError(ErrCodeNoText, fmt.Sprintf("could not extract text from PDF %s", path))
	}

	out.Content, out.Truncated = Truncate(text, maxChars)
	out.Chars = utf8.RuneCountInString(text)
	return out, nil
}

// Truncate cuts s to max runes and appends the truncation marker. It reports
// whether s was cut.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:max]) + truncationMarker, true
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", types.WrapError(ErrCodeOpenFailed, "failed to open PDF", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", types.WrapError(ErrCodeReadFailed, "failed to hash PDF", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// preflight validates the file with pdfcpu and returns its page count.
func preflight(path string) (int, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return ctx.PageCount, fmt.Errorf("invalid PDF: %w", err)
	}
	return ctx.PageCount, nil
}

// newReader wraps pdf.NewReader; the parser panics on some malformed files.
func newReader(r io.ReaderAt, size int64) (reader *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()
	return pdf.NewReader(r, size)
}

// plainText joins the plain text of every page with newlines.
func plainText(reader *pdf.Reader, logger *slog.Logger) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		s, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("page text extraction failed", "page", i, "error", err)
			continue
		}
		pages = append(pages, s)
	}
	return strings.Join(pages, "\n"), nil
}

// rowText rebuilds page text from positioned rows, one line per row.
func rowText(reader *pdf.Reader) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return b.String(), err
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
