package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatText is human-readable text output
	FormatText OutputFormat = "text"
	// FormatJSON is structured JSON output
	FormatJSON OutputFormat = "json"
)

// Formatter interface defines methods for formatting command output
type Formatter interface {
	// PrintSuccess prints a success message
	PrintSuccess(message string) error
	// PrintWarning prints a warning message
	PrintWarning(message string) error
	// PrintError prints an error message
	PrintError(message string) error
	// PrintTable prints a table with headers and rows
	PrintTable(headers []string, rows [][]string) error
	// PrintJSON prints arbitrary data as JSON
	PrintJSON(data any) error
}

// TextFormatter implements Formatter for human-readable text output.
// Status prefixes are coloured when the writer is a terminal.
type TextFormatter struct {
	writer io.Writer
	ok     *color.Color
	warn   *color.Color
	fail   *color.Color
}

// NewTextFormatter creates a new TextFormatter writing to the given writer
func NewTextFormatter(w io.Writer) *TextFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &TextFormatter{
		writer: w,
		ok:     color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed, color.Bold),
	}
}

// PrintSuccess prints a success message with a checkmark prefix
func (f *TextFormatter) PrintSuccess(message string) error {
	_, err := fmt.Fprintf(f.writer, "%s %s\n", f.ok.Sprint("✓"), message)
	return err
}

// PrintWarning prints a warning message with an exclamation prefix
func (f *TextFormatter) PrintWarning(message string) error {
	_, err := fmt.Fprintf(f.writer, "%s %s\n", f.warn.Sprint("!"), message)
	return err
}

// PrintError prints an error message with an X prefix
func (f *TextFormatter) PrintError(message string) error {
	_, err := fmt.Fprintf(f.writer, "%s %s\n", f.fail.Sprint("✗"), message)
	return err
}

// PrintTable prints a table using text/tabwriter for aligned columns
func (f *TextFormatter) PrintTable(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = strings.ToUpper(h)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headerLine, "\t")); err != nil {
		return err
	}

	separator := make([]string, len(headers))
	for i := range headers {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(separator, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return nil
}

// PrintJSON prints data as indented JSON
func (f *TextFormatter) PrintJSON(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// StatusColor returns the colour used for an extraction status.
func StatusColor(status string) *color.Color {
	switch status {
	case "ok":
		return color.New(color.FgGreen)
	case "skipped":
		return color.New(color.FgCyan)
	case "error":
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.Reset)
	}
}

// JSONFormatter implements Formatter for structured JSON output
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSONFormatter writing to the given writer
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONFormatter{writer: w}
}

// PrintSuccess prints a success message as JSON
func (f *JSONFormatter) PrintSuccess(message string) error {
	return f.PrintJSON(map[string]any{
		"status":  "success",
		"message": message,
	})
}

// PrintWarning prints a warning message as JSON
func (f *JSONFormatter) PrintWarning(message string) error {
	return f.PrintJSON(map[string]any{
		"status":  "warning",
		"message": message,
	})
}

// PrintError prints an error message as JSON
func (f *JSONFormatter) PrintError(message string) error {
	return f.PrintJSON(map[string]any{
		"status":  "error",
		"message": message,
	})
}

// PrintTable prints a table as JSON with headers and rows
func (f *JSONFormatter) PrintTable(headers []string, rows [][]string) error {
	data := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		rowMap := make(map[string]string)
		for i, header := range headers {
			if i < len(row) {
				rowMap[header] = row[i]
			} else {
				rowMap[header] = ""
			}
		}
		data = append(data, rowMap)
	}

	return f.PrintJSON(map[string]any{
		"headers": headers,
		"data":    data,
	})
}

// PrintJSON prints arbitrary data as formatted JSON
func (f *JSONFormatter) PrintJSON(data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// NewFormatter creates a new Formatter based on the output format
func NewFormatter(format OutputFormat, w io.Writer) Formatter {
	if w == nil {
		w = os.Stdout
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(w)
	default:
		return NewTextFormatter(w)
	}
}
