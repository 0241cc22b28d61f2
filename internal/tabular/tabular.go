// Package tabular reads, unions and writes the CSV files exchanged between
// extraction runs, the master dataset and the graph importer.
package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Canonical academic columns emitted by extraction.
const (
	ColName     = "Name"
	ColType     = "Type"
	ColDesc     = "Description"
	ColTarget   = "Target Components / Interfaces"
	ColAffected = "Affected Components / Interfaces"
	ColRef      = "Reference"
)

// Document types recorded in run manifests.
const (
	DocTypeAcademic      = "Academic Paper"
	DocTypeSpecification = "O-RAN Specification"
)

// Provenance columns added when CSVs from several documents are merged.
const (
	SourceFileColumn = "__source_file"
	SourceDocColumn  = "__source_doc"
)

// AcademicHeader returns the canonical academic header.
func AcademicHeader() []string {
	return []string{ColName, ColType, ColDesc, ColTarget, ColAffected, ColRef}
}

// Row maps column name to cell value.
type Row map[string]string

// Get returns the cell for col or "".
func (r Row) Get(col string) string {
	return r[col]
}

// Values returns the cells of r in header order, missing cells as "".
func (r Row) Values(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = r[h]
	}
	return out
}

// Table is one parsed CSV file.
type Table struct {
	Path      string
	Header    []string
	Rows      []Row
	Delimiter rune
}

var delimiters = []rune{',', ';'}

// ReadFile parses the CSV at path. Comma is tried first; semicolon is used
// when the comma parse fails or yields a single column that contains ';'.
// Header names are trimmed, short rows are padded with "" and surplus cells
// are dropped.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.CSV_READ_FAILED, "failed to read "+path, err)
	}
	data = stripBOM(data)

	var lastErr error
	for i, delim := range delimiters {
		header, records, err := parse(data, delim)
		if err != nil {
			lastErr = err
			continue
		}
		if len(header) == 0 {
			lastErr = types.NewError(types.CSV_NO_HEADER, "no header in "+path)
			continue
		}
		if i == 0 && len(header) == 1 && strings.Contains(header[0], ";") {
			if alt, altRecords, altErr := parse(data, ';'); altErr == nil && len(alt) > 1 {
				header, records, delim = alt, altRecords, ';'
			}
		}

		t := &Table{Path: path, Header: header, Delimiter: delim, Rows: make([]Row, 0, len(records))}
		for _, rec := range records {
			row := make(Row, len(header))
			for j, h := range header {
				if j < len(rec) {
					row[h] = rec[j]
				} else {
					row[h] = ""
				}
			}
			t.Rows = append(t.Rows, row)
		}
		return t, nil
	}

	var coded *types.Error
	if errors.As(lastErr, &coded) {
		return nil, coded
	}
	return nil, types.WrapError(types.CSV_READ_FAILED, "failed to parse "+path, lastErr)
}

func parse(data []byte, delim rune) ([]string, [][]string, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	return header, records[1:], nil
}

func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

// FindCSVs returns every *.csv below dir in lexical order. Entries directly
// under dir whose name is in skip are left out; a skipped directory is not
// descended into.
func FindCSVs(dir string, skip ...string) ([]string, error) {
	root := filepath.Clean(dir)
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && filepath.Dir(path) == root && slices.Contains(skip, d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, types.WrapError(types.CSV_READ_FAILED, "failed to scan "+dir, err)
	}
	sort.Strings(out)
	return out, nil
}

// ReadDir concatenates the rows of every parsable CSV below dir under the
// union of their headers. Unparsable files are returned in skipped. When no
// file contributes a header, the canonical academic header is used.
// skip is passed to FindCSVs.
func ReadDir(dir string, skip ...string) (header []string, rows []Row, skipped []string, err error) {
	paths, err := FindCSVs(dir, skip...)
	if err != nil {
		return nil, nil, nil, err
	}

	for _, p := range paths {
		t, err := ReadFile(p)
		if err != nil {
			skipped = append(skipped, p)
			continue
		}
		header = UnionHeaders(header, t.Header)
		rows = append(rows, t.Rows...)
	}

	if len(header) == 0 {
		header = AcademicHeader()
	}
	return header, rows, skipped, nil
}

// UnionHeaders appends the columns of incoming not already in existing,
// preserving first-seen order. Provenance columns always end up last. An
// empty union yields the canonical academic header.
func UnionHeaders(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, cap(out))
	for _, list := range [][]string{existing, incoming} {
		for _, h := range list {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}

	for _, prov := range []string{SourceFileColumn, SourceDocColumn} {
		if !seen[prov] {
			continue
		}
		for i, h := range out {
			if h == prov {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
		out = append(out, prov)
	}

	if len(out) == 0 {
		return AcademicHeader()
	}
	return out
}

// CountRows returns the number of CSV files below dir and their data rows,
// header excluded. Unreadable files count as files with no rows.
func CountRows(dir string, skip ...string) (files, rows int, err error) {
	paths, err := FindCSVs(dir, skip...)
	if err != nil {
		return 0, 0, err
	}
	for _, p := range paths {
		files++
		t, err := ReadFile(p)
		if err != nil {
			continue
		}
		rows += len(t.Rows)
	}
	return files, rows, nil
}

// Write writes header and rows to path, creating parent directories.
func Write(path string, header []string, rows []Row) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Values(header))
	}
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		if err := cw.WriteAll(records); err != nil {
			return fmt.Errorf("failed to write CSV rows: %w", err)
		}
		return nil
	})
}

// WriteQuoted writes header and records with every field quoted. Records
// are padded or truncated to the header width.
func WriteQuoted(path string, header []string, records [][]string) error {
	return writeFile(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		writeQuotedRecord(bw, header)
		for _, rec := range records {
			fixed := make([]string, len(header))
			copy(fixed, rec)
			writeQuotedRecord(bw, fixed)
		}
		return bw.Flush()
	})
}

func writeQuotedRecord(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

// writeFile writes through a temp file in the target directory and renames
// it into place, so readers never observe a half-written CSV.
func writeFile(path string, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.WrapError(types.CSV_WRITE_FAILED, "failed to create "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return types.WrapError(types.CSV_WRITE_FAILED, "failed to create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return types.WrapError(types.CSV_WRITE_FAILED, "failed to write "+path, err)
	}
	if err := tmp.Close(); err != nil {
		return types.WrapError(types.CSV_WRITE_FAILED, "failed to write "+path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return types.WrapError(types.CSV_WRITE_FAILED, "failed to move "+path+" into place", err)
	}
	return nil
}
