// Package merge folds per-document extraction CSVs into aggregate files:
// the deduplicated master dataset, the academic merge with provenance and
// the per-type run merge.
package merge

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// AppendToMaster adds the rows not already present to the master CSV and
// rewrites it in full, existing rows first. Two rows are duplicates when
// their trimmed values agree on every column of the union header. Existing
// master rows are kept as they are even when they duplicate each other.
// It returns the number of rows added and the master row count afterwards.
func AppendToMaster(master string, header []string, rows []tabular.Row) (added, total int, err error) {
	var existing []tabular.Row

	switch _, statErr := os.Stat(master); {
	case statErr == nil:
		t, err := tabular.ReadFile(master)
		if err != nil && types.CodeOf(err) != types.CSV_NO_HEADER {
			return 0, 0, types.WrapError(ErrCodeMasterFailed, "failed to load master "+master, err)
		}
		if t != nil {
			header = tabular.UnionHeaders(t.Header, header)
			existing = t.Rows
		}
	case errors.Is(statErr, os.ErrNotExist):
	default:
		return 0, 0, types.WrapError(ErrCodeMasterFailed, "failed to stat master "+master, statErr)
	}
	if len(header) == 0 {
		header = tabular.AcademicHeader()
	}

	seen := make(map[string]struct{}, len(existing)+len(rows))
	for _, r := range existing {
		seen[rowKey(r, header)] = struct{}{}
	}

	fresh := make([]tabular.Row, 0, len(rows))
	for _, r := range rows {
		k := rowKey(r, header)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, r)
	}

	all := make([]tabular.Row, 0, len(existing)+len(fresh))
	all = append(all, existing...)
	all = append(all, fresh...)

	if err := tabular.Write(master, header, all); err != nil {
		return 0, 0, err
	}
	return len(fresh), len(all), nil
}

// rowKey joins the trimmed cells with a unit separator, which cannot occur
// in extracted text.
func rowKey(r tabular.Row, header []string) string {
	var b strings.Builder
	for i, h := range header {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(strings.TrimSpace(r[h]))
	}
	return b.String()
}

// abs resolves path, falling back to the cleaned input.
func abs(path string) string {
	if a, err := filepath.Abs(path); err == nil {
		return a
	}
	return filepath.Clean(path)
}
