package merge

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

const (
	// DefaultAcademicName is the file written under <run>/merged/.
	DefaultAcademicName = "academics_merged.csv"

	// MergedDir is the run subdirectory holding merge outputs.
	MergedDir = "merged"

	// sniffRows bounds the rows inspected for a doc type column.
	sniffRows = 25

	noteNoCSVs      = "NOTE,No academic CSVs found in this run\n"
	noteUnparseable = "NOTE,Files were found but could not be parsed\n"
)

var academicName = regexp.MustCompile(`(?i)(academic|paper|papers|academics)`)

var docTypeColumns = []string{"doc_type", "type", "source_type", "source"}

// MergeAcademic concatenates the academic CSVs found under runDir, adds the
// provenance columns, drops exact duplicates and writes the result to
// <runDir>/merged/<name>. It returns the written path. When nothing can be
// merged a one-line NOTE file is written instead.
func MergeAcademic(runDir, name string) (string, error) {
	if name == "" {
		name = DefaultAcademicName
	}
	if err := checkDir(runDir); err != nil {
		return "", err
	}

	out := filepath.Join(runDir, MergedDir, name)
	paths, err := FindAcademicCSVs(runDir)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return out, writeNote(out, noteNoCSVs)
	}

	var (
		header []string
		rows   []tabular.Row
		parsed int
		seen   = make(map[string]struct{})
	)
	for _, p := range paths {
		t, err := tabular.ReadFile(p)
		if err != nil {
			continue
		}
		parsed++
		header = tabular.UnionHeaders(header, append(append([]string{}, t.Header...), tabular.SourceFileColumn, tabular.SourceDocColumn))

		src, doc := abs(p), filepath.Base(filepath.Dir(abs(p)))
		for _, r := range t.Rows {
			r[tabular.SourceFileColumn] = src
			r[tabular.SourceDocColumn] = doc
			rows = append(rows, r)
		}
	}
	if parsed == 0 {
		return out, writeNote(out, noteUnparseable)
	}

	unique := rows[:0]
	for _, r := range rows {
		k := exactKey(r, header)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, r)
	}

	if err := tabular.Write(out, header, unique); err != nil {
		return "", err
	}
	return out, nil
}

// FindAcademicCSVs lists the CSVs below runDir that hold academic rows,
// either by file name or by a doc type column mentioning "academic".
// Previous merge outputs are ignored.
func FindAcademicCSVs(runDir string) ([]string, error) {
	paths, err := tabular.FindCSVs(runDir, MergedDir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, p := range paths {
		if isAcademic(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func isAcademic(path string) bool {
	if t, err := tabular.ReadFile(path); err == nil {
		for _, col := range docTypeColumns {
			h := findColumn(t.Header, col)
			if h == "" {
				continue
			}
			for i, r := range t.Rows {
				if i >= sniffRows {
					break
				}
				if strings.Contains(strings.ToLower(r[h]), "academic") {
					return true
				}
			}
		}
	}
	return academicName.MatchString(filepath.Base(path))
}

func findColumn(header []string, lower string) string {
	for _, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) == lower {
			return h
		}
	}
	return ""
}

func exactKey(r tabular.Row, header []string) string {
	var b strings.Builder
	for i, h := range header {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(r[h])
	}
	return b.String()
}

func writeNote(path, note string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.WrapError(types.CSV_WRITE_FAILED, "failed to create "+filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(note), 0o644); err != nil {
		return types.WrapError(types.CSV_WRITE_FAILED, "failed to write "+path, err)
	}
	return nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return types.NewError(ErrCodeRunNotFound, "run_dir not found: "+dir)
	}
	return nil
}
