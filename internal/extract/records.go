package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Record is one extracted contribution.
type Record struct {
	ID                 string `json:"ID"`
	Name               string `json:"Name"`
	Type               string `json:"Type"`
	Description        string `json:"Description"`
	TargetComponents   string `json:"Target Components / Interfaces"`
	AffectedComponents string `json:"Affected Components / Interfaces"`
	Reference          string `json:"Reference"`
	Source             string `json:"Source"`
	DocType            string `json:"DocType"`
}

// Field returns the value of a canonical academic column.
func (r Record) Field(col string) string {
	switch col {
	case tabular.ColName:
		return r.Name
	case tabular.ColType:
		return r.Type
	case tabular.ColDesc:
		return r.Description
	case tabular.ColTarget:
		return r.TargetComponents
	case tabular.ColAffected:
		return r.AffectedComponents
	case tabular.ColRef:
		return r.Reference
	}
	return ""
}

// Row converts r to a tabular row over the canonical header.
func (r Record) Row() tabular.Row {
	row := make(tabular.Row, 6)
	for _, col := range tabular.AcademicHeader() {
		row[col] = r.Field(col)
	}
	return row
}

// RecordsFromRows maps parsed rows onto records by header name. IDs are
// "<source>-NNN", numbered from 1.
func RecordsFromRows(header []string, rows [][]string, docType, source string) []Record {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	cell := func(row []string, col string) string {
		if i, ok := idx[col]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	out := make([]Record, 0, len(rows))
	for n, row := range rows {
		out = append(out, Record{
			ID:                 fmt.Sprintf("%s-%03d", source, n+1),
			Name:               cell(row, tabular.ColName),
			Type:               cell(row, tabular.ColType),
			Description:        cell(row, tabular.ColDesc),
			TargetComponents:   cell(row, tabular.ColTarget),
			AffectedComponents: cell(row, tabular.ColAffected),
			Reference:          cell(row, tabular.ColRef),
			Source:             source,
			DocType:            docType,
		})
	}
	return out
}

var requiredColumns = []string{tabular.ColName, tabular.ColType, tabular.ColDesc, tabular.ColTarget}

// Validate reports records with a blank required field. The batch is
// acceptable when there are no errors or strict is false.
func Validate(records []Record, strict bool) (bool, []string) {
	var errs []string
	for i, r := range records {
		for _, col := range requiredColumns {
			if strings.TrimSpace(r.Field(col)) == "" {
				errs = append(errs, fmt.Sprintf("record[%d] missing/empty required field '%s'", i, col))
			}
		}
	}
	return len(errs) == 0 || !strict, errs
}

// WriteRecordsCSV writes records to <outDir>/<base>.csv under the canonical
// header and returns the path.
func WriteRecordsCSV(records []Record, outDir, base string) (string, error) {
	rows := make([]tabular.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Row())
	}
	path := filepath.Join(outDir, base+".csv")
	if err := tabular.Write(path, tabular.AcademicHeader(), rows); err != nil {
		return "", err
	}
	return path, nil
}

// WriteAudit writes the evidence lines to <outDir>/<base>.audit.jsonl.
// Lines that are not valid JSON are kept wrapped as {"raw": ...}.
func WriteAudit(lines []string, outDir, base string) (string, error) {
	var b strings.Builder
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if json.Valid([]byte(ln)) {
			b.WriteString(ln)
		} else {
			raw, _ := json.Marshal(map[string]string{"raw": ln})
			b.Write(raw)
		}
		b.WriteByte('\n')
	}

	path := filepath.Join(outDir, base+".audit.jsonl")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", types.WrapError(ErrCodeWriteFailed, "failed to write "+path, err)
	}
	return path, nil
}
