package merge

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Per-type aggregate names written into the run directory.
const (
	AcademicsAllName = "academics.all.csv"
	SpecsAllName     = "specs.all.csv"

	ManifestName = "manifest.jsonl"
)

// Outputs lists the run directory entries written by merge commands. They
// repeat rows of the per-document CSVs and must not be read back as input.
var Outputs = []string{MergedDir, AcademicsAllName, SpecsAllName}

// RunOutputs lists the aggregates MergeRun wrote. Empty fields mean the run
// had no documents of that type.
type RunOutputs struct {
	Academics string `json:"academics,omitempty"`
	Specs     string `json:"specs,omitempty"`
}

type manifestItem struct {
	CSVName string `json:"csv_name"`
	DocType string `json:"doc_type"`
}

// MergeRun combines the per-document CSVs of a run into one aggregate per
// document type. Documents are classified from manifest.jsonl when present,
// otherwise every *.csv in the run root is taken and names containing
// "spec" count as specifications. Rows are mapped by column name onto the
// canonical header and written fully quoted.
func MergeRun(runDir string) (RunOutputs, error) {
	var out RunOutputs
	if err := checkDir(runDir); err != nil {
		return out, err
	}

	academics, specs, err := classify(runDir)
	if err != nil {
		return out, err
	}

	if len(academics) > 0 {
		out.Academics = filepath.Join(runDir, AcademicsAllName)
		if err := mergeCanonical(out.Academics, academics); err != nil {
			return RunOutputs{}, err
		}
	}
	if len(specs) > 0 {
		out.Specs = filepath.Join(runDir, SpecsAllName)
		if err := mergeCanonical(out.Specs, specs); err != nil {
			return RunOutputs{}, err
		}
	}
	return out, nil
}

func classify(runDir string) (academics, specs []string, err error) {
	items, err := readManifest(filepath.Join(runDir, ManifestName))
	if err != nil {
		return nil, nil, err
	}

	if len(items) > 0 {
		for _, it := range items {
			if it.CSVName == "" {
				continue
			}
			p := filepath.Join(runDir, it.CSVName)
			if _, err := os.Stat(p); err != nil {
				continue
			}
			switch it.DocType {
			case tabular.DocTypeAcademic:
				academics = append(academics, p)
			case tabular.DocTypeSpecification:
				specs = append(specs, p)
			}
		}
		return academics, specs, nil
	}

	matches, err := filepath.Glob(filepath.Join(runDir, "*.csv"))
	if err != nil {
		return nil, nil, types.WrapError(types.CSV_READ_FAILED, "failed to list "+runDir, err)
	}
	sort.Strings(matches)
	for _, p := range matches {
		base := filepath.Base(p)
		if base == AcademicsAllName || base == SpecsAllName {
			continue
		}
		if strings.Contains(strings.ToLower(base), "spec") {
			specs = append(specs, p)
		} else {
			academics = append(academics, p)
		}
	}
	return academics, specs, nil
}

// readManifest returns the decodable lines of a manifest. A missing file
// yields no items.
func readManifest(path string) ([]manifestItem, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapError(ErrCodeManifestInvalid, "failed to open "+path, err)
	}
	defer f.Close()

	var items []manifestItem
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var it manifestItem
		if json.Unmarshal([]byte(line), &it) != nil {
			continue
		}
		items = append(items, it)
	}
	if err := sc.Err(); err != nil {
		return nil, types.WrapError(ErrCodeManifestInvalid, "failed to read "+path, err)
	}
	return items, nil
}

func mergeCanonical(out string, paths []string) error {
	header := tabular.AcademicHeader()
	var records [][]string
	for _, p := range paths {
		t, err := tabular.ReadFile(p)
		if err != nil {
			continue
		}
		for _, r := range t.Rows {
			records = append(records, r.Values(header))
		}
	}
	return tabular.WriteQuoted(out, header, records)
}
