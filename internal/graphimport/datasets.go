package graphimport

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Node labels.
const (
	LabelComponent         = "Component"
	LabelInterface         = "Interface"
	LabelSoftware          = "Software"
	LabelCVE               = "CVE"
	LabelCWE               = "CWE"
	LabelThreat            = "Threat"
	LabelAttack            = "Attack"
	LabelOurAttack         = "OurAttack"
	LabelDefense           = "Defense"
	LabelPreventiveMeasure = "PreventiveMeasure"
	LabelGovernmentThreat  = "GovernmentThreat"
)

// Dataset file names inside the data directory.
const (
	ComponentsFile = "components.csv"
	InterfacesFile = "interfaces.csv"
	SoftwareFile   = "software.csv"
	CVEsFile       = "cves.csv"
	CWEsFile       = "cwes.csv"
	ThreatsFile    = "threats.csv"
	RisksFile      = "risks.csv"
	GovernmentFile = "government.csv"
)

// ThisWork marks attacks contributed by the dataset authors themselves.
const ThisWork = "This Work"

// Dataset is one node population: every row becomes a node labelled Label
// and named by the Key column, carrying the Metadata columns as properties.
type Dataset struct {
	Source   string
	Label    string
	Key      string
	Metadata []string
	Bools    []string
	Rows     []tabular.Row
}

// isBool reports whether col holds booleans.
func (d *Dataset) isBool(col string) bool {
	for _, b := range d.Bools {
		if b == col {
			return true
		}
	}
	return false
}

// Column returns the values of col across all rows.
func (d *Dataset) Column(col string) []string {
	out := make([]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		if v := strings.TrimSpace(r.Get(col)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Datasets holds every population the importer registers, in registration
// order.
type Datasets struct {
	Components        *Dataset
	Interfaces        *Dataset
	Software          *Dataset
	CVEs              *Dataset
	CWEs              *Dataset
	Threats           *Dataset
	Attacks           *Dataset
	OurAttacks        *Dataset
	Defenses          *Dataset
	PreventiveMeasure *Dataset
	Government        *Dataset
}

// All returns the datasets in registration order.
func (d *Datasets) All() []*Dataset {
	return []*Dataset{
		d.Components, d.Interfaces, d.Software, d.CVEs, d.CWEs, d.Threats,
		d.Attacks, d.OurAttacks, d.Defenses, d.PreventiveMeasure, d.Government,
	}
}

// LoadDatasets reads the reference datasets from dataDir and the academic
// master CSV. Reference datasets are optional; the master is not.
func LoadDatasets(dataDir, masterCSV string) (*Datasets, error) {
	var (
		ds  Datasets
		err error
	)

	if ds.Components, err = loadOptional(dataDir, ComponentsFile, LabelComponent, "Component", nil); err != nil {
		return nil, err
	}
	if ds.Interfaces, err = loadOptional(dataDir, InterfacesFile, LabelInterface, "Interface", nil); err != nil {
		return nil, err
	}
	if ds.Software, err = loadOptional(dataDir, SoftwareFile, LabelSoftware, "Project",
		[]string{"Description", "Sponsor", "Publisher"}); err != nil {
		return nil, err
	}
	if ds.CVEs, err = loadOptional(dataDir, CVEsFile, LabelCVE, "CVE ID",
		[]string{"Description", "Date Published", "URL", "CVSS (V3.1)", "CWEs", "Public", "Reference", "Attribution"}); err != nil {
		return nil, err
	}
	ds.CVEs.Rows = filterRows(ds.CVEs.Rows, func(r tabular.Row) bool {
		return strings.TrimSpace(r.Get("Date Published")) != ""
	})
	if ds.CWEs, err = loadOptional(dataDir, CWEsFile, LabelCWE, "CWE ID", []string{"Description"}); err != nil {
		return nil, err
	}
	if ds.Threats, err = loadThreats(dataDir); err != nil {
		return nil, err
	}
	if ds.Government, err = loadOptional(dataDir, GovernmentFile, LabelGovernmentThreat, "Name",
		[]string{"Description", "Ecosystem", "Source", "Spec. Issue"}); err != nil {
		return nil, err
	}

	if err := loadAcademic(&ds, masterCSV); err != nil {
		return nil, err
	}
	return &ds, nil
}

// loadOptional reads file from dataDir as a dataset; a missing file yields
// an empty one. Metadata columns absent from the file are ignored.
func loadOptional(dataDir, file, label, key string, metadata []string) (*Dataset, error) {
	ds := &Dataset{Source: file, Label: label, Key: key}

	tbl, err := readTable(filepath.Join(dataDir, file))
	if err != nil || tbl == nil {
		return ds, err
	}
	if !hasColumn(tbl.Header, key) {
		return nil, types.NewError(ErrCodeDatasetInvalid, fmt.Sprintf("%s: missing column %q", file, key))
	}
	ds.Metadata = presentColumns(tbl.Header, metadata)
	ds.Rows = tbl.Rows
	return ds, nil
}

// readTable returns nil without error when path does not exist.
func readTable(path string) (*tabular.Table, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	tbl, err := tabular.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(ErrCodeDatasetInvalid, "failed to read "+filepath.Base(path), err)
	}
	return tbl, nil
}

// threatReplacements repair the affected-component lists of threats.csv.
// Order matters: newlines are flattened first.
var threatReplacements = []struct{ old, new string }{
	{"\n", " "},
	{"ML components deploying machine learning (xApps, rApps)", "ML components deploying machine learning (xApps/rApps)"},
	{"(xApps/rApps),Near-RT-RIC SW", "(xApps/rApps), Near-RT-RIC SW"},
	{"ML prediction results,A1 policies,E2 node data", "ML prediction results, A1 policies, E2 node data"},
	{"ML prediction results ,Data transported over the O1 interface,A1 policies", "ML prediction results, Data transported over the O1 interface, A1 policies"},
	{"Non-RT-RIC SW .", "Non-RT-RIC SW"},
}

// riskValueFixes replace whole cells of risks.csv.
var riskValueFixes = map[string]string{
	"T-ORAN-10": "T-O-RAN-10",
}

const (
	threatIDColumn  = "Threat ID"
	threatKeyColumn = "Threat Key"
	riskIDColumn    = "Risk ID"
	affectedColumn  = "Affected Components"
	extraIfColumn   = "Extra Interfaces"
	ciaColumn       = "CIA"
)

// loadThreats left-joins risks.csv onto threats.csv by Threat Key. Each risk
// becomes a Threat node carrying its threat's columns and CIA flags. Both
// files must be present for any threat to load.
func loadThreats(dataDir string) (*Dataset, error) {
	ds := &Dataset{Source: RisksFile, Label: LabelThreat, Key: riskIDColumn}

	threats, err := readTable(filepath.Join(dataDir, ThreatsFile))
	if err != nil {
		return nil, err
	}
	risks, err := readTable(filepath.Join(dataDir, RisksFile))
	if err != nil {
		return nil, err
	}
	if threats == nil || risks == nil {
		return ds, nil
	}

	if !hasColumn(threats.Header, threatIDColumn) {
		return nil, types.NewError(ErrCodeDatasetInvalid, fmt.Sprintf("%s: missing column %q", ThreatsFile, threatIDColumn))
	}
	for _, col := range []string{riskIDColumn, threatKeyColumn} {
		if !hasColumn(risks.Header, col) {
			return nil, types.NewError(ErrCodeDatasetInvalid, fmt.Sprintf("%s: missing column %q", RisksFile, col))
		}
	}

	byID := make(map[string]tabular.Row, len(threats.Rows))
	for _, t := range threats.Rows {
		for _, rep := range threatReplacements {
			t[affectedColumn] = strings.ReplaceAll(t[affectedColumn], rep.old, rep.new)
		}
		byID[t.Get(threatIDColumn)] = t
	}

	// Risk columns, then the CIA flags, then the joined threat columns.
	var metadata []string
	for _, h := range risks.Header {
		if h != threatKeyColumn && h != riskIDColumn {
			metadata = append(metadata, h)
		}
	}
	metadata = append(metadata, "Confidentiality", "Integrity", "Availability")
	for _, h := range threats.Header {
		if h != threatIDColumn && !hasColumn(metadata, h) {
			metadata = append(metadata, h)
		}
	}

	for _, r := range risks.Rows {
		for col, v := range r {
			if fixed, ok := riskValueFixes[v]; ok {
				r[col] = fixed
			}
		}
		if r.Get(riskIDColumn) == "T-TS-01" {
			continue
		}

		key := r.Get(threatKeyColumn)
		t, ok := byID[key]
		if !ok {
			return nil, types.NewError(ErrCodeDatasetInvalid,
				fmt.Sprintf("%s: risk %q references unknown threat %q", RisksFile, r.Get(riskIDColumn), key))
		}

		cia := r.Get(ciaColumn)
		row := tabular.Row{
			"Confidentiality": fmt.Sprint(strings.Contains(cia, "C")),
			"Integrity":       fmt.Sprint(strings.Contains(cia, "I")),
			"Availability":    fmt.Sprint(strings.Contains(cia, "A")),
		}
		for col, v := range t {
			if col != threatIDColumn {
				row[col] = v
			}
		}
		for col, v := range r {
			if col != threatKeyColumn {
				row[col] = v
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	ds.Metadata = metadata
	ds.Bools = []string{"Confidentiality", "Integrity", "Availability"}
	return ds, nil
}

// loadAcademic splits the master CSV by Type into attacks (ours when the
// reference is "This Work"), defenses and preventive measures. Rows of other
// types are not imported.
func loadAcademic(ds *Datasets, masterCSV string) error {
	newSet := func(label string) *Dataset {
		return &Dataset{Source: filepath.Base(masterCSV), Label: label, Key: tabular.ColName}
	}
	ds.Attacks = newSet(LabelAttack)
	ds.OurAttacks = newSet(LabelOurAttack)
	ds.Defenses = newSet(LabelDefense)
	ds.PreventiveMeasure = newSet(LabelPreventiveMeasure)

	if masterCSV == "" {
		return types.NewError(ErrCodeDatasetMissing, "master CSV path is empty")
	}
	tbl, err := readTable(masterCSV)
	if err != nil {
		return err
	}
	if tbl == nil {
		return types.NewError(ErrCodeDatasetMissing, "master CSV not found: "+masterCSV)
	}
	for _, col := range []string{tabular.ColName, tabular.ColType} {
		if !hasColumn(tbl.Header, col) {
			return types.NewError(ErrCodeDatasetInvalid, fmt.Sprintf("%s: missing column %q", filepath.Base(masterCSV), col))
		}
	}

	metadata := presentColumns(tbl.Header, []string{tabular.ColDesc, tabular.ColRef})
	for _, set := range []*Dataset{ds.Attacks, ds.OurAttacks, ds.Defenses, ds.PreventiveMeasure} {
		set.Metadata = metadata
	}

	for _, r := range tbl.Rows {
		switch strings.ToLower(strings.TrimSpace(r.Get(tabular.ColType))) {
		case "attack":
			if strings.TrimSpace(r.Get(tabular.ColRef)) == ThisWork {
				ds.OurAttacks.Rows = append(ds.OurAttacks.Rows, r)
			} else {
				ds.Attacks.Rows = append(ds.Attacks.Rows, r)
			}
		case "defense", "defence":
			ds.Defenses.Rows = append(ds.Defenses.Rows, r)
		case "preventative measure", "preventive measure":
			ds.PreventiveMeasure.Rows = append(ds.PreventiveMeasure.Rows, r)
		}
	}
	return nil
}

func filterRows(rows []tabular.Row, keep func(tabular.Row) bool) []tabular.Row {
	out := rows[:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func hasColumn(header []string, col string) bool {
	for _, h := range header {
		if h == col {
			return true
		}
	}
	return false
}

func presentColumns(header, want []string) []string {
	var out []string
	for _, w := range want {
		if hasColumn(header, w) {
			out = append(out, w)
		}
	}
	return out
}
