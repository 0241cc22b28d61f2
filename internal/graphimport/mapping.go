package graphimport

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// defaultNames folds naming inconsistencies found in the source documents
// onto the canonical component and interface names.
var defaultNames = map[string]string{
	"E2": "E2 Interface",

	"xApps":      "Near-RT RIC",
	"xAPPs":      "Near-RT RIC",
	"rApps":      "Non-RT RIC",
	"rAPPs":      "Non-RT RIC",
	"ASSET-C-29": "O-Cloud",
	"ASSET-C-30": "External Components",
	"ASSET-C-08": "O-Cloud",
	"NFO/FOCOM":  "O-Cloud",
	"Database holding data from xApp applications and E2 Node":      "Near-RT RIC",
	"Database holding data from xApp applications and E2":           "Near-RT RIC",
	"ML components deploying machine learning (xApps/rApps)":        "O-Cloud",
	"Training or test data sets collected externally or internally": "External Components",
	"Trained ML model":                        "External Components",
	"Near-RT-RIC SW":                          "Near-RT RIC",
	"Non-RT-RIC SW":                           "Non-RT RIC",
	"O1 interface for streaming data":         "O1 Interface",
	"E2 interface for streaming data":         "E2 Interface",
	"ML prediction results":                   "External Components",
	"A1 policies":                             "A1 Interface",
	"E2 node data":                            "Near-RT RIC",
	"Data transported over the O1 interface":  "O1 Interface",
	"AAL software":                            "O-Cloud",
	"Hardware accelerator device firmware":    "External Components",

	"Non-RT-RIC":             "Non-RT RIC",
	"airlink with UE":        "Airlink",
	"E2 Functions":           "E2 Interface",
	"Y1 Functions":           "Y1 Interface",
	"SMO Framework":          "SMO",
	"R1 interface":           "R1 Interface",
	"A1 interface":           "A1 Interface",
	"Apps/VNFs/CNFs":         "SMO",
	"Apps/VNFs/CNFs images":  "SMO",
	"O2":                     "O2 Interface",
}

// Mapping rewrites relationship destinations before they are resolved:
// Names aliases a raw name to a registered one, Expansions fans one name out
// to several, and Drop discards names entirely.
type Mapping struct {
	Names      map[string]string   `yaml:"names"`
	Expansions map[string][]string `yaml:"expansions"`
	Drop       []string            `yaml:"drop"`
}

// DefaultMapping returns the built-in aliases with no expansions or drops.
func DefaultMapping() *Mapping {
	m := &Mapping{
		Names:      make(map[string]string, len(defaultNames)),
		Expansions: map[string][]string{},
	}
	for k, v := range defaultNames {
		m.Names[k] = v
	}
	return m
}

// LoadMapping returns DefaultMapping overlaid with the YAML file at path.
// An empty path yields the defaults.
func LoadMapping(path string) (*Mapping, error) {
	m := DefaultMapping()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(ErrCodeMappingInvalid, "failed to read mapping file", err)
	}

	var file Mapping
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.WrapError(ErrCodeMappingInvalid, fmt.Sprintf("failed to parse %s", path), err)
	}

	for k, v := range file.Names {
		if strings.TrimSpace(v) == "" {
			return nil, types.NewError(ErrCodeMappingInvalid, fmt.Sprintf("names: alias for %q is empty", k))
		}
		m.Names[k] = v
	}
	for k, v := range file.Expansions {
		if len(v) == 0 {
			return nil, types.NewError(ErrCodeMappingInvalid, fmt.Sprintf("expansions: %q expands to nothing", k))
		}
		m.Expansions[k] = v
	}
	m.Drop = append(m.Drop, file.Drop...)
	return m, nil
}

// Resolve returns the canonical name for name.
func (m *Mapping) Resolve(name string) string {
	if real, ok := m.Names[name]; ok && real != "" {
		return real
	}
	return name
}

// Expand returns the names name stands for, or name itself.
func (m *Mapping) Expand(name string) []string {
	if exp, ok := m.Expansions[name]; ok {
		return exp
	}
	return []string{name}
}

// Dropped reports whether name is on the drop list.
func (m *Mapping) Dropped(name string) bool {
	for _, d := range m.Drop {
		if d == name {
			return true
		}
	}
	return false
}

var keyReplacer = strings.NewReplacer(
	" ", "_",
	":", "",
	"/", "_",
	"(", "",
	")", "",
	".", "_",
)

// CleanupKey turns a CSV column name into a property key:
// "CVSS (V3.1)" becomes "cvss_v3_1".
func CleanupKey(s string) string {
	return keyReplacer.Replace(strings.ToLower(s))
}
