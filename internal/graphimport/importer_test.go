package graphimport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graph"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

const testMaster = `Name,Type,Description,Target Components / Interfaces,Affected Components / Interfaces,Reference
Rogue xApp,Attack,Malicious xApp,Near-RT RIC; E2,,Smith 2024
Rogue xApp,Attack,Same attack from another paper,Near-RT RIC,,Other 2024
Fuzzing E2,Attack,Our fuzzing campaign,E2 Interface,,This Work
Signed xApps,Defense,Code signing,All,,Doe 2023
Zero trust,Preventative Measure,ZT architecture,Unknown Box,,NIST
Random risk,Risk,not imported,O-CU,,X
`

// writeDataDir lays out a small but complete data directory and returns it
// with the master CSV path.
func writeDataDir(t *testing.T, master string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		ComponentsFile: "Component\nO-CU\nO-DU\nNear-RT RIC\nO-Cloud\n",
		InterfacesFile: "Interface,Connects\nE2 Interface,\"Near-RT RIC, O-CU\"\nO1 Interface,O-DU\n",
		SoftwareFile:   "Project,Description,Sponsor,Publisher,Components\nOSC RIC,Reference RIC,OSC,LF,Near-RT RIC\n",
		CVEsFile: "CVE ID,Description,Date Published,Software,CWEs\n" +
			"CVE-2024-0001,Crash,2024-01-02,OSC RIC,CWE-20\n" +
			"CVE-2024-0002,Unpublished,,OSC RIC,\n",
		CWEsFile:    "CWE ID,Description\nCWE-20,Improper Input Validation\n",
		ThreatsFile: "Threat ID,Title,Affected Components\nT-1,Spoofing,\"xApps,O-DU\"\nT-2,Everything,All\n",
		RisksFile:   "Risk ID,Threat Key,CIA\nR-1,T-1,CI\nR-2,T-2,A\nT-TS-01,T-1,C\n",
		"academics.csv": master,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir, filepath.Join(dir, "academics.csv")
}

func connectedMock(t *testing.T) *graph.MockGraphClient {
	t.Helper()
	client := graph.NewMockGraphClient()
	require.NoError(t, client.Connect(context.Background()))
	return client
}

func TestCleanupKey(t *testing.T) {
	tests := map[string]string{
		"Description":    "description",
		"Date Published": "date_published",
		"CVSS (V3.1)":    "cvss_v3_1",
		"Spec. Issue":    "spec__issue",
		"Key: Value/Alt": "key_value_alt",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanupKey(in), in)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"O-CU", "O-DU", "E2"}, SplitList("O-CU, O-DU;E2"))
	assert.Equal(t, []string{"All"}, SplitList(" All "))
	assert.Empty(t, SplitList(" , ; "))
}

func TestLoadMapping(t *testing.T) {
	m, err := LoadMapping("")
	require.NoError(t, err)
	assert.Equal(t, "Near-RT RIC", m.Resolve("xApps"))
	assert.Equal(t, "Unknown", m.Resolve("Unknown"))

	path := filepath.Join(t.TempDir(), "mapping.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
names:
  xApps: O-Cloud
  Ctrl: Near-RT RIC
expansions:
  O-CU: [O-CU-CP, O-CU-UP]
drop:
  - UE
`), 0o644))

	m, err = LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, "O-Cloud", m.Resolve("xApps"))
	assert.Equal(t, "Near-RT RIC", m.Resolve("Ctrl"))
	assert.Equal(t, "E2 Interface", m.Resolve("E2"))
	assert.Equal(t, []string{"O-CU-CP", "O-CU-UP"}, m.Expand("O-CU"))
	assert.Equal(t, []string{"O-DU"}, m.Expand("O-DU"))
	assert.True(t, m.Dropped("UE"))

	require.NoError(t, os.WriteFile(path, []byte("names:\n  xApps: \"\"\n"), 0o644))
	_, err = LoadMapping(path)
	assert.Equal(t, ErrCodeMappingInvalid, types.CodeOf(err))

	_, err = LoadMapping(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ErrCodeMappingInvalid, types.CodeOf(err))
}

func TestLoadDatasets(t *testing.T) {
	dir, master := writeDataDir(t, testMaster)

	ds, err := LoadDatasets(dir, master)
	require.NoError(t, err)

	assert.Len(t, ds.Components.Rows, 4)
	assert.Len(t, ds.CVEs.Rows, 1, "rows without a publication date are dropped")
	assert.Len(t, ds.Attacks.Rows, 2)
	assert.Len(t, ds.OurAttacks.Rows, 1)
	assert.Len(t, ds.Defenses.Rows, 1)
	assert.Len(t, ds.PreventiveMeasure.Rows, 1)
	assert.Empty(t, ds.Government.Rows)

	require.Len(t, ds.Threats.Rows, 2, "T-TS-01 is dropped")
	r1 := ds.Threats.Rows[0]
	assert.Equal(t, "R-1", r1.Get("Risk ID"))
	assert.Equal(t, "Spoofing", r1.Get("Title"))
	assert.Equal(t, "true", r1.Get("Confidentiality"))
	assert.Equal(t, "true", r1.Get("Integrity"))
	assert.Equal(t, "false", r1.Get("Availability"))
	assert.NotContains(t, ds.Threats.Metadata, "Threat Key")
	assert.NotContains(t, ds.Threats.Metadata, "Risk ID")
}

func TestLoadDatasetsThreatFixes(t *testing.T) {
	dir, master := writeDataDir(t, testMaster)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ThreatsFile), []byte(
		"Threat ID,Affected Components\n"+
			"T-O-RAN-10,\"ML components deploying machine learning (xApps, rApps)\nO-DU\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, RisksFile), []byte(
		"Risk ID,Threat Key,CIA\nR-10,T-ORAN-10,\n"), 0o644))

	ds, err := LoadDatasets(dir, master)
	require.NoError(t, err)
	require.Len(t, ds.Threats.Rows, 1)
	assert.Equal(t, "ML components deploying machine learning (xApps/rApps) O-DU",
		ds.Threats.Rows[0].Get("Affected Components"))
	assert.Equal(t, "false", ds.Threats.Rows[0].Get("Confidentiality"))
}

func TestLoadDatasetsErrors(t *testing.T) {
	t.Run("unknown threat key", func(t *testing.T) {
		dir, master := writeDataDir(t, testMaster)
		require.NoError(t, os.WriteFile(filepath.Join(dir, RisksFile), []byte("Risk ID,Threat Key,CIA\nR-9,T-9,C\n"), 0o644))
		_, err := LoadDatasets(dir, master)
		assert.Equal(t, ErrCodeDatasetInvalid, types.CodeOf(err))
	})

	t.Run("missing key column", func(t *testing.T) {
		dir, master := writeDataDir(t, testMaster)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ComponentsFile), []byte("Name\nO-CU\n"), 0o644))
		_, err := LoadDatasets(dir, master)
		assert.Equal(t, ErrCodeDatasetInvalid, types.CodeOf(err))
	})

	t.Run("missing master", func(t *testing.T) {
		dir, _ := writeDataDir(t, testMaster)
		_, err := LoadDatasets(dir, filepath.Join(dir, "nope.csv"))
		assert.Equal(t, ErrCodeDatasetMissing, types.CodeOf(err))
	})

	t.Run("optional datasets absent", func(t *testing.T) {
		dir := t.TempDir()
		master := filepath.Join(dir, "academics.csv")
		require.NoError(t, os.WriteFile(master, []byte(testMaster), 0o644))
		ds, err := LoadDatasets(dir, master)
		require.NoError(t, err)
		assert.Empty(t, ds.Components.Rows)
		assert.Empty(t, ds.Threats.Rows)
	})
}

func TestBuildPlan(t *testing.T) {
	dir, master := writeDataDir(t, testMaster)
	ds, err := LoadDatasets(dir, master)
	require.NoError(t, err)

	plan, warnings, err := BuildPlan(ds, nil, false)
	require.NoError(t, err)

	assert.Len(t, plan.Nodes, 15)
	assert.Equal(t, 1, plan.Folded)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Rogue xApp")

	assert.Len(t, plan.Edges, 19)
	require.Len(t, plan.Unresolved, 1)
	assert.Equal(t, "Unknown Box", plan.Unresolved[0].Name)

	labels := plan.Labels()
	assert.Equal(t, 4, labels[LabelComponent])
	assert.Equal(t, 2, labels[LabelThreat])
	assert.Equal(t, 1, labels[LabelOurAttack])

	var allEdges, aliased int
	for _, e := range plan.Edges {
		if e.All {
			allEdges++
		}
		if e.From == "Rogue xApp" && e.To == "E2 Interface" {
			aliased++
		}
	}
	assert.Equal(t, 8, allEdges, "R-2 and Signed xApps expand to every component")
	assert.Equal(t, 1, aliased, "E2 resolves to E2 Interface")
}

func TestBuildPlanStrict(t *testing.T) {
	dir, master := writeDataDir(t, testMaster)
	ds, err := LoadDatasets(dir, master)
	require.NoError(t, err)

	_, _, err = BuildPlan(ds, nil, true)
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnresolved, types.CodeOf(err))
	assert.Contains(t, err.Error(), "Unknown Box")
}

func TestBuildPlanAllWithoutComponents(t *testing.T) {
	dir := t.TempDir()
	master := filepath.Join(dir, "academics.csv")
	require.NoError(t, os.WriteFile(master, []byte(
		"Name,Type,Description,Target Components / Interfaces,Affected Components / Interfaces,Reference\n"+
			"Signed xApps,Defense,Code signing,All,,Doe 2023\n"), 0o644))

	ds, err := LoadDatasets(dir, master)
	require.NoError(t, err)

	plan, _, err := BuildPlan(ds, nil, false)
	require.NoError(t, err)
	assert.Empty(t, plan.Edges)
	require.Len(t, plan.Unresolved, 1)
	assert.Equal(t, Unresolved{Source: "Signed xApps", Relationship: RelSecures, Name: "All"}, plan.Unresolved[0])

	_, _, err = BuildPlan(ds, nil, true)
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnresolved, types.CodeOf(err))
}

func TestBuildPlanCrossTypeDuplicate(t *testing.T) {
	dir, master := writeDataDir(t, testMaster+"O-CU,Attack,collides with a component,O-DU,,Someone\n")
	ds, err := LoadDatasets(dir, master)
	require.NoError(t, err)

	_, _, err = BuildPlan(ds, nil, false)
	assert.Equal(t, ErrCodeDuplicateNode, types.CodeOf(err))
}

func TestBuildPlanMappingDropAndExpand(t *testing.T) {
	dir, master := writeDataDir(t, testMaster)
	ds, err := LoadDatasets(dir, master)
	require.NoError(t, err)

	m := DefaultMapping()
	m.Drop = []string{"Unknown Box"}
	m.Expansions["O-DU"] = []string{"O-DU", "O-Cloud"}

	plan, _, err := BuildPlan(ds, m, true)
	require.NoError(t, err)
	assert.Empty(t, plan.Unresolved)

	var toCloud int
	for _, e := range plan.Edges {
		if e.From == "O1 Interface" && e.To == "O-Cloud" {
			toCloud++
		}
	}
	assert.Equal(t, 1, toCloud)
}

func TestImporterRun(t *testing.T) {
	ctx := context.Background()
	dir, master := writeDataDir(t, testMaster)
	client := connectedMock(t)

	imp := NewImporter(client, Config{
		DataDir:           dir,
		MasterCSV:         master,
		PostImportQueries: []string{"MATCH (n:Attack) SET n.reviewed = false"},
	})

	stats, err := imp.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 15, stats.Nodes)
	assert.Equal(t, 19, stats.Relationships)
	assert.Equal(t, 1, stats.Unresolved)
	assert.Equal(t, 1, stats.Folded)
	assert.Equal(t, 1, stats.Queries)
	assert.Contains(t, stats.String(), "Imported 15 nodes and 19 relationships")

	threat := client.Node(LabelThreat, "R-1")
	require.NotNil(t, threat)
	assert.Equal(t, true, threat.Props["confidentiality"])
	assert.Equal(t, false, threat.Props["availability"])
	assert.Equal(t, "Spoofing", threat.Props["title"])

	attack := client.Node(LabelAttack, "Rogue xApp")
	require.NotNil(t, attack)
	assert.Equal(t, "Smith 2024", attack.Props["reference"], "first occurrence wins")

	cve := client.Node(LabelCVE, "CVE-2024-0001")
	require.NotNil(t, cve)
	assert.Equal(t, "2024-01-02", cve.Props["date_published"])
	assert.Nil(t, client.Node(LabelCVE, "CVE-2024-0002"))

	secures := client.Relationships(RelSecures)
	assert.Len(t, secures, 4)
	for _, r := range secures {
		assert.Equal(t, true, r.Props["all"])
	}
	assert.Equal(t, 1, client.CallCount("Write"))

	// MERGE keeps a second import from duplicating anything.
	stats, err = imp.Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 19, stats.Relationships)
	assert.Len(t, client.Nodes(""), 15)
	assert.Len(t, client.Relationships(""), 19)
}

func TestImporterDryRun(t *testing.T) {
	dir, master := writeDataDir(t, testMaster)

	stats, err := NewImporter(nil, Config{DataDir: dir, MasterCSV: master}).Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, stats.DryRun)
	assert.Equal(t, 15, stats.Nodes)
	assert.Equal(t, 19, stats.Relationships)
	assert.True(t, strings.HasPrefix(stats.String(), "Would import"))
}

func TestImporterReset(t *testing.T) {
	ctx := context.Background()
	dir, master := writeDataDir(t, testMaster)
	client := connectedMock(t)
	require.NoError(t, client.MergeNode(ctx, "Stale", "leftover", nil))

	stats, err := NewImporter(client, Config{DataDir: dir, MasterCSV: master}).Run(ctx, Options{Reset: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.Nil(t, client.Node("Stale", "leftover"))
	assert.Len(t, client.Nodes(""), 15)
}

func TestImporterErrors(t *testing.T) {
	ctx := context.Background()
	dir, master := writeDataDir(t, testMaster)

	_, err := NewImporter(nil, Config{DataDir: dir, MasterCSV: master}).Run(ctx, Options{})
	assert.Equal(t, ErrCodeNoClient, types.CodeOf(err))

	client := connectedMock(t)
	client.SetQueryError(types.NewError(graph.ErrCodeGraphQueryFailed, "boom"))
	_, err = NewImporter(client, Config{
		DataDir:           dir,
		MasterCSV:         master,
		PostImportQueries: []string{"RETURN 1"},
	}).Run(ctx, Options{})
	assert.Equal(t, ErrCodeQueryFailed, types.CodeOf(err))

	client = connectedMock(t)
	client.SetMergeError(types.NewError(graph.ErrCodeGraphNodeMergeFailed, "boom"))
	_, err = NewImporter(client, Config{DataDir: dir, MasterCSV: master}).Run(ctx, Options{})
	assert.Equal(t, graph.ErrCodeGraphNodeMergeFailed, types.CodeOf(err))
}

func TestSchema(t *testing.T) {
	dir, master := writeDataDir(t, testMaster)
	plan, err := NewImporter(nil, Config{DataDir: dir, MasterCSV: master}).Plan(context.Background())
	require.NoError(t, err)

	schema := plan.Schema()
	assert.True(t, strings.HasPrefix(schema, "Nodes:\n  Attack:\n    Properties:\n      name: string (example: 'Rogue xApp')"))
	assert.Contains(t, schema, "  Threat:\n")
	assert.Contains(t, schema, "      confidentiality: values: ['false', 'true']")
	assert.Contains(t, schema, "      description: values: ['Improper Input Validation']")
	assert.Contains(t, schema, "\n\nRelationships:\n")
	assert.Contains(t, schema, "    Attack --TARGETS--> Component")
	assert.Contains(t, schema, "    Attack --TARGETS--> Interface")
	assert.Contains(t, schema, "    Interface --CONNECTS--> Component")
	assert.NotContains(t, schema, "--SECURES--> Unknown")
}

func TestTruncate(t *testing.T) {
	short := strings.Repeat("a", 50)
	assert.Equal(t, short, truncate(short))
	long := strings.Repeat("b", 51)
	assert.Equal(t, strings.Repeat("b", 47)+"...", truncate(long))
}
