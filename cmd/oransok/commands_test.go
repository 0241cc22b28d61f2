package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MicheleGuerra/SOK-Oran-Security/cmd/oransok/internal"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/config"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graph"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/ledger"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

const academicHeader = "Name,Type,Description,Target Components / Interfaces,Affected Components / Interfaces,Reference\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// testEnv isolates the CLI in a temp home with a data dir and a run dir.
type testEnv struct {
	home    string
	dataDir string
	runDir  string
	client  *graph.MockGraphClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	prevColor := color.NoColor
	color.NoColor = true

	root := t.TempDir()
	env := &testEnv{
		home:    filepath.Join(root, "home"),
		dataDir: filepath.Join(root, "data"),
		runDir:  filepath.Join(root, "outputs", "run-20250101-000000-abcd1234"),
		client:  graph.NewMockGraphClient(),
	}
	for _, k := range []string{"ORAN_MASTER_CSV", "ORAN_RUN_DIR", "OPENAI_API_KEY", "NEO4J_URI", "NEO4J_USERNAME", "NEO4J_PASSWORD"} {
		t.Setenv(k, "")
	}
	t.Setenv("ORANSOK_HOME", env.home)
	t.Setenv("ORAN_DATA_DIR", env.dataDir)

	writeFile(t, filepath.Join(env.dataDir, "components.csv"), "Component\nNear-RT RIC\nO-DU\n")
	writeFile(t, filepath.Join(env.dataDir, "academics.csv"), academicHeader+
		"Jamming,Attack,RF jamming,O-DU,,Old Paper\n")
	writeFile(t, filepath.Join(env.runDir, "paper1.csv"), academicHeader+
		"Rogue xApp,Attack,Malicious xApp,Near-RT RIC,,Smith 2024\n")
	writeFile(t, filepath.Join(env.runDir, "paper2.csv"), academicHeader+
		"Signed xApps,Defense,Code signing,Near-RT RIC,,Doe 2023\n")

	prevGraph := app.newGraphClient
	app.newGraphClient = func(config.GraphConfig) (graph.GraphClient, error) {
		return env.client, nil
	}

	t.Cleanup(func() {
		color.NoColor = prevColor
		app.newGraphClient = prevGraph
		_ = app.teardown(context.Background())
		app.cfg, app.handler, app.metrics = nil, nil, nil
		resetFlags(rootCmd)
	})
	return env
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	newTestEnv(t)

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "oransok "))

	out, _, err = execute(t, "version", "--output", "json")
	require.NoError(t, err)
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Contains(t, v, "version")
}

func TestGlobalFlagValidation(t *testing.T) {
	newTestEnv(t)

	_, _, err := execute(t, "version", "--output", "yaml")
	var cliErr *internal.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, internal.ExitError, cliErr.Code)

	_, _, err = execute(t, "version", "--verbose", "--quiet")
	require.ErrorAs(t, err, &cliErr)
}

func TestConfigInitAndShow(t *testing.T) {
	env := newTestEnv(t)
	path := config.DefaultConfigPath(env.home)

	out, _, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	assert.FileExists(t, path)

	_, _, err = execute(t, "config", "init")
	require.Error(t, err, "existing file is not overwritten without --force")

	_, _, err = execute(t, "config", "init", "--force")
	require.NoError(t, err)

	t.Setenv("NEO4J_PASSWORD", "hunter2")
	out, _, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "uri: bolt://localhost:7687")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "hunter2")
}

func TestMergeCommand(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := execute(t, "merge", env.runDir)
	require.NoError(t, err)
	merged := filepath.Join(env.runDir, "merged", "academics_merged.csv")
	assert.Contains(t, out, merged)
	assert.FileExists(t, merged)

	t.Setenv("ORAN_RUN_DIR", env.runDir)
	out, _, err = execute(t, "merge", "--by-type", "--output", "json")
	require.NoError(t, err)
	var outputs map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &outputs))
	assert.Equal(t, filepath.Join(env.runDir, "academics.all.csv"), outputs["academics"])
}

func TestMergeRequiresRunDir(t *testing.T) {
	newTestEnv(t)

	_, _, err := execute(t, "merge")
	var cliErr *internal.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Contains(t, cliErr.Message, "ORAN_RUN_DIR")
}

func TestPipelineDryRun(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := execute(t, "pipeline", env.runDir, "--mode", "dry-run")
	require.NoError(t, err)
	assert.Equal(t,
		"[Dry-run] Would append ~2 rows from 2 CSV files\nTarget master CSV: "+filepath.Join(env.dataDir, "academics.csv")+"\n",
		out)
	assert.Equal(t, 0, env.client.CallCount("Connect"), "dry run never connects")
}

func TestPipelineAppend(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := execute(t, "pipeline", env.runDir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[Appended] Added 2 new rows to master CSV (now 3 rows)\n"), out)
	assert.NotNil(t, env.client.Node("Attack", "Rogue xApp"))
	assert.NotNil(t, env.client.Node("Defense", "Signed xApps"))
	assert.Equal(t, 1, env.client.CallCount("Close"))
}

func TestPipelineInvalidMode(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := execute(t, "pipeline", env.runDir, "--mode", "upsert")
	require.Error(t, err)
	assert.Equal(t, "PIPELINE_INVALID_MODE", string(types.CodeOf(err)))
}

func TestGraphSchema(t *testing.T) {
	newTestEnv(t)

	out, _, err := execute(t, "graph", "schema")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Nodes:\n"), out)
	assert.Contains(t, out, "Relationships:")
	assert.Contains(t, out, "Attack --TARGETS--> Component")
}

func TestGraphImport(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := execute(t, "graph", "import", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would import 3 nodes")
	assert.Equal(t, 0, env.client.CallCount("MergeNode"))

	out, _, err = execute(t, "graph", "import")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 nodes")
	assert.NotNil(t, env.client.Node("Attack", "Jamming"))
	assert.NotNil(t, env.client.Node("Component", "O-DU"))
}

func TestGraphDrop(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := execute(t, "graph", "drop")
	require.Error(t, err)
	assert.Equal(t, 0, env.client.CallCount("DeleteAll"))

	out, _, err := execute(t, "graph", "drop", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 nodes")
	assert.Equal(t, 1, env.client.CallCount("DeleteAll"))
}

func TestGraphQuery(t *testing.T) {
	env := newTestEnv(t)
	env.client.SetQueryResults(graph.QueryResult{
		Columns: []string{"name", "n"},
		Records: []map[string]any{{"name": "Jamming", "n": 2}},
	})

	out, _, err := execute(t, "graph", "query", "MATCH (a:Attack) RETURN a.name AS name, 2 AS n")
	require.NoError(t, err)
	assert.Equal(t, "NAME     N\n----     -\nJamming  2\n", out)
}

func TestGraphHealth(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := execute(t, "graph", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "graph healthy")

	env.client.SetHealthStatus(types.Unhealthy("down"))
	_, _, err = execute(t, "graph", "health")
	var cliErr *internal.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, internal.ExitGraphError, cliErr.Code)
}

func TestLedgerCommands(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	out, _, err := execute(t, "ledger", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Ledger is empty")

	db, err := ledger.Open(ctx, filepath.Join(env.home, "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, ledger.NewStore(db).Record(ctx, ledger.Entry{
		Hash:    "0123456789abcdef0123",
		Path:    "papers/a.pdf",
		RunID:   "run-1",
		CSVPath: "outputs/run-1/a.csv",
		Rows:    7,
		Model:   "gpt-5",
	}))
	require.NoError(t, db.Close())

	out, _, err = execute(t, "ledger", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0123456789ab")
	assert.Contains(t, out, "papers/a.pdf")

	out, _, err = execute(t, "ledger", "forget", "0123456789abcdef0123")
	require.NoError(t, err)
	assert.Contains(t, out, "Forgot")

	_, _, err = execute(t, "ledger", "forget", "0123456789abcdef0123")
	require.Error(t, err)
}

func TestExtractRejectsEmptyInput(t *testing.T) {
	newTestEnv(t)

	_, _, err := execute(t, "extract", t.TempDir())
	var cliErr *internal.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Contains(t, cliErr.Message, "no PDF files found")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "%PDF-1.4")
	_, _, err = execute(t, "extract", dir, "--doc-type", "memo")
	require.ErrorAs(t, err, &cliErr)
	assert.Contains(t, cliErr.Message, "--doc-type")
}

func TestNormalizeDocType(t *testing.T) {
	for in, want := range map[string]string{
		"":                    "Academic Paper",
		"academic":            "Academic Paper",
		"Academic Paper":      "Academic Paper",
		"spec":                "O-RAN Specification",
		"o-ran specification": "O-RAN Specification",
	} {
		got, err := normalizeDocType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestCollectPDFs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.pdf"), "")
	writeFile(t, filepath.Join(dir, "nested", "a.PDF"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	files, err := collectPDFs([]string{dir, filepath.Join(dir, "b.pdf")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "nested", "a.PDF"),
	}, files)

	_, err = collectPDFs([]string{filepath.Join(dir, "missing.pdf")})
	require.Error(t, err)
}
