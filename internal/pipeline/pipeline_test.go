package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/graph"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/merge"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

const header = "Name,Type,Description,Target Components / Interfaces,Affected Components / Interfaces,Reference\n"

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setup creates a data dir with components and a master CSV holding one
// row, and a run dir with two per-document CSVs.
func setup(t *testing.T) (dataDir, runDir string) {
	t.Helper()
	root := t.TempDir()
	dataDir = filepath.Join(root, "data")
	runDir = filepath.Join(root, "outputs", "run-20250101-000000-abcd1234")

	write(t, filepath.Join(dataDir, "components.csv"), "Component\nNear-RT RIC\nO-DU\n")
	write(t, filepath.Join(dataDir, "academics.csv"), header+
		"Jamming,Attack,RF jamming,O-DU,,Old Paper\n")

	write(t, filepath.Join(runDir, "paper1.csv"), header+
		"Rogue xApp,Attack,Malicious xApp,xApps,,Smith 2024\n"+
		"Jamming,Attack,RF jamming,O-DU,,Old Paper\n")
	write(t, filepath.Join(runDir, "paper2.csv"), header+
		"Signed xApps,Defense,Code signing,Near-RT RIC,,Doe 2023\n"+
		"Rogue xApp,Attack,Malicious xApp,xApps,,Smith 2024\n")
	return dataDir, runDir
}

func connectedMock(t *testing.T) *graph.MockGraphClient {
	t.Helper()
	client := graph.NewMockGraphClient()
	require.NoError(t, client.Connect(context.Background()))
	return client
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"append", "rebuild", "dry-run", " Append "} {
		_, err := ParseMode(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseMode("upsert")
	assert.Equal(t, ErrCodeInvalidMode, types.CodeOf(err))
}

func TestDetectMaster(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "/custom/master.csv", DetectMaster(dir, "/custom/master.csv"))
	assert.Equal(t, filepath.Join(dir, DefaultMasterName), DetectMaster(dir, ""))

	write(t, filepath.Join(dir, "aaa_papers.csv"), header)
	assert.Equal(t, filepath.Join(dir, "aaa_papers.csv"), DetectMaster(dir, ""))

	write(t, filepath.Join(dir, "zzz_academic_master.csv"), header)
	assert.Equal(t, filepath.Join(dir, "zzz_academic_master.csv"), DetectMaster(dir, ""),
		"academic is tried before paper")

	write(t, filepath.Join(dir, "components.csv"), "Component\n")
	assert.Equal(t, filepath.Join(dir, "zzz_academic_master.csv"), DetectMaster(dir, ""))
}

func TestRunDryRun(t *testing.T) {
	dataDir, runDir := setup(t)
	master := filepath.Join(dataDir, "academics.csv")
	before, err := os.ReadFile(master)
	require.NoError(t, err)

	res, err := New(nil, Config{DataDir: dataDir}).Run(context.Background(), runDir, ModeDryRun)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 4, res.Rows)
	assert.Equal(t,
		"[Dry-run] Would append ~4 rows from 2 CSV files\nTarget master CSV: "+master,
		res.Summary())

	after, err := os.ReadFile(master)
	require.NoError(t, err)
	assert.Equal(t, before, after, "dry run leaves the master untouched")
}

func TestRunAppend(t *testing.T) {
	ctx := context.Background()
	dataDir, runDir := setup(t)
	client := connectedMock(t)

	res, err := New(client, Config{DataDir: dataDir}).Run(ctx, runDir, ModeAppend)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 0, client.CallCount("DeleteAll"))

	summary := res.Summary()
	assert.True(t, strings.HasPrefix(summary, "[Appended] Added 2 new rows to master CSV (now 3 rows)\n"))
	assert.Contains(t, summary, "Run dir: "+runDir)
	assert.Contains(t, summary, "--- graph import ---\nImported 5 nodes")

	assert.NotNil(t, client.Node("Attack", "Rogue xApp"))
	assert.NotNil(t, client.Node("Attack", "Jamming"))
	assert.NotNil(t, client.Node("Defense", "Signed xApps"))
	assert.Len(t, client.Relationships("TARGETS"), 2)
	assert.Len(t, client.Relationships("SECURES"), 1)

	// A second append adds nothing new.
	res, err = New(client, Config{DataDir: dataDir}).Run(ctx, runDir, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 3, res.Total)
}

func TestRunIgnoresMergeOutputs(t *testing.T) {
	ctx := context.Background()
	dataDir, runDir := setup(t)

	_, err := merge.MergeAcademic(runDir, "")
	require.NoError(t, err)
	_, err = merge.MergeRun(runDir)
	require.NoError(t, err)
	write(t, filepath.Join(runDir, merge.MergedDir, "note.csv"), "NOTE,No academic CSVs found in this run\n")

	res, err := New(nil, Config{DataDir: dataDir}).Run(ctx, runDir, ModeDryRun)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 4, res.Rows)

	res, err = New(connectedMock(t), Config{DataDir: dataDir}).Run(ctx, runDir, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 3, res.Total)
	assert.Empty(t, res.Skipped)

	master, err := tabular.ReadFile(res.MasterCSV)
	require.NoError(t, err)
	assert.Equal(t, tabular.AcademicHeader(), master.Header, "no provenance or NOTE columns leak into the master")
}

func TestRunRebuild(t *testing.T) {
	ctx := context.Background()
	dataDir, runDir := setup(t)
	client := connectedMock(t)
	require.NoError(t, client.MergeNode(ctx, "Stale", "leftover", nil))

	res, err := New(client, Config{DataDir: dataDir}).Run(ctx, runDir, ModeRebuild)
	require.NoError(t, err)
	assert.Equal(t, 1, client.CallCount("DeleteAll"))
	assert.Nil(t, client.Node("Stale", "leftover"))
	assert.True(t, strings.HasPrefix(res.Summary(), "[Rebuilt] Added 2 new rows"))
}

func TestRunMasterOverride(t *testing.T) {
	dataDir, runDir := setup(t)
	override := filepath.Join(t.TempDir(), "custom", "master.csv")

	res, err := New(connectedMock(t), Config{DataDir: dataDir, MasterCSV: override}).
		Run(context.Background(), runDir, ModeAppend)
	require.NoError(t, err)
	assert.Equal(t, override, res.MasterCSV)
	assert.Equal(t, 3, res.Added)
	assert.FileExists(t, override)
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	dataDir, runDir := setup(t)

	_, err := New(nil, Config{DataDir: dataDir}).Run(ctx, runDir, Mode("sideways"))
	assert.Equal(t, ErrCodeInvalidMode, types.CodeOf(err))

	_, err = New(nil, Config{DataDir: dataDir}).Run(ctx, filepath.Join(runDir, "missing"), ModeDryRun)
	assert.Equal(t, ErrCodeRunNotFound, types.CodeOf(err))

	_, err = New(nil, Config{DataDir: dataDir}).Run(ctx, runDir, ModeAppend)
	assert.Equal(t, ErrCodeNoClient, types.CodeOf(err))
}
