package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
)

func TestRecordsFromRows(t *testing.T) {
	header := []string{"Type", " Name ", "Target Components / Interfaces", "Extra"}
	rows := [][]string{
		{"Attack", "Flood", "E2", "ignored"},
		{"Defense"},
	}

	recs := RecordsFromRows(header, rows, tabular.DocTypeAcademic, "paper")
	require.Len(t, recs, 2)

	assert.Equal(t, "paper-001", recs[0].ID)
	assert.Equal(t, "Flood", recs[0].Name)
	assert.Equal(t, "Attack", recs[0].Type)
	assert.Equal(t, "E2", recs[0].TargetComponents)
	assert.Equal(t, "paper", recs[0].Source)
	assert.Equal(t, tabular.DocTypeAcademic, recs[0].DocType)

	assert.Equal(t, "paper-002", recs[1].ID)
	assert.Empty(t, recs[1].Name)
}

func TestValidate(t *testing.T) {
	good := Record{Name: "A", Type: "Attack", Description: "d", TargetComponents: "E2"}
	bad := Record{Name: "B", Type: " ", Description: "d"}

	ok, errs := Validate([]Record{good}, true)
	assert.True(t, ok)
	assert.Empty(t, errs)

	ok, errs = Validate([]Record{good, bad}, true)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"record[1] missing/empty required field 'Type'",
		"record[1] missing/empty required field 'Target Components / Interfaces'",
	}, errs)

	ok, errs = Validate([]Record{bad}, false)
	assert.True(t, ok)
	assert.Len(t, errs, 2)
}

func TestWriteRecordsCSVAndAudit(t *testing.T) {
	dir := t.TempDir()
	recs := []Record{{Name: "A, B", Type: "Attack", Reference: "10.1/x"}}

	path, err := WriteRecordsCSV(recs, dir, "paper")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "paper.csv"), path)

	table, err := tabular.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tabular.AcademicHeader(), table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "A, B", table.Rows[0][tabular.ColName])

	auditPath, err := WriteAudit([]string{`{"row":1}`, "free text"}, dir, "paper")
	require.NoError(t, err)
	data, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	assert.Equal(t, "{\"row\":1}\n{\"raw\":\"free text\"}\n", string(data))
}
