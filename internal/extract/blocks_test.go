package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name       string
		scope      string
		strict     bool
		wantPrefix string
		noFocus    bool
	}{
		{name: "strict with scope", scope: "threats", strict: true, wantPrefix: "(Focus scope: threats)\n" + strictHint},
		{name: "best effort", scope: "", strict: false, wantPrefix: bestEffortHint, noFocus: true},
		{name: "both scope", scope: "Both (Risks+Threats)", strict: true, wantPrefix: strictHint, noFocus: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPrompt("PDF BODY", tt.scope, tt.strict)
			assert.True(t, strings.HasPrefix(got, tt.wantPrefix), got[:80])
			assert.True(t, strings.HasSuffix(got, "---\nPDF Content (truncated if very long):\nPDF BODY"))
			assert.Contains(t, got, "Name,Type,Description,Target Components / Interfaces,Affected Components / Interfaces,Reference")
			if tt.noFocus {
				assert.NotContains(t, got, "(Focus scope:")
			}
		})
	}
}

func TestExtractBlocks(t *testing.T) {
	t.Run("both blocks", func(t *testing.T) {
		text := "Checklist...\r\n```Academic.CSV\r\nName,Type\r\n\r\nA,Attack\r\n```\n\n```audit.jsonl\n{\"row\":1}\n\n```\ntrailer"
		csvLines, audit := ExtractBlocks(text)
		assert.Equal(t, []string{"Name,Type", "A,Attack"}, csvLines)
		assert.Equal(t, []string{`{"row":1}`}, audit)
	})

	t.Run("csv only", func(t *testing.T) {
		csvLines, audit := ExtractBlocks("```academic.csv\nName\nX\n```")
		assert.Equal(t, []string{"Name", "X"}, csvLines)
		assert.Empty(t, audit)
	})

	t.Run("no blocks", func(t *testing.T) {
		csvLines, audit := ExtractBlocks("nothing useful")
		assert.Empty(t, csvLines)
		assert.Empty(t, audit)
	})
}

func TestParseAcademicCSV(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		wantHeader []string
		wantRows   [][]string
	}{
		{
			name:       "quoted and escaped",
			lines:      []string{"Name,Type,Description", `"Flood, E2",Attack,says \"hi\"`, `X,Defense,"a ""b"""`},
			wantHeader: []string{"Name", "Type", "Description"},
			wantRows:   [][]string{{"Flood, E2", "Attack", `says "hi"`}, {"X", "Defense", `a "b"`}},
		},
		{
			name:       "escaped comma and blank row",
			lines:      []string{"Name,Type", " , ", `A\,B,Attack`},
			wantHeader: []string{"Name", "Type"},
			wantRows:   [][]string{{"A,B", "Attack"}},
		},
		{
			name:       "header only",
			lines:      []string{"Name,Type"},
			wantHeader: []string{"Name", "Type"},
			wantRows:   [][]string{},
		},
		{
			name:       "all blank falls back to comma split",
			lines:      []string{",,", " ,"},
			wantHeader: []string{"", "", ""},
			wantRows:   [][]string{{" ", ""}},
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, rows := ParseAcademicCSV(tt.lines)
			assert.Equal(t, tt.wantHeader, header)
			if len(tt.wantRows) == 0 {
				assert.Empty(t, rows)
			} else {
				assert.Equal(t, tt.wantRows, rows)
			}
		})
	}
}
