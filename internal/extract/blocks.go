package extract

import (
	"regexp"
	"strings"
)

var (
	blocksRE = regexp.MustCompile("(?is)```academic\\.csv\\s*(.*?)\\s*```\\s*```audit\\.jsonl\\s*(.*?)\\s*```")
	csvRE    = regexp.MustCompile("(?is)```academic\\.csv\\s*(.*?)\\s*```")
)

// ExtractBlocks pulls the academic.csv and audit.jsonl fenced blocks out of
// a model response. When the pair is not found the CSV block alone is
// accepted. Line endings are normalised and blank lines dropped.
func ExtractBlocks(text string) (csvLines, auditLines []string) {
	var csvBlock, auditBlock string
	if m := blocksRE.FindStringSubmatch(text); m != nil {
		csvBlock, auditBlock = m[1], m[2]
	} else if m := csvRE.FindStringSubmatch(text); m != nil {
		csvBlock = m[1]
	}
	return splitLines(csvBlock), splitLines(auditBlock)
}

func splitLines(block string) []string {
	block = strings.TrimSpace(block)
	block = strings.ReplaceAll(block, "\r\n", "\n")
	block = strings.ReplaceAll(block, "\r", "\n")

	var out []string
	for _, ln := range strings.Split(block, "\n") {
		if strings.TrimSpace(ln) != "" {
			out = append(out, ln)
		}
	}
	return out
}

// ParseAcademicCSV parses the CSV block lines. Fields may be quoted with '"'
// (doubled to embed) and any character may be escaped with '\'. Rows whose
// cells are all blank are dropped; the first remaining row is the header.
// If nothing survives but lines were given, the lines are split on commas.
func ParseAcademicCSV(lines []string) (header []string, rows [][]string) {
	var kept [][]string
	for _, rec := range parseEscapedCSV(strings.Join(lines, "\n")) {
		if !blankRecord(rec) {
			kept = append(kept, rec)
		}
	}

	if len(kept) == 0 {
		if len(lines) == 0 {
			return nil, nil
		}
		header = strings.Split(lines[0], ",")
		for _, ln := range lines[1:] {
			rows = append(rows, strings.Split(ln, ","))
		}
		return header, rows
	}
	return kept[0], kept[1:]
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseEscapedCSV tokenizes comma separated records with double-quote
// quoting and backslash escapes. Quoted fields may span lines. Malformed
// input never fails: a stray quote inside an unquoted field is literal.
func parseEscapedCSV(text string) [][]string {
	var (
		records  [][]string
		record   []string
		field    strings.Builder
		inQuotes bool
		quoted   bool
	)

	endField := func() {
		record = append(record, field.String())
		field.Reset()
		quoted = false
	}

	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		switch {
		case c == '\\' && i+1 < len(rs):
			i++
			field.WriteRune(rs[i])
		case inQuotes:
			if c != '"' {
				field.WriteRune(c)
			} else if i+1 < len(rs) && rs[i+1] == '"' {
				field.WriteRune('"')
				i++
			} else {
				inQuotes = false
			}
		case c == '"' && field.Len() == 0 && !quoted:
			inQuotes, quoted = true, true
		case c == ',':
			endField()
		case c == '\n':
			endField()
			records = append(records, record)
			record = nil
		default:
			field.WriteRune(c)
		}
	}

	if field.Len() > 0 || quoted || len(record) > 0 {
		endField()
		records = append(records, record)
	}
	return records
}
