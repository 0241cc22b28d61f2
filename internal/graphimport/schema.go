package graphimport

import (
	"fmt"
	"sort"
	"strings"
)

const (
	schemaValueLimit = 5
	schemaTruncateAt = 50
)

// Schema renders the node types with their properties and the relationship
// types between them. Properties with fewer than five distinct values list
// them all; others show one example.
func (p *Plan) Schema() string {
	return p.nodesSchema() + "\n\n" + p.relationshipsSchema()
}

func (p *Plan) nodesSchema() string {
	out := []string{"Nodes:"}

	byLabel := make(map[string][]string)
	for _, n := range p.Nodes {
		byLabel[n.Label] = append(byLabel[n.Label], n.Name)
	}
	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	for _, label := range labels {
		names := byLabel[label]
		out = append(out,
			fmt.Sprintf("  %s:", label),
			"    Properties:",
			fmt.Sprintf("      name: string (example: '%s')", names[0]),
		)

		keySet := make(map[string]struct{})
		for _, name := range names {
			for k := range p.metadata[name] {
				keySet[k] = struct{}{}
			}
		}
		keys := make([]string, 0, len(keySet))
		for k := range keySet {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			unique := make(map[string]struct{})
			example := ""
			for _, name := range names {
				v := p.metadata[name][key]
				if v == "" {
					continue
				}
				if example == "" {
					example = v
				}
				unique[v] = struct{}{}
			}

			if len(unique) < schemaValueLimit {
				values := make([]string, 0, len(unique))
				for v := range unique {
					values = append(values, v)
				}
				sort.Strings(values)
				for i, v := range values {
					values[i] = "'" + truncate(v) + "'"
				}
				out = append(out, fmt.Sprintf("      %s: values: [%s]", CleanupKey(key), strings.Join(values, ", ")))
				continue
			}
			example = strings.ReplaceAll(example, "\n", " ")
			out = append(out, fmt.Sprintf("      %s: (example: '%s')", CleanupKey(key), truncate(example)))
		}
	}
	return strings.Join(out, "\n")
}

func (p *Plan) relationshipsSchema() string {
	out := []string{"Relationships:"}

	srcs := make([]string, 0, len(p.relTypes))
	for s := range p.relTypes {
		srcs = append(srcs, s)
	}
	sort.Strings(srcs)

	for _, src := range srcs {
		dsts := make([]string, 0, len(p.relTypes[src]))
		for d := range p.relTypes[src] {
			dsts = append(dsts, d)
		}
		sort.Strings(dsts)
		for _, d := range dsts {
			out = append(out, fmt.Sprintf("    %s %s", src, d))
		}
	}
	return strings.Join(out, "\n")
}

// truncate shortens s to 47 characters plus "..." when it exceeds 50.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= schemaTruncateAt {
		return s
	}
	return string(r[:schemaTruncateAt-3]) + "..."
}
