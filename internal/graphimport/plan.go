package graphimport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/tabular"
	"github.com/MicheleGuerra/SOK-Oran-Security/internal/types"
)

// Relationship types.
const (
	RelConnects       = "CONNECTS"
	RelImplements     = "IMPLEMENTS"
	RelAffects        = "AFFECTS"
	RelAssociatedWith = "ASSOCIATED_WITH"
	RelTargets        = "TARGETS"
	RelSecures        = "SECURES"
)

// Node is a node to upsert.
type Node struct {
	Label string
	Name  string
	Props map[string]any
}

// Edge is a relationship to upsert. All is set when the edge came from an
// "All" cell expanded to every component or interface.
type Edge struct {
	FromLabel string
	From      string
	ToLabel   string
	To        string
	Type      string
	All       bool
}

// Unresolved is a relationship endpoint that names no registered node.
type Unresolved struct {
	Source       string
	Relationship string
	Name         string
}

func (u Unresolved) String() string {
	return fmt.Sprintf("%s --%s--> %q", u.Source, u.Relationship, u.Name)
}

// Plan is the full set of nodes and edges derived from the datasets.
type Plan struct {
	Nodes      []Node
	Edges      []Edge
	Unresolved []Unresolved
	// Folded counts rows whose name was already registered with the same
	// label and were merged into the first occurrence.
	Folded int

	// metadata keeps raw column names per node for Schema.
	metadata map[string]map[string]string
	relTypes map[string]map[string]struct{}
}

// relSpec links every row of set to the names listed in its dst column.
type relSpec struct {
	set       *Dataset
	dst       string
	relType   string
	expansion []string
	reverse   bool
}

// registry maps node names to labels. Names are global across labels.
type registry struct {
	labels map[string]string
	index  map[string]int
	nodes  []Node
	meta   map[string]map[string]string
	folded int
}

func newRegistry() *registry {
	return &registry{
		labels: make(map[string]string),
		index:  make(map[string]int),
		meta:   make(map[string]map[string]string),
	}
}

// register adds every row of ds. A name already registered under another
// label is an error; under the same label the row folds into the first one.
func (r *registry) register(ds *Dataset) ([]string, error) {
	var warnings []string
	for _, row := range ds.Rows {
		name := strings.TrimSpace(row.Get(ds.Key))
		if name == "" {
			continue
		}
		if prev, ok := r.labels[name]; ok {
			if prev != ds.Label {
				return warnings, types.NewError(ErrCodeDuplicateNode,
					fmt.Sprintf("node %q already registered (%s vs %s)", name, ds.Label, prev))
			}
			r.folded++
			warnings = append(warnings, fmt.Sprintf("%s %q appears more than once in %s; keeping the first", ds.Label, name, ds.Source))
			continue
		}

		raw := make(map[string]string, len(ds.Metadata))
		props := make(map[string]any, len(ds.Metadata))
		for _, col := range ds.Metadata {
			v := strings.TrimSpace(row.Get(col))
			raw[col] = v
			if v == "" {
				continue
			}
			props[CleanupKey(col)] = typedValue(ds, col, v)
		}

		r.labels[name] = ds.Label
		r.index[name] = len(r.nodes)
		r.meta[name] = raw
		r.nodes = append(r.nodes, Node{Label: ds.Label, Name: name, Props: props})
	}
	return warnings, nil
}

func typedValue(ds *Dataset, col, v string) any {
	if ds.isBool(col) {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return v
}

// BuildPlan registers every dataset and resolves the relationship specs.
// With strict set, the first unresolved endpoint is returned as an error;
// otherwise unresolved endpoints are collected in Plan.Unresolved. The
// returned warnings describe folded duplicates.
func BuildPlan(ds *Datasets, m *Mapping, strict bool) (*Plan, []string, error) {
	if m == nil {
		m = DefaultMapping()
	}

	reg := newRegistry()
	var warnings []string
	for _, set := range ds.All() {
		w, err := reg.register(set)
		warnings = append(warnings, w...)
		if err != nil {
			return nil, warnings, err
		}
	}

	plan := &Plan{
		Nodes:    reg.nodes,
		Folded:   reg.folded,
		metadata: reg.meta,
		relTypes: make(map[string]map[string]struct{}),
	}

	allComponents := ds.Components.Column(ds.Components.Key)
	allInterfaces := ds.Interfaces.Column(ds.Interfaces.Key)
	target := tabular.ColTarget

	specs := []relSpec{
		{set: ds.Interfaces, dst: "Connects", relType: RelConnects},
		{set: ds.Software, dst: "Components", relType: RelImplements},
		{set: ds.CVEs, dst: "Software", relType: RelAffects},
		{set: ds.CVEs, dst: "CWEs", relType: RelAssociatedWith},
		{set: ds.Threats, dst: affectedColumn, relType: RelTargets, expansion: allComponents},
		{set: ds.Threats, dst: extraIfColumn, relType: RelTargets},
		{set: ds.Attacks, dst: target, relType: RelTargets, expansion: allComponents},
		{set: ds.OurAttacks, dst: target, relType: RelTargets, expansion: allComponents},
		{set: ds.Defenses, dst: target, relType: RelSecures, expansion: allComponents},
		{set: ds.PreventiveMeasure, dst: target, relType: RelSecures, expansion: allComponents},
		{set: ds.Government, dst: "Components", relType: RelTargets, expansion: allComponents},
		{set: ds.Government, dst: "Interfaces", relType: RelTargets, expansion: allInterfaces},
	}

	seen := make(map[Edge]int)
	for _, spec := range specs {
		if err := plan.resolve(spec, reg, m, strict, seen); err != nil {
			return nil, warnings, err
		}
	}
	return plan, warnings, nil
}

func (p *Plan) resolve(spec relSpec, reg *registry, m *Mapping, strict bool, seen map[Edge]int) error {
	for _, row := range spec.set.Rows {
		raw := strings.TrimSpace(row.Get(spec.set.Key))
		cell := strings.TrimSpace(row.Get(spec.dst))
		if raw == "" || cell == "" {
			continue
		}

		src := m.Resolve(raw)
		srcLabel, ok := reg.labels[src]
		if !ok {
			if err := p.unresolved(strict, Unresolved{Source: raw, Relationship: spec.relType, Name: src}); err != nil {
				return err
			}
			continue
		}

		dests := SplitList(cell)
		all := false
		if len(dests) == 1 && strings.EqualFold(dests[0], "all") && len(spec.expansion) > 0 {
			dests = spec.expansion
			all = true
		}

		var expanded []string
		for _, d := range dests {
			expanded = append(expanded, m.Expand(d)...)
		}

		mapped := make(map[string]bool, len(expanded))
		for _, d := range expanded {
			if m.Dropped(d) {
				continue
			}
			d = m.Resolve(d)
			if mapped[d] {
				continue
			}
			mapped[d] = true

			dstLabel, ok := reg.labels[d]
			if !ok {
				if err := p.unresolved(strict, Unresolved{Source: src, Relationship: spec.relType, Name: d}); err != nil {
					return err
				}
				continue
			}

			e := Edge{FromLabel: srcLabel, From: src, ToLabel: dstLabel, To: d, Type: spec.relType}
			if spec.reverse {
				e = Edge{FromLabel: dstLabel, From: d, ToLabel: srcLabel, To: src, Type: spec.relType}
			}
			p.recordType(e)

			// Later duplicates overwrite the flag, as repeated MERGE ... SET would.
			if i, dup := seen[e]; dup {
				p.Edges[i].All = all
				continue
			}
			seen[e] = len(p.Edges)
			e.All = all
			p.Edges = append(p.Edges, e)
		}
	}
	return nil
}

func (p *Plan) unresolved(strict bool, u Unresolved) error {
	if strict {
		return types.NewError(ErrCodeUnresolved, fmt.Sprintf("%q not found in node registry (%s)", u.Name, u))
	}
	p.Unresolved = append(p.Unresolved, u)
	return nil
}

func (p *Plan) recordType(e Edge) {
	dsts, ok := p.relTypes[e.FromLabel]
	if !ok {
		dsts = make(map[string]struct{})
		p.relTypes[e.FromLabel] = dsts
	}
	dsts[fmt.Sprintf("--%s--> %s", e.Type, e.ToLabel)] = struct{}{}
}

// SplitList splits a cell listing names separated by commas or semicolons.
func SplitList(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool { return r == ',' || r == ';' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Labels returns the number of nodes per label.
func (p *Plan) Labels() map[string]int {
	out := make(map[string]int)
	for _, n := range p.Nodes {
		out[n.Label]++
	}
	return out
}
