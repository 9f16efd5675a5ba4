package main

import (
	"maps"
	"slices"
	"strconv"

	"github.com/a-h/gfx/graph"
	"github.com/a-h/gfx/query"
)

// MatchFlags are shorthands for common filter expressions. They are combined with
// --filter so that all must match.
type MatchFlags struct {
	Attr  map[string]string `help:"Require an attribute to equal a value (repeatable)." placeholder:"KEY=VALUE"`
	Label string            `help:"Require the label to match a glob pattern, for example 'Web*'."`
}

func (m MatchFlags) expressions() (exprs []string) {
	for _, k := range slices.Sorted(maps.Keys(m.Attr)) {
		exprs = append(exprs, strconv.Quote(k)+" = "+strconv.Quote(m.Attr[k]))
	}
	if m.Label != "" {
		exprs = append(exprs, "label ~ "+strconv.Quote(m.Label))
	}
	return exprs
}

// EdgeMatchFlags add edge endpoint and direction shorthands.
type EdgeMatchFlags struct {
	MatchFlags
	Source string `help:"Require the edge source id."`
	Target string `help:"Require the edge target id."`
	Type   string `help:"Require the edge type." enum:"directed,undirected," default:""`
}

func (m EdgeMatchFlags) expressions() []string {
	exprs := m.MatchFlags.expressions()
	if m.Source != "" {
		exprs = append(exprs, "source = "+strconv.Quote(m.Source))
	}
	if m.Target != "" {
		exprs = append(exprs, "target = "+strconv.Quote(m.Target))
	}
	if m.Type != "" {
		exprs = append(exprs, "type = "+strconv.Quote(m.Type))
	}
	return exprs
}

// compileFilter compiles each expression against the schema and requires all of them
// to match. It returns nil when there is nothing to filter on.
func compileFilter(schema *graph.Schema, exprs ...string) (*query.Filter, error) {
	var filters []*query.Filter
	for _, expr := range exprs {
		f, err := query.Compile(expr, schema)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return query.And(filters...), nil
}

// filterNodes keeps the nodes that match the global --filter expression.
func filterNodes(g GlobalFlags, gr *graph.Graph, nodes []*graph.Node) ([]*graph.Node, error) {
	filter, err := compileFilter(gr.NodeSchema(), g.Filter)
	if err != nil || filter == nil {
		return nodes, err
	}
	return slices.DeleteFunc(nodes, func(n *graph.Node) bool {
		return !filter.MatchNode(gr, n)
	}), nil
}
