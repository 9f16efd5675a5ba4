package query

import (
	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
	"github.com/tidwall/btree"
)

// ListOptions control node and edge listings.
type ListOptions struct {
	Filter *Filter
	// SortBy names a field or attribute to order by. Results are in store order when empty.
	SortBy string
	Desc   bool
}

type sortItem struct {
	key graph.Value
	pos int
}

// sortLess orders by key, absent keys last, then by store position so that equal
// keys keep store order.
func sortLess(desc bool) func(a, b sortItem) bool {
	return func(a, b sortItem) bool {
		if a.key.IsNull() != b.key.IsNull() {
			return b.key.IsNull()
		}
		c := graph.Compare(a.key, b.key)
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.pos < b.pos
	}
}

func sortedPositions(n int, desc bool, key func(i int) graph.Value) []int {
	tree := btree.NewBTreeG(sortLess(desc))
	for i := range n {
		tree.Set(sortItem{key: key(i), pos: i})
	}
	positions := make([]int, 0, n)
	tree.Scan(func(item sortItem) bool {
		positions = append(positions, item.pos)
		return true
	})
	return positions
}

func checkClass(f *Filter, class graph.Class) error {
	if f != nil && f.class != class {
		return gfx.NewValidationError("filter", "filter was compiled for %ss, not %ss", f.class, class)
	}
	return nil
}

// ListNodes returns the nodes matching the filter.
func ListNodes(g *graph.Graph, opts ListOptions) ([]*graph.Node, error) {
	if err := checkClass(opts.Filter, graph.NodeClass); err != nil {
		return nil, err
	}
	var matched []*graph.Node
	for _, n := range g.Nodes() {
		if opts.Filter.MatchNode(g, n) {
			matched = append(matched, n)
		}
	}
	if opts.SortBy == "" {
		return matched, nil
	}
	acc, err := resolve(g.NodeSchema(), opts.SortBy)
	if err != nil {
		return nil, gfx.NewValidationError("sort", "unknown node sort key %q", opts.SortBy)
	}
	positions := sortedPositions(len(matched), opts.Desc, func(i int) graph.Value {
		return acc.node(g, matched[i])
	})
	sorted := make([]*graph.Node, len(positions))
	for i, pos := range positions {
		sorted[i] = matched[pos]
	}
	return sorted, nil
}

// ListEdges returns the edges matching the filter.
func ListEdges(g *graph.Graph, opts ListOptions) ([]*graph.Edge, error) {
	if err := checkClass(opts.Filter, graph.EdgeClass); err != nil {
		return nil, err
	}
	var matched []*graph.Edge
	for _, e := range g.Edges() {
		if opts.Filter.MatchEdge(e) {
			matched = append(matched, e)
		}
	}
	if opts.SortBy == "" {
		return matched, nil
	}
	acc, err := resolve(g.EdgeSchema(), opts.SortBy)
	if err != nil {
		return nil, gfx.NewValidationError("sort", "unknown edge sort key %q", opts.SortBy)
	}
	positions := sortedPositions(len(matched), opts.Desc, func(i int) graph.Value {
		return acc.edge(matched[i])
	})
	sorted := make([]*graph.Edge, len(positions))
	for i, pos := range positions {
		sorted[i] = matched[pos]
	}
	return sorted, nil
}
