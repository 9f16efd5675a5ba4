package graph

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Mode is the edge-direction mode of a graph.
type Mode int

const (
	Undirected Mode = iota
	Directed
	// Mixed graphs allow each edge to override the direction.
	Mixed
)

func (m Mode) String() string {
	switch m {
	case Directed:
		return "directed"
	case Mixed:
		return "mixed"
	}
	return "undirected"
}

// ParseMode parses a GEXF defaultedgetype. An empty string is undirected.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "undirected", "mutual":
		return Undirected, nil
	case "directed":
		return Directed, nil
	case "mixed":
		return Mixed, nil
	}
	return 0, fmt.Errorf("unrecognized edge type %q", s)
}

// Direction selects which incident edges a traversal follows.
type Direction int

const (
	Out Direction = iota
	In
	Both
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Both:
		return "both"
	}
	return "out"
}

// ParseDirection parses "in", "out" or "both".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "out":
		return Out, nil
	case "in":
		return In, nil
	case "both", "":
		return Both, nil
	}
	return 0, fmt.Errorf("unknown direction %q, expected in, out or both", s)
}

// Metadata describes the source document.
type Metadata struct {
	Version      string `json:"version,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Description  string `json:"description,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
	// TimeMode is the GEXF graph mode, "static" or "dynamic".
	TimeMode string `json:"timeMode,omitempty"`
}

// attrs holds attribute values aligned with a schema.
type attrs struct {
	schema *Schema
	values []Value
}

// Attr returns the value of the attribute with the given id or title, falling back
// to the declared default. The second result is false when the value is absent.
func (a attrs) Attr(key string) (Value, bool) {
	i, ok := a.schema.Lookup(key)
	if !ok {
		return Value{}, false
	}
	v := a.AttrAt(i)
	return v, !v.IsNull()
}

// AttrAt returns the value at schema position i, falling back to the default.
func (a attrs) AttrAt(i int) Value {
	if i < len(a.values) && !a.values[i].IsNull() {
		return a.values[i]
	}
	return a.schema.defs[i].Default
}

// Explicit returns the value set on the element at schema position i, ignoring defaults.
func (a attrs) Explicit(i int) Value {
	if i < len(a.values) {
		return a.values[i]
	}
	return Value{}
}

// Attrs iterates over present attribute values in declaration order.
func (a attrs) Attrs() iter.Seq2[AttributeDefinition, Value] {
	return func(yield func(AttributeDefinition, Value) bool) {
		for i, def := range a.schema.defs {
			v := a.AttrAt(i)
			if v.IsNull() {
				continue
			}
			if !yield(def, v) {
				return
			}
		}
	}
}

// Node is a vertex of the graph.
type Node struct {
	attrs
	ID    string
	Label string
	index int
}

// Index returns the insertion position of the node.
func (n *Node) Index() int { return n.index }

// Edge connects two nodes.
type Edge struct {
	attrs
	ID     string
	Source string
	Target string
	// Weight is 1 unless the document sets it.
	Weight    float64
	HasWeight bool
	Directed  bool
	Label     string
	index     int
	src, dst  int
}

func (e *Edge) Index() int       { return e.index }
func (e *Edge) SourceIndex() int { return e.src }
func (e *Edge) TargetIndex() int { return e.dst }

// Other returns the endpoint opposite node index i.
func (e *Edge) Other(i int) int {
	if e.src == i {
		return e.dst
	}
	return e.src
}

// Graph is an immutable multigraph. Build one with a Builder.
type Graph struct {
	meta       Metadata
	mode       Mode
	nodeSchema *Schema
	edgeSchema *Schema
	nodes      []*Node
	edges      []*Edge
	nodeIndex  map[string]int
	edgeIndex  map[string]int
	// incident lists the edges touching each node, each edge once.
	incident [][]int
	// adjacent lists the distinct neighbors of each node per Direction, ascending.
	adjacent [3][][]int
}

func (g *Graph) Meta() Metadata      { return g.meta }
func (g *Graph) Mode() Mode          { return g.mode }
func (g *Graph) NodeSchema() *Schema { return g.nodeSchema }
func (g *Graph) EdgeSchema() *Schema { return g.edgeSchema }
func (g *Graph) NodeCount() int      { return len(g.nodes) }
func (g *Graph) EdgeCount() int      { return len(g.edges) }

// Directed reports whether the graph is directed or mixed.
func (g *Graph) Directed() bool { return g.mode != Undirected }

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge { return slices.Clone(g.edges) }

func (g *Graph) NodeAt(i int) *Node { return g.nodes[i] }
func (g *Graph) EdgeAt(i int) *Edge { return g.edges[i] }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	i, ok := g.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return g.edges[i], true
}

// Adjacent returns the distinct neighbor indices of node i in the direction, in
// insertion order. The returned slice must not be modified.
func (g *Graph) Adjacent(i int, dir Direction) []int {
	return g.adjacent[dir][i]
}

// Incident returns the indices of edges touching node i. The returned slice must not be modified.
func (g *Graph) Incident(i int) []int {
	return g.incident[i]
}

// Degree counts the edges incident to node i in the direction. A directed edge counts
// towards the out-degree of its source and the in-degree of its target. An undirected
// edge counts once per endpoint in every direction, so undirected self-loops count twice.
func (g *Graph) Degree(i int, dir Direction) (d int) {
	for _, ei := range g.incident[i] {
		e := g.edges[ei]
		if e.Directed {
			if dir != In && e.src == i {
				d++
			}
			if dir != Out && e.dst == i {
				d++
			}
			continue
		}
		if e.src == i {
			d++
		}
		if e.dst == i {
			d++
		}
	}
	return d
}

// Traversable reports whether edge e can be followed from node i.
func (e *Edge) Traversable(from int, dir Direction) bool {
	if !e.Directed || dir == Both {
		return e.src == from || e.dst == from
	}
	if dir == Out {
		return e.src == from
	}
	return e.dst == from
}

// Induced returns the subgraph on the given node indices with every edge whose
// endpoints are both kept. Store order and schemas are preserved.
func (g *Graph) Induced(indices []int) *Graph {
	keep := make([]bool, len(g.nodes))
	for _, i := range indices {
		keep[i] = true
	}
	sub := &Graph{
		meta:       g.meta,
		mode:       g.mode,
		nodeSchema: g.nodeSchema,
		edgeSchema: g.edgeSchema,
		nodeIndex:  make(map[string]int),
		edgeIndex:  make(map[string]int),
	}
	for i, n := range g.nodes {
		if !keep[i] {
			continue
		}
		cp := *n
		cp.index = len(sub.nodes)
		sub.nodeIndex[cp.ID] = cp.index
		sub.nodes = append(sub.nodes, &cp)
	}
	for _, e := range g.edges {
		if !keep[e.src] || !keep[e.dst] {
			continue
		}
		cp := *e
		cp.index = len(sub.edges)
		cp.src = sub.nodeIndex[e.Source]
		cp.dst = sub.nodeIndex[e.Target]
		sub.edgeIndex[cp.ID] = cp.index
		sub.edges = append(sub.edges, &cp)
	}
	sub.index()
	return sub
}

// index builds the adjacency structures from nodes and edges.
func (g *Graph) index() {
	n := len(g.nodes)
	g.incident = make([][]int, n)
	for d := range g.adjacent {
		g.adjacent[d] = make([][]int, n)
	}
	for _, e := range g.edges {
		g.incident[e.src] = append(g.incident[e.src], e.index)
		if e.dst != e.src {
			g.incident[e.dst] = append(g.incident[e.dst], e.index)
		}
		if e.Directed {
			g.adjacent[Out][e.src] = append(g.adjacent[Out][e.src], e.dst)
			g.adjacent[In][e.dst] = append(g.adjacent[In][e.dst], e.src)
		} else {
			for _, d := range []Direction{Out, In} {
				g.adjacent[d][e.src] = append(g.adjacent[d][e.src], e.dst)
				g.adjacent[d][e.dst] = append(g.adjacent[d][e.dst], e.src)
			}
		}
	}
	for i := range n {
		out := sortedUnique(g.adjacent[Out][i])
		in := sortedUnique(g.adjacent[In][i])
		g.adjacent[Out][i] = out
		g.adjacent[In][i] = in
		g.adjacent[Both][i] = sortedUnique(append(slices.Clone(out), in...))
	}
}

func sortedUnique(s []int) []int {
	slices.Sort(s)
	return slices.Compact(s)
}

// Equal reports whether two graphs are structurally equal: same mode, schemas, and
// the same nodes and edges with the same attribute values in the same order.
func (g *Graph) Equal(o *Graph) bool {
	if g.mode != o.mode || len(g.nodes) != len(o.nodes) || len(g.edges) != len(o.edges) {
		return false
	}
	if !g.nodeSchema.Equal(o.nodeSchema) || !g.edgeSchema.Equal(o.edgeSchema) {
		return false
	}
	for i, n := range g.nodes {
		on := o.nodes[i]
		if n.ID != on.ID || n.Label != on.Label || !equalValues(n.attrs, on.attrs) {
			return false
		}
	}
	for i, e := range g.edges {
		oe := o.edges[i]
		if e.ID != oe.ID || e.Source != oe.Source || e.Target != oe.Target ||
			e.Weight != oe.Weight || e.Directed != oe.Directed || e.Label != oe.Label ||
			!equalValues(e.attrs, oe.attrs) {
			return false
		}
	}
	return true
}

func equalValues(a, b attrs) bool {
	for i := range a.schema.defs {
		if !a.Explicit(i).Equal(b.Explicit(i)) {
			return false
		}
	}
	return true
}
