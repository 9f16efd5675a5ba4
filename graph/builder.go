package graph

import (
	"fmt"
	"strconv"

	"github.com/a-h/gfx"
)

// NodeSpec describes a node to add to a Builder.
type NodeSpec struct {
	ID    string
	Label string
	// Values maps attribute ids to values.
	Values map[string]Value
}

// EdgeSpec describes an edge to add to a Builder.
type EdgeSpec struct {
	// ID is synthesized when empty.
	ID     string
	Source string
	Target string
	// Weight defaults to 1 when nil.
	Weight *float64
	// Directed defaults to the graph mode when nil.
	Directed *bool
	Label    string
	Values   map[string]Value
}

// Builder constructs a Graph, enforcing its invariants. A Builder is single use.
type Builder struct {
	g *Graph
}

// NewBuilder creates a builder for a graph with the given mode and schemas. Nil
// schemas are replaced with empty ones.
func NewBuilder(mode Mode, nodeSchema, edgeSchema *Schema) *Builder {
	if nodeSchema == nil {
		nodeSchema = NewSchema(NodeClass)
	}
	if edgeSchema == nil {
		edgeSchema = NewSchema(EdgeClass)
	}
	return &Builder{
		g: &Graph{
			mode:       mode,
			nodeSchema: nodeSchema,
			edgeSchema: edgeSchema,
			nodeIndex:  make(map[string]int),
			edgeIndex:  make(map[string]int),
		},
	}
}

// SetMeta sets the document metadata.
func (b *Builder) SetMeta(meta Metadata) {
	b.g.meta = meta
}

// AddNode adds a node. Node ids must be unique.
func (b *Builder) AddNode(spec NodeSpec) error {
	if spec.ID == "" {
		return gfx.NewParseError(gfx.ParseIntegrity, "node id cannot be empty")
	}
	if _, exists := b.g.nodeIndex[spec.ID]; exists {
		return gfx.NewParseError(gfx.ParseIntegrity, "duplicate node id %q", spec.ID)
	}
	values, err := alignValues(b.g.nodeSchema, spec.Values, "node "+strconv.Quote(spec.ID))
	if err != nil {
		return err
	}
	n := &Node{
		attrs: attrs{schema: b.g.nodeSchema, values: values},
		ID:    spec.ID,
		Label: spec.Label,
		index: len(b.g.nodes),
	}
	b.g.nodeIndex[n.ID] = n.index
	b.g.nodes = append(b.g.nodes, n)
	return nil
}

// AddEdge adds an edge. Endpoints are checked when the graph is built, so edges may be
// added before their nodes.
func (b *Builder) AddEdge(spec EdgeSpec) error {
	name := "edge"
	if spec.ID != "" {
		name += " " + strconv.Quote(spec.ID)
	}
	if spec.Source == "" || spec.Target == "" {
		return gfx.NewParseError(gfx.ParseIntegrity, "%s must have a source and a target", name)
	}
	directed := b.g.mode != Undirected
	if spec.Directed != nil {
		if b.g.mode != Mixed && *spec.Directed != directed {
			return gfx.NewParseError(gfx.ParseIntegrity, "%s has direction that contradicts %s graph", name, b.g.mode)
		}
		directed = *spec.Directed
	}
	weight, hasWeight := 1.0, false
	if spec.Weight != nil {
		weight, hasWeight = *spec.Weight, true
	}
	values, err := alignValues(b.g.edgeSchema, spec.Values, name)
	if err != nil {
		return err
	}
	b.g.edges = append(b.g.edges, &Edge{
		attrs:     attrs{schema: b.g.edgeSchema, values: values},
		ID:        spec.ID,
		Source:    spec.Source,
		Target:    spec.Target,
		Weight:    weight,
		HasWeight: hasWeight,
		Directed:  directed,
		Label:     spec.Label,
		index:     len(b.g.edges),
	})
	return nil
}

// Build checks edge endpoints and identifiers, synthesizes missing edge ids and
// returns the graph. No graph is returned on error.
func (b *Builder) Build() (*Graph, error) {
	g := b.g
	for _, e := range g.edges {
		if e.ID == "" {
			continue
		}
		if _, exists := g.edgeIndex[e.ID]; exists {
			return nil, gfx.NewParseError(gfx.ParseIntegrity, "duplicate edge id %q", e.ID)
		}
		g.edgeIndex[e.ID] = e.index
	}
	for _, e := range g.edges {
		if e.ID == "" {
			e.ID = synthesizeID(g.edgeIndex, e.index)
			g.edgeIndex[e.ID] = e.index
		}
		var ok bool
		if e.src, ok = g.nodeIndex[e.Source]; !ok {
			return nil, gfx.NewParseError(gfx.ParseIntegrity, "edge %q references unknown source node %q", e.ID, e.Source)
		}
		if e.dst, ok = g.nodeIndex[e.Target]; !ok {
			return nil, gfx.NewParseError(gfx.ParseIntegrity, "edge %q references unknown target node %q", e.ID, e.Target)
		}
	}
	g.index()
	b.g = nil
	return g, nil
}

func synthesizeID(taken map[string]int, position int) string {
	id := "e" + strconv.Itoa(position)
	for suffix := 1; ; suffix++ {
		if _, exists := taken[id]; !exists {
			return id
		}
		id = fmt.Sprintf("e%d_%d", position, suffix)
	}
}

func alignValues(schema *Schema, values map[string]Value, owner string) ([]Value, error) {
	if len(values) == 0 {
		return nil, nil
	}
	aligned := make([]Value, schema.Len())
	for id, v := range values {
		i, ok := schema.IndexOf(id)
		if !ok {
			return nil, gfx.NewParseError(gfx.ParseSchema, "%s references undeclared %s attribute %q", owner, schema.Class(), id)
		}
		if v.IsNull() {
			continue
		}
		if def := schema.At(i); v.Type() != def.Type {
			return nil, gfx.NewParseError(gfx.ParseType, "%s attribute %q is %v, expected %v", owner, id, v.Type(), def.Type)
		}
		aligned[i] = v
	}
	return aligned, nil
}
