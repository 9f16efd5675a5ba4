// Package sink defines export destinations for graphs and the row layout shared by
// the database sinks.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/a-h/gfx/gexf"
	"github.com/a-h/gfx/graph"
)

// Sink is an external destination for an exported graph.
type Sink interface {
	// Init prepares the destination, for example by applying schema migrations.
	Init(ctx context.Context) error
	// Write stores g under name, replacing any graph previously written with that name.
	Write(ctx context.Context, name string, g *graph.Graph) error
}

// GraphRow is a row of the gexf_graph table.
type GraphRow struct {
	Name         string
	Version      string
	Creator      string
	Description  string
	Keywords     string
	LastModified string
	Mode         string
	TimeMode     string
	NodeCount    int
	EdgeCount    int
	Exported     string
}

// AttributeRow is a row of the gexf_attribute table.
type AttributeRow struct {
	Graph    string
	Class    string
	ID       string
	Title    string
	Type     string
	Position int
	// Default is the lexical default value, or nil when the attribute has none.
	Default any
}

// NodeRow is a row of the gexf_node table.
type NodeRow struct {
	Graph    string
	ID       string
	Position int
	Label    string
	// Attributes is a JSON object of the node's attribute values keyed by display key.
	Attributes string
}

// EdgeRow is a row of the gexf_edge table.
type EdgeRow struct {
	Graph      string
	ID         string
	Position   int
	Source     string
	Target     string
	Weight     float64
	Directed   bool
	Label      string
	Attributes string
}

// Rows is a graph flattened into table rows.
type Rows struct {
	Graph      GraphRow
	Attributes []AttributeRow
	Nodes      []NodeRow
	Edges      []EdgeRow
}

// Flatten converts g into rows stored under name.
func Flatten(name string, g *graph.Graph, exported time.Time) (rows Rows, err error) {
	if name == "" {
		return rows, fmt.Errorf("graph name must not be empty")
	}
	meta := g.Meta()
	rows.Graph = GraphRow{
		Name:         name,
		Version:      meta.Version,
		Creator:      meta.Creator,
		Description:  meta.Description,
		Keywords:     meta.Keywords,
		LastModified: meta.LastModified,
		Mode:         g.Mode().String(),
		TimeMode:     meta.TimeMode,
		NodeCount:    g.NodeCount(),
		EdgeCount:    g.EdgeCount(),
		Exported:     exported.UTC().Format(time.RFC3339Nano),
	}
	for _, schema := range []*graph.Schema{g.NodeSchema(), g.EdgeSchema()} {
		for i, def := range schema.Definitions() {
			row := AttributeRow{
				Graph:    name,
				Class:    def.Class.String(),
				ID:       def.ID,
				Title:    def.Title,
				Type:     def.Declared,
				Position: i,
			}
			if !def.Default.IsNull() {
				row.Default = def.Default.String()
			}
			rows.Attributes = append(rows.Attributes, row)
		}
	}
	for _, n := range g.Nodes() {
		attrs, err := json.Marshal(gexf.AttributesOf(g.NodeSchema(), n))
		if err != nil {
			return rows, fmt.Errorf("node %q: %w", n.ID, err)
		}
		rows.Nodes = append(rows.Nodes, NodeRow{
			Graph:      name,
			ID:         n.ID,
			Position:   n.Index(),
			Label:      n.Label,
			Attributes: string(attrs),
		})
	}
	for _, e := range g.Edges() {
		attrs, err := json.Marshal(gexf.AttributesOf(g.EdgeSchema(), e))
		if err != nil {
			return rows, fmt.Errorf("edge %q: %w", e.ID, err)
		}
		rows.Edges = append(rows.Edges, EdgeRow{
			Graph:      name,
			ID:         e.ID,
			Position:   e.Index(),
			Source:     e.Source,
			Target:     e.Target,
			Weight:     e.Weight,
			Directed:   e.Directed,
			Label:      e.Label,
			Attributes: string(attrs),
		})
	}
	return rows, nil
}
