package gexf

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a-h/gfx/graph"
)

// Attribute is a named attribute value.
type Attribute struct {
	Key   string
	Value graph.Value
}

// Attributes is an ordered attribute mapping. It encodes to a JSON object whose keys
// keep declaration order.
type Attributes []Attribute

func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(attr.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(attr.Value.Any())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value with the given key.
func (a Attributes) Get(key string) (graph.Value, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return graph.Value{}, false
}

// AttributesOf returns the present attribute values of a node or edge, keyed by
// display key, in declaration order.
func AttributesOf(schema *graph.Schema, values interface {
	AttrAt(i int) graph.Value
}) Attributes {
	attrs := Attributes{}
	for i := range schema.Len() {
		v := values.AttrAt(i)
		if v.IsNull() {
			continue
		}
		attrs = append(attrs, Attribute{Key: schema.Key(i), Value: v})
	}
	return attrs
}

// NodeRecord is the JSON form of a node.
type NodeRecord struct {
	ID         string     `json:"id"`
	Label      string     `json:"label,omitempty"`
	Attributes Attributes `json:"attributes"`
}

// EdgeRecord is the JSON form of an edge.
type EdgeRecord struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Target     string     `json:"target"`
	Weight     float64    `json:"weight"`
	Directed   bool       `json:"directed"`
	Label      string     `json:"label,omitempty"`
	Attributes Attributes `json:"attributes"`
}

// AttributeRecord is the JSON form of an attribute definition.
type AttributeRecord struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

// GraphRecord is the JSON form of a whole graph.
type GraphRecord struct {
	Meta       graph.Metadata `json:"meta"`
	Mode       string         `json:"mode"`
	Attributes struct {
		Node []AttributeRecord `json:"node"`
		Edge []AttributeRecord `json:"edge"`
	} `json:"attributes"`
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// NewNodeRecord converts a node of g.
func NewNodeRecord(g *graph.Graph, n *graph.Node) NodeRecord {
	return NodeRecord{
		ID:         n.ID,
		Label:      n.Label,
		Attributes: AttributesOf(g.NodeSchema(), n),
	}
}

// NewEdgeRecord converts an edge of g.
func NewEdgeRecord(g *graph.Graph, e *graph.Edge) EdgeRecord {
	return EdgeRecord{
		ID:         e.ID,
		Source:     e.Source,
		Target:     e.Target,
		Weight:     e.Weight,
		Directed:   e.Directed,
		Label:      e.Label,
		Attributes: AttributesOf(g.EdgeSchema(), e),
	}
}

func attributeRecords(schema *graph.Schema) []AttributeRecord {
	records := []AttributeRecord{}
	for _, def := range schema.Definitions() {
		records = append(records, AttributeRecord{
			ID:      def.ID,
			Title:   def.Title,
			Type:    def.Type.String(),
			Default: def.Default.Any(),
		})
	}
	return records
}

// NewGraphRecord converts a whole graph.
func NewGraphRecord(g *graph.Graph) GraphRecord {
	r := GraphRecord{
		Meta:  g.Meta(),
		Mode:  g.Mode().String(),
		Nodes: []NodeRecord{},
		Edges: []EdgeRecord{},
	}
	r.Attributes.Node = attributeRecords(g.NodeSchema())
	r.Attributes.Edge = attributeRecords(g.EdgeSchema())
	for _, n := range g.Nodes() {
		r.Nodes = append(r.Nodes, NewNodeRecord(g, n))
	}
	for _, e := range g.Edges() {
		r.Edges = append(r.Edges, NewEdgeRecord(g, e))
	}
	return r
}

func writeJSON(w io.Writer, g *graph.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewGraphRecord(g))
}
