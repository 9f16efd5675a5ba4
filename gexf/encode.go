package gexf

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/gfx/graph"
)

type outDocument struct {
	XMLName xml.Name `xml:"gexf"`
	Xmlns   string   `xml:"xmlns,attr"`
	Version string   `xml:"version,attr"`
	Meta    *outMeta `xml:"meta,omitempty"`
	Graph   outGraph `xml:"graph"`
}

type outMeta struct {
	LastModified string `xml:"lastmodifieddate,attr,omitempty"`
	Creator      string `xml:"creator,omitempty"`
	Description  string `xml:"description,omitempty"`
	Keywords     string `xml:"keywords,omitempty"`
}

type outGraph struct {
	DefaultEdgeType string          `xml:"defaultedgetype,attr"`
	Mode            string          `xml:"mode,attr,omitempty"`
	Attributes      []outAttributes `xml:"attributes"`
	Nodes           outNodes        `xml:"nodes"`
	Edges           outEdges        `xml:"edges"`
}

type outAttributes struct {
	Class     string         `xml:"class,attr"`
	Attribute []outAttribute `xml:"attribute"`
}

type outAttribute struct {
	ID      string  `xml:"id,attr"`
	Title   string  `xml:"title,attr"`
	Type    string  `xml:"type,attr"`
	Default *string `xml:"default,omitempty"`
}

type outNodes struct {
	Node []outNode `xml:"node"`
}

type outNode struct {
	ID        string        `xml:"id,attr"`
	Label     string        `xml:"label,attr,omitempty"`
	AttValues *outAttValues `xml:"attvalues,omitempty"`
}

type outEdges struct {
	Edge []outEdge `xml:"edge"`
}

type outEdge struct {
	ID        string        `xml:"id,attr"`
	Source    string        `xml:"source,attr"`
	Target    string        `xml:"target,attr"`
	Type      string        `xml:"type,attr,omitempty"`
	Label     string        `xml:"label,attr,omitempty"`
	Weight    string        `xml:"weight,attr,omitempty"`
	AttValues *outAttValues `xml:"attvalues,omitempty"`
}

type outAttValues struct {
	AttValue []outAttValue `xml:"attvalue"`
}

type outAttValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

func writeGEXF(w io.Writer, g *graph.Graph) error {
	meta := g.Meta()
	version := meta.Version
	if _, ok := Namespaces[version]; !ok {
		version = DefaultVersion
	}
	doc := outDocument{
		Xmlns:   Namespaces[version],
		Version: version,
		Graph: outGraph{
			DefaultEdgeType: g.Mode().String(),
			Mode:            meta.TimeMode,
		},
	}
	if meta.Creator != "" || meta.Description != "" || meta.Keywords != "" || meta.LastModified != "" {
		doc.Meta = &outMeta{
			LastModified: meta.LastModified,
			Creator:      meta.Creator,
			Description:  meta.Description,
			Keywords:     meta.Keywords,
		}
	}
	for _, schema := range []*graph.Schema{g.NodeSchema(), g.EdgeSchema()} {
		if schema.Len() == 0 {
			continue
		}
		block := outAttributes{Class: schema.Class().String()}
		for _, def := range schema.Definitions() {
			a := outAttribute{ID: def.ID, Title: def.Title, Type: def.Declared}
			if !def.Default.IsNull() {
				a.Default = ptr(def.Default.String())
			}
			block.Attribute = append(block.Attribute, a)
		}
		doc.Graph.Attributes = append(doc.Graph.Attributes, block)
	}
	for _, n := range g.Nodes() {
		doc.Graph.Nodes.Node = append(doc.Graph.Nodes.Node, outNode{
			ID:        n.ID,
			Label:     n.Label,
			AttValues: explicitValues(g.NodeSchema(), n.Explicit),
		})
	}
	mixed := g.Mode() == graph.Mixed
	for _, e := range g.Edges() {
		oe := outEdge{
			ID:        e.ID,
			Source:    e.Source,
			Target:    e.Target,
			Label:     e.Label,
			AttValues: explicitValues(g.EdgeSchema(), e.Explicit),
		}
		if mixed {
			oe.Type = "undirected"
			if e.Directed {
				oe.Type = "directed"
			}
		}
		if e.HasWeight {
			oe.Weight = strconv.FormatFloat(e.Weight, 'g', -1, 64)
		}
		doc.Graph.Edges.Edge = append(doc.Graph.Edges.Edge, oe)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode GEXF: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func explicitValues(schema *graph.Schema, explicit func(int) graph.Value) *outAttValues {
	var values []outAttValue
	for i := range schema.Len() {
		v := explicit(i)
		if v.IsNull() {
			continue
		}
		values = append(values, outAttValue{For: schema.At(i).ID, Value: v.String()})
	}
	if len(values) == 0 {
		return nil
	}
	return &outAttValues{AttValue: values}
}
