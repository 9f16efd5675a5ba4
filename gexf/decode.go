package gexf

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
)

type xmlDocument struct {
	XMLName xml.Name   `xml:"gexf"`
	Version string     `xml:"version,attr"`
	Meta    *xmlMeta   `xml:"meta"`
	Graph   *xmlGraph  `xml:"graph"`
	Unknown []xmlOther `xml:",any"`
}

type xmlMeta struct {
	LastModified string     `xml:"lastmodifieddate,attr"`
	Creator      string     `xml:"creator"`
	Description  string     `xml:"description"`
	Keywords     string     `xml:"keywords"`
	Unknown      []xmlOther `xml:",any"`
}

type xmlGraph struct {
	DefaultEdgeType string          `xml:"defaultedgetype,attr"`
	Mode            string          `xml:"mode,attr"`
	Attributes      []xmlAttributes `xml:"attributes"`
	Nodes           []xmlNodes      `xml:"nodes"`
	Edges           []xmlEdges      `xml:"edges"`
	Unknown         []xmlOther      `xml:",any"`
}

type xmlAttributes struct {
	Class     string         `xml:"class,attr"`
	Attribute []xmlAttribute `xml:"attribute"`
}

type xmlAttribute struct {
	ID      string  `xml:"id,attr"`
	Title   string  `xml:"title,attr"`
	Type    string  `xml:"type,attr"`
	Default *string `xml:"default"`
}

type xmlNodes struct {
	Node []xmlNode `xml:"node"`
}

type xmlNode struct {
	ID        string       `xml:"id,attr"`
	Label     string       `xml:"label,attr"`
	AttValues xmlAttValues `xml:"attvalues"`
	Unknown   []xmlOther   `xml:",any"`
}

type xmlEdges struct {
	Edge []xmlEdge `xml:"edge"`
}

type xmlEdge struct {
	ID        string       `xml:"id,attr"`
	Source    string       `xml:"source,attr"`
	Target    string       `xml:"target,attr"`
	Weight    *string      `xml:"weight,attr"`
	Type      string       `xml:"type,attr"`
	Label     string       `xml:"label,attr"`
	AttValues xmlAttValues `xml:"attvalues"`
	Unknown   []xmlOther   `xml:",any"`
}

type xmlAttValues struct {
	AttValue []xmlAttValue `xml:"attvalue"`
}

type xmlAttValue struct {
	For string `xml:"for,attr"`
	// ID is used instead of for by GEXF 1.0 documents.
	ID    string `xml:"id,attr"`
	Value string `xml:"value,attr"`
}

// xmlOther captures elements outside the supported subset, such as viz and spells.
type xmlOther struct {
	XMLName xml.Name
}

// ParseFile parses the GEXF document at path, or standard input when path is "-".
func ParseFile(path string, opts ...Option) (*graph.Graph, error) {
	if path == "-" {
		return Parse(os.Stdin, opts...)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Parse(f, opts...)
}

// Parse reads a GEXF document. No graph is returned on error.
func Parse(r io.Reader, opts ...Option) (*graph.Graph, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	var doc xmlDocument
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, decodeError(err)
	}
	if err := checkTrailing(dec); err != nil {
		return nil, err
	}
	if doc.Graph == nil {
		return nil, gfx.NewParseError(gfx.ParseSchema, "document has no <graph> element")
	}

	version, err := checkVersion(doc.Version, doc.XMLName.Space, o.version)
	if err != nil {
		return nil, err
	}

	mode, err := graph.ParseMode(doc.Graph.DefaultEdgeType)
	if err != nil {
		return nil, gfx.NewParseError(gfx.ParseSchema, "graph %v", err)
	}

	ignored := newIgnoredElements()
	ignored.add(doc.Unknown)
	ignored.add(doc.Graph.Unknown)

	nodeSchema := graph.NewSchema(graph.NodeClass)
	edgeSchema := graph.NewSchema(graph.EdgeClass)
	for _, block := range doc.Graph.Attributes {
		schema := nodeSchema
		switch strings.ToLower(block.Class) {
		case "", "node":
		case "edge":
			schema = edgeSchema
		default:
			return nil, gfx.NewParseError(gfx.ParseSchema, "unknown attribute class %q", block.Class)
		}
		for _, a := range block.Attribute {
			def, err := parseDefinition(a)
			if err != nil {
				return nil, err
			}
			if err := schema.Add(def); err != nil {
				return nil, &gfx.ParseError{Kind: gfx.ParseSchema, Msg: "invalid attribute declaration", Err: err}
			}
		}
	}

	b := graph.NewBuilder(mode, nodeSchema, edgeSchema)
	meta := graph.Metadata{
		Version:  version,
		TimeMode: doc.Graph.Mode,
	}
	if doc.Meta != nil {
		meta.Creator = strings.TrimSpace(doc.Meta.Creator)
		meta.Description = strings.TrimSpace(doc.Meta.Description)
		meta.Keywords = strings.TrimSpace(doc.Meta.Keywords)
		meta.LastModified = doc.Meta.LastModified
		ignored.add(doc.Meta.Unknown)
	}
	b.SetMeta(meta)

	for _, nodes := range doc.Graph.Nodes {
		for _, n := range nodes.Node {
			ignored.add(n.Unknown)
			values, err := parseValues(nodeSchema, n.AttValues, "node "+strconv.Quote(n.ID))
			if err != nil {
				return nil, err
			}
			if err := b.AddNode(graph.NodeSpec{ID: n.ID, Label: n.Label, Values: values}); err != nil {
				return nil, err
			}
		}
	}

	for _, edges := range doc.Graph.Edges {
		for _, e := range edges.Edge {
			ignored.add(e.Unknown)
			spec, err := parseEdge(edgeSchema, e)
			if err != nil {
				return nil, err
			}
			if err := b.AddEdge(spec); err != nil {
				return nil, err
			}
		}
	}

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	ignored.log(o.logger)
	return g, nil
}

// checkTrailing allows only whitespace, comments and processing instructions after
// the root element.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return decodeError(err)
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return &gfx.ParseError{Kind: gfx.ParseSyntax, Line: line(dec), Msg: "text after the root element"}
			}
		default:
			return &gfx.ParseError{Kind: gfx.ParseSyntax, Line: line(dec), Msg: "content after the root element"}
		}
	}
}

func line(dec *xml.Decoder) int {
	l, _ := dec.InputPos()
	return l
}

func decodeError(err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &gfx.ParseError{Kind: gfx.ParseSyntax, Line: syntaxErr.Line, Msg: "malformed XML", Err: errors.New(syntaxErr.Msg)}
	}
	var unmarshalErr xml.UnmarshalError
	if errors.As(err, &unmarshalErr) {
		return &gfx.ParseError{Kind: gfx.ParseSchema, Msg: "not a GEXF document", Err: err}
	}
	if errors.Is(err, io.EOF) {
		return &gfx.ParseError{Kind: gfx.ParseSyntax, Msg: "empty document"}
	}
	return &gfx.ParseError{Kind: gfx.ParseSyntax, Msg: "malformed XML", Err: err}
}

func parseDefinition(a xmlAttribute) (graph.AttributeDefinition, error) {
	t, err := graph.ParseType(a.Type)
	if err != nil {
		return graph.AttributeDefinition{}, &gfx.ParseError{Kind: gfx.ParseSchema, Msg: fmt.Sprintf("attribute %q", a.ID), Err: err}
	}
	def := graph.AttributeDefinition{
		ID:       a.ID,
		Title:    a.Title,
		Type:     t,
		Declared: a.Type,
	}
	if a.Default != nil {
		if def.Default, err = graph.ParseValue(t, *a.Default); err != nil {
			return def, &gfx.ParseError{Kind: gfx.ParseType, Msg: fmt.Sprintf("default for attribute %q", a.ID), Err: err}
		}
	}
	return def, nil
}

func parseValues(schema *graph.Schema, av xmlAttValues, owner string) (map[string]graph.Value, error) {
	if len(av.AttValue) == 0 {
		return nil, nil
	}
	values := make(map[string]graph.Value, len(av.AttValue))
	for _, v := range av.AttValue {
		id := v.For
		if id == "" {
			id = v.ID
		}
		i, ok := schema.IndexOf(id)
		if !ok {
			return nil, gfx.NewParseError(gfx.ParseSchema, "%s references undeclared %s attribute %q", owner, schema.Class(), id)
		}
		parsed, err := graph.ParseValue(schema.At(i).Type, v.Value)
		if err != nil {
			return nil, &gfx.ParseError{Kind: gfx.ParseType, Msg: fmt.Sprintf("%s attribute %q", owner, id), Err: err}
		}
		// Dynamic documents may repeat a value over time; the last one wins.
		values[id] = parsed
	}
	return values, nil
}

func parseEdge(schema *graph.Schema, e xmlEdge) (spec graph.EdgeSpec, err error) {
	name := "edge"
	if e.ID != "" {
		name += " " + strconv.Quote(e.ID)
	}
	spec = graph.EdgeSpec{
		ID:     e.ID,
		Source: e.Source,
		Target: e.Target,
		Label:  e.Label,
	}
	if e.Weight != nil {
		w, err := graph.ParseFloat(strings.TrimSpace(*e.Weight))
		if err != nil {
			return spec, &gfx.ParseError{Kind: gfx.ParseType, Msg: name + " weight", Err: err}
		}
		spec.Weight = &w
	}
	switch strings.ToLower(strings.TrimSpace(e.Type)) {
	case "":
	case "directed":
		spec.Directed = ptr(true)
	case "undirected", "mutual":
		spec.Directed = ptr(false)
	default:
		return spec, gfx.NewParseError(gfx.ParseSchema, "%s has unknown type %q", name, e.Type)
	}
	spec.Values, err = parseValues(schema, e.AttValues, name)
	return spec, err
}

func ptr[T any](v T) *T { return &v }

// ignoredElements counts elements skipped during parsing.
type ignoredElements map[string]int

func newIgnoredElements() ignoredElements { return make(ignoredElements) }

func (ie ignoredElements) add(elements []xmlOther) {
	for _, el := range elements {
		name := el.XMLName.Local
		if el.XMLName.Space != "" {
			name = el.XMLName.Space + " " + name
		}
		ie[name]++
	}
}

func (ie ignoredElements) log(logger *slog.Logger) {
	names := make([]string, 0, len(ie))
	for name := range ie {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		logger.Debug("ignored unsupported element", slog.String("element", name), slog.Int("count", ie[name]))
	}
}
