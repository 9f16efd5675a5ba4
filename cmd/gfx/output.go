package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/a-h/gfx/gexf"
	"github.com/a-h/gfx/graph"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

var (
	colorAccent = lipgloss.Color("#20B9B4")
	colorBorder = lipgloss.Color("#16858E")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(colorBorder)
)

// output renders command results as tables or JSON.
type output struct {
	w      io.Writer
	format string
	styled bool
}

func newOutput(g GlobalFlags) *output {
	w := g.Stdout()
	o := &output{w: w, format: g.Format}
	if f, ok := w.(*os.File); ok {
		o.styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return o
}

func (o *output) JSON() bool { return o.format == "json" }

func (o *output) WriteJSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteTable draws a table. Colors and rounded borders are only used on a terminal.
func (o *output) WriteTable(headers []string, rows [][]string) error {
	t := table.New().Headers(headers...).Rows(rows...)
	if o.styled {
		t = t.Border(lipgloss.RoundedBorder()).
			BorderStyle(borderStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
	} else {
		t = t.Border(lipgloss.ASCIIBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				return cellStyle
			})
	}
	_, err := fmt.Fprintln(o.w, t.Render())
	return err
}

// WriteFields draws a two column table of names and values.
func (o *output) WriteFields(fields [][2]string) error {
	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{f[0], f[1]}
	}
	return o.WriteTable([]string{"field", "value"}, rows)
}

func (o *output) WriteLine(format string, args ...any) error {
	_, err := fmt.Fprintf(o.w, format+"\n", args...)
	return err
}

// WriteNodes prints nodes with their attributes.
func (o *output) WriteNodes(g *graph.Graph, nodes []*graph.Node) error {
	if o.JSON() {
		records := make([]gexf.NodeRecord, len(nodes))
		for i, n := range nodes {
			records[i] = gexf.NewNodeRecord(g, n)
		}
		return o.WriteJSON(records)
	}
	schema := g.NodeSchema()
	headers := []string{"id", "label"}
	for i := range schema.Len() {
		headers = append(headers, schema.Key(i))
	}
	rows := make([][]string, len(nodes))
	for i, n := range nodes {
		row := []string{n.ID, n.Label}
		for j := range schema.Len() {
			row = append(row, n.AttrAt(j).String())
		}
		rows[i] = row
	}
	return o.WriteTable(headers, rows)
}

// WriteEdges prints edges with their attributes.
func (o *output) WriteEdges(g *graph.Graph, edges []*graph.Edge) error {
	if o.JSON() {
		records := make([]gexf.EdgeRecord, len(edges))
		for i, e := range edges {
			records[i] = gexf.NewEdgeRecord(g, e)
		}
		return o.WriteJSON(records)
	}
	schema := g.EdgeSchema()
	headers := []string{"id", "source", "target", "type", "weight", "label"}
	for i := range schema.Len() {
		headers = append(headers, schema.Key(i))
	}
	rows := make([][]string, len(edges))
	for i, e := range edges {
		row := []string{e.ID, e.Source, e.Target, edgeType(e), formatFloat(e.Weight), e.Label}
		for j := range schema.Len() {
			row = append(row, e.AttrAt(j).String())
		}
		rows[i] = row
	}
	return o.WriteTable(headers, rows)
}

// WritePath prints a path as "a -> b -> c", or its ids as a JSON array.
func (o *output) WritePath(path []*graph.Node) error {
	if o.JSON() {
		return o.WriteJSON(nodeIDs(path))
	}
	return o.WriteLine("%s", strings.Join(nodeIDs(path), " -> "))
}

func edgeType(e *graph.Edge) string {
	if e.Directed {
		return "directed"
	}
	return "undirected"
}

func nodeIDs(nodes []*graph.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func formatScore(f float64) string {
	return humanize.FtoaWithDigits(f, 6)
}
