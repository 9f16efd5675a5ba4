package gexf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/gfx/graph"
)

func quoteID(id string) string {
	if id == "" || strings.ContainsAny(id, " \t\r\n\"") {
		return strconv.Quote(id)
	}
	return id
}

// writeAdjList writes one line per node: the node id followed by the target of each
// edge stored with that node as source.
func writeAdjList(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	for i, n := range g.Nodes() {
		bw.WriteString(quoteID(n.ID))
		for _, ei := range g.Incident(i) {
			e := g.EdgeAt(ei)
			if e.SourceIndex() != i {
				continue
			}
			bw.WriteByte(' ')
			bw.WriteString(quoteID(e.Target))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func dotEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
}

func writeDot(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	keyword, arrow := "digraph", "->"
	if g.Mode() == graph.Undirected {
		keyword, arrow = "graph", "--"
	}
	fmt.Fprintf(bw, "%s G {\n", keyword)
	bw.WriteString("  rankdir=LR;\n")
	bw.WriteString("  node [shape=box, style=rounded];\n\n")
	for _, n := range g.Nodes() {
		if n.Label != "" && n.Label != n.ID {
			fmt.Fprintf(bw, "  \"%s\" [label=\"%s\"];\n", dotEscape(n.ID), dotEscape(n.Label))
			continue
		}
		fmt.Fprintf(bw, "  \"%s\";\n", dotEscape(n.ID))
	}
	bw.WriteString("\n")
	for _, e := range g.Edges() {
		var attrs []string
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=\"%s\"", dotEscape(e.Label)))
		}
		if e.HasWeight {
			attrs = append(attrs, "weight="+strconv.FormatFloat(e.Weight, 'g', -1, 64))
		}
		if g.Mode() == graph.Mixed && !e.Directed {
			attrs = append(attrs, "dir=none")
		}
		fmt.Fprintf(bw, "  \"%s\" %s \"%s\"", dotEscape(e.Source), arrow, dotEscape(e.Target))
		if len(attrs) > 0 {
			fmt.Fprintf(bw, " [%s]", strings.Join(attrs, ", "))
		}
		bw.WriteString(";\n")
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

func mermaidEscape(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "|", "#124;", "\n", " ").Replace(s)
}

// writeMermaid writes a flowchart. Node ids are replaced by positional handles
// because mermaid ids cannot contain arbitrary characters.
func writeMermaid(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("graph LR\n")
	for i, n := range g.Nodes() {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		fmt.Fprintf(bw, "  n%d[\"%s\"]\n", i, mermaidEscape(label))
	}
	for _, e := range g.Edges() {
		arrow := "-->"
		if !e.Directed {
			arrow = "---"
		}
		if e.Label != "" {
			fmt.Fprintf(bw, "  n%d %s|%s| n%d\n", e.SourceIndex(), arrow, mermaidEscape(e.Label), e.TargetIndex())
			continue
		}
		fmt.Fprintf(bw, "  n%d %s n%d\n", e.SourceIndex(), arrow, e.TargetIndex())
	}
	return bw.Flush()
}
