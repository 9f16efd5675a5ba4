package main

import (
	"context"
	"strconv"

	"github.com/a-h/gfx/query"
)

type DegreeCommand struct {
	File      string `arg:"" help:"GEXF file to read, or - for standard input."`
	ID        string `arg:"" optional:"" help:"Node id. All nodes matching --filter are listed when omitted."`
	Direction string `help:"Edge direction to count." enum:"out,in,both" default:"both" short:"d"`
}

type degreeRecord struct {
	ID   string `json:"id"`
	In   int    `json:"in"`
	Out  int    `json:"out"`
	Both int    `json:"both"`
}

func (c *DegreeCommand) Run(ctx context.Context, g GlobalFlags) error {
	dir, err := parseDirection(c.Direction)
	if err != nil {
		return err
	}
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	out := newOutput(g)
	if c.ID != "" {
		d, err := query.Degree(gr, c.ID, dir)
		if err != nil {
			return err
		}
		if out.JSON() {
			return out.WriteJSON(map[string]any{"id": c.ID, "direction": dir.String(), "degree": d})
		}
		return out.WriteLine("%d", d)
	}

	nodes, err := filterNodes(g, gr, gr.Nodes())
	if err != nil {
		return err
	}
	degrees := query.Degrees(gr, nodes)
	records := make([]degreeRecord, len(degrees))
	for i, d := range degrees {
		records[i] = degreeRecord{ID: d.Node.ID, In: d.In, Out: d.Out, Both: d.Both}
	}
	if out.JSON() {
		return out.WriteJSON(records)
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.ID, strconv.Itoa(r.In), strconv.Itoa(r.Out), strconv.Itoa(r.Both)}
	}
	return out.WriteTable([]string{"id", "in", "out", "both"}, rows)
}
