package main

import (
	"cmp"
	"context"
	"slices"

	"github.com/a-h/gfx/query"
)

type CentralityCommand struct {
	File   string `arg:"" help:"GEXF file to read, or - for standard input."`
	Metric string `help:"Centrality measure." enum:"degree,betweenness,closeness,eigenvector" default:"degree" short:"m"`
	Top    int    `help:"Show only the highest scoring nodes, 0 for all nodes in file order." default:"0"`
}

type scoreRecord struct {
	ID    string  `json:"id"`
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score"`
}

func (c *CentralityCommand) Run(ctx context.Context, g GlobalFlags) error {
	metric, err := query.ParseMetric(c.Metric)
	if err != nil {
		return err
	}
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	scores, err := query.Centrality(ctx, gr, metric, g.CentralityOptions())
	if err != nil {
		return err
	}
	filter, err := compileFilter(gr.NodeSchema(), g.Filter)
	if err != nil {
		return err
	}
	scores = slices.DeleteFunc(scores, func(s query.Score) bool {
		return !filter.MatchNode(gr, s.Node)
	})
	if c.Top > 0 {
		slices.SortStableFunc(scores, func(a, b query.Score) int {
			return cmp.Compare(b.Value, a.Value)
		})
		scores = scores[:min(c.Top, len(scores))]
	}

	records := make([]scoreRecord, len(scores))
	for i, s := range scores {
		records[i] = scoreRecord{ID: s.Node.ID, Label: s.Node.Label, Score: s.Value}
	}
	out := newOutput(g)
	if out.JSON() {
		return out.WriteJSON(records)
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.ID, r.Label, formatScore(r.Score)}
	}
	return out.WriteTable([]string{"id", "label", string(metric)}, rows)
}
