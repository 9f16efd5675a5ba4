package main

import (
	"context"
	"strconv"

	"github.com/a-h/gfx/query"
)

type StatsCommand struct {
	File string `arg:"" help:"GEXF file to read, or - for standard input."`
}

func (c *StatsCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	s := query.Stats(gr)
	out := newOutput(g)
	if out.JSON() {
		return out.WriteJSON(s)
	}
	return out.WriteFields([][2]string{
		{"nodes", formatCount(s.NodeCount)},
		{"edges", formatCount(s.EdgeCount)},
		{"density", formatScore(s.Density)},
		{"average degree", formatScore(s.AverageDegree)},
		{"directed", strconv.FormatBool(s.IsDirected)},
		{"self loops", formatCount(s.SelfLoops)},
		{"multi edges", formatCount(s.MultiEdges)},
	})
}
