package main

import (
	"context"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
	"github.com/a-h/gfx/query"
)

type NeighborsCommand struct {
	File      string `arg:"" help:"GEXF file to read, or - for standard input."`
	ID        string `arg:"" help:"Node id."`
	Direction string `help:"Edge direction to follow." enum:"out,in,both" default:"out" short:"d"`
}

func (c *NeighborsCommand) Run(ctx context.Context, g GlobalFlags) error {
	dir, err := parseDirection(c.Direction)
	if err != nil {
		return err
	}
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	nodes, err := query.Neighbors(gr, c.ID, dir)
	if err != nil {
		return err
	}
	if nodes, err = filterNodes(g, gr, nodes); err != nil {
		return err
	}
	return newOutput(g).WriteNodes(gr, nodes)
}

func parseDirection(s string) (graph.Direction, error) {
	dir, err := graph.ParseDirection(s)
	if err != nil {
		return dir, gfx.NewValidationError("direction", "%v", err)
	}
	return dir, nil
}
