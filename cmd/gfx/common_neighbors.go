package main

import (
	"context"

	"github.com/a-h/gfx/query"
)

type CommonNeighborsCommand struct {
	File string `arg:"" help:"GEXF file to read, or - for standard input."`
	A    string `arg:"" help:"First node id."`
	B    string `arg:"" help:"Second node id."`
}

func (c *CommonNeighborsCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	nodes, err := query.CommonNeighbors(gr, c.A, c.B)
	if err != nil {
		return err
	}
	if nodes, err = filterNodes(g, gr, nodes); err != nil {
		return err
	}
	return newOutput(g).WriteNodes(gr, nodes)
}
