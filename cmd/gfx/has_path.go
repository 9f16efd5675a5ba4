package main

import (
	"context"
	"strconv"

	"github.com/a-h/gfx/query"
)

type HasPathCommand struct {
	File   string `arg:"" help:"GEXF file to read, or - for standard input."`
	Source string `arg:"" help:"Source node id."`
	Target string `arg:"" help:"Target node id."`
}

func (c *HasPathCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	ok, err := query.HasPath(gr, c.Source, c.Target)
	if err != nil {
		return err
	}
	out := newOutput(g)
	if out.JSON() {
		return out.WriteJSON(map[string]any{
			"source":  c.Source,
			"target":  c.Target,
			"hasPath": ok,
		})
	}
	return out.WriteLine("%s", strconv.FormatBool(ok))
}
