package main

import (
	"context"
	"strings"

	"github.com/a-h/gfx/query"
)

type InfoCommand struct {
	File string `arg:"" help:"GEXF file to read, or - for standard input."`
}

func (c *InfoCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	info := query.Describe(gr)
	out := newOutput(g)
	if out.JSON() {
		return out.WriteJSON(info)
	}
	return out.WriteFields([][2]string{
		{"version", info.Version},
		{"mode", info.Mode},
		{"default edge type", info.DefaultEdgeType},
		{"nodes", formatCount(info.NodeCount)},
		{"edges", formatCount(info.EdgeCount)},
		{"node attributes", strings.Join(info.NodeAttributes, ", ")},
		{"edge attributes", strings.Join(info.EdgeAttributes, ", ")},
	})
}
