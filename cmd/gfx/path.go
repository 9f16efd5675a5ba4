package main

import (
	"context"

	"github.com/a-h/gfx/query"
)

type PathCommand struct {
	File     string `arg:"" help:"GEXF file to read, or - for standard input."`
	Source   string `arg:"" help:"Source node id."`
	Target   string `arg:"" help:"Target node id."`
	Weighted bool   `help:"Minimise the total edge weight instead of the number of hops."`
}

type pathResult struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Found  bool     `json:"found"`
	Length int      `json:"length"`
	Path   []string `json:"path"`
	Cost   *float64 `json:"cost,omitempty"`
}

func (c *PathCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	path, err := query.ShortestPath(gr, c.Source, c.Target, c.Weighted)
	if err != nil {
		return err
	}
	out := newOutput(g)
	if out.JSON() {
		r := pathResult{
			Source: c.Source,
			Target: c.Target,
			Found:  path != nil,
			Length: max(len(path)-1, 0),
			Path:   nodeIDs(path),
		}
		if c.Weighted && path != nil {
			cost := query.PathCost(gr, path)
			r.Cost = &cost
		}
		return out.WriteJSON(r)
	}
	if path == nil {
		return out.WriteLine("no path from %s to %s", c.Source, c.Target)
	}
	if err := out.WritePath(path); err != nil {
		return err
	}
	if c.Weighted {
		return out.WriteLine("cost: %s", formatFloat(query.PathCost(gr, path)))
	}
	return out.WriteLine("length: %d", len(path)-1)
}
