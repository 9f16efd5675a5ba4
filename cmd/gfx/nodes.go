package main

import (
	"context"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/query"
)

type NodesCommand struct {
	File string `arg:"" help:"GEXF file to read, or - for standard input."`
	MatchFlags
	Sort   string `help:"Order by a field or attribute, for example weight."`
	Desc   bool   `help:"Sort in descending order."`
	Offset int    `help:"Number of nodes to skip." default:"0"`
	Limit  int    `help:"Maximum number of nodes to show, 0 for no limit." default:"0"`
}

func (c *NodesCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	filter, err := compileFilter(gr.NodeSchema(), append([]string{g.Filter}, c.expressions()...)...)
	if err != nil {
		return err
	}
	nodes, err := query.ListNodes(gr, query.ListOptions{Filter: filter, SortBy: c.Sort, Desc: c.Desc})
	if err != nil {
		return err
	}
	page := gfx.Page(gfx.NewPaginator(c.Offset, c.Limit), nodes)
	g.Logger().Debug("Listed nodes", "matched", len(nodes), "shown", len(page))
	return newOutput(g).WriteNodes(gr, page)
}
