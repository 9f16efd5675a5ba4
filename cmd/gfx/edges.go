package main

import (
	"context"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/query"
)

type EdgesCommand struct {
	File string `arg:"" help:"GEXF file to read, or - for standard input."`
	EdgeMatchFlags
	Sort   string `help:"Order by a field or attribute, for example weight."`
	Desc   bool   `help:"Sort in descending order."`
	Offset int    `help:"Number of edges to skip." default:"0"`
	Limit  int    `help:"Maximum number of edges to show, 0 for no limit." default:"0"`
}

func (c *EdgesCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	filter, err := compileFilter(gr.EdgeSchema(), append([]string{g.Filter}, c.expressions()...)...)
	if err != nil {
		return err
	}
	edges, err := query.ListEdges(gr, query.ListOptions{Filter: filter, SortBy: c.Sort, Desc: c.Desc})
	if err != nil {
		return err
	}
	page := gfx.Page(gfx.NewPaginator(c.Offset, c.Limit), edges)
	g.Logger().Debug("Listed edges", "matched", len(edges), "shown", len(page))
	return newOutput(g).WriteEdges(gr, page)
}
