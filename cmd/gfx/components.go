package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/a-h/gfx/query"
)

type ComponentsCommand struct {
	File   string `arg:"" help:"GEXF file to read, or - for standard input."`
	Strong bool   `help:"Find strongly connected components of a directed graph."`
}

func (c *ComponentsCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	if c.Strong && !gr.Directed() {
		g.Logger().Warn("Ignoring --strong on an undirected graph")
	}
	components := query.ConnectedComponents(gr, c.Strong)
	ids := make([][]string, len(components))
	for i, members := range components {
		ids[i] = nodeIDs(members)
	}
	out := newOutput(g)
	if out.JSON() {
		return out.WriteJSON(ids)
	}
	rows := make([][]string, len(ids))
	for i, members := range ids {
		rows[i] = []string{strconv.Itoa(i + 1), formatCount(len(members)), strings.Join(members, ", ")}
	}
	return out.WriteTable([]string{"#", "size", "nodes"}, rows)
}
