package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/a-h/gfx/query"
)

type AllPathsCommand struct {
	File      string `arg:"" help:"GEXF file to read, or - for standard input."`
	Source    string `arg:"" help:"Source node id."`
	Target    string `arg:"" help:"Target node id."`
	MaxLength int    `help:"Maximum number of edges in a path, 0 for no bound." default:"0"`
}

func (c *AllPathsCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	cursor, err := query.AllPaths(ctx, gr, c.Source, c.Target, query.PathOptions{
		MaxLength: c.MaxLength,
		MaxPaths:  g.MaxPaths,
		MaxSteps:  g.MaxSteps,
	})
	if err != nil {
		return err
	}
	paths := [][]string{}
	for path, err := range cursor.All() {
		if err != nil {
			return err
		}
		paths = append(paths, nodeIDs(path))
	}
	g.Logger().Debug("Enumerated paths", "source", c.Source, "target", c.Target, "count", len(paths))

	out := newOutput(g)
	if out.JSON() {
		return out.WriteJSON(paths)
	}
	rows := make([][]string, len(paths))
	for i, path := range paths {
		rows[i] = []string{strconv.Itoa(i + 1), strconv.Itoa(len(path) - 1), strings.Join(path, " -> ")}
	}
	return out.WriteTable([]string{"#", "length", "path"}, rows)
}
