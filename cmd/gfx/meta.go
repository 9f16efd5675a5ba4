package main

import (
	"context"
)

type MetaCommand struct {
	File string `arg:"" help:"GEXF file to read, or - for standard input."`
}

func (c *MetaCommand) Run(ctx context.Context, g GlobalFlags) error {
	gr, err := g.Load(c.File)
	if err != nil {
		return err
	}
	meta := gr.Meta()
	out := newOutput(g)
	if out.JSON() {
		return out.WriteJSON(meta)
	}
	return out.WriteFields([][2]string{
		{"version", meta.Version},
		{"creator", meta.Creator},
		{"description", meta.Description},
		{"keywords", meta.Keywords},
		{"last modified", meta.LastModified},
		{"mode", meta.TimeMode},
	})
}
