package query

import (
	"context"
	"iter"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
)

const (
	// DefaultMaxPaths caps path enumeration when no length bound is given.
	DefaultMaxPaths = 10000
	// DefaultMaxSteps caps the search steps of an enumeration without a length bound.
	DefaultMaxSteps = 10_000_000
)

// PathOptions bound path enumeration.
type PathOptions struct {
	// MaxLength is the maximum number of edges in a path, 0 for no bound.
	MaxLength int
	// MaxPaths is the number of paths an unbounded enumeration may produce before it
	// fails with a LimitExceededError. Zero uses DefaultMaxPaths.
	MaxPaths int
	// MaxSteps is the number of search steps an unbounded enumeration may take before
	// it fails with a LimitExceededError, whether or not paths are being found. Zero
	// uses DefaultMaxSteps.
	MaxSteps int
}

type pathFrame struct {
	node int
	next int
}

// PathCursor enumerates simple paths lazily by depth-first search. It cannot be restarted.
type PathCursor struct {
	ctx    context.Context
	g      *graph.Graph
	dst    int
	opts   PathOptions
	stack  []pathFrame
	onPath []bool
	// reaches marks the nodes with a route to dst. Others are never explored.
	reaches []bool
	path    []*graph.Node
	count   int
	steps   int
	err     error
	done    bool
}

// AllPaths returns a cursor over the simple paths from source to target following
// edge direction. No paths are produced when source and target are the same node.
func AllPaths(ctx context.Context, g *graph.Graph, source, target string, opts PathOptions) (*PathCursor, error) {
	src, err := lookup(g, source)
	if err != nil {
		return nil, err
	}
	dst, err := lookup(g, target)
	if err != nil {
		return nil, err
	}
	if opts.MaxLength < 0 {
		return nil, gfx.NewValidationError("max-length", "must not be negative, got %d", opts.MaxLength)
	}
	if opts.MaxPaths <= 0 {
		opts.MaxPaths = DefaultMaxPaths
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	reaches := reachesTarget(g, dst)
	c := &PathCursor{
		ctx:     ctx,
		g:       g,
		dst:     dst,
		opts:    opts,
		onPath:  make([]bool, g.NodeCount()),
		reaches: reaches,
		done:    src == dst || !reaches[src],
	}
	c.stack = append(c.stack, pathFrame{node: src})
	c.onPath[src] = true
	return c, nil
}

// Next advances to the next path. It returns false when enumeration is complete or
// has failed; check Err to tell the two apart.
func (c *PathCursor) Next() bool {
	if c.done {
		return false
	}
	if err := c.ctx.Err(); err != nil {
		return c.fail(err)
	}
	for len(c.stack) > 0 {
		c.steps++
		if c.opts.MaxLength == 0 && c.steps > c.opts.MaxSteps {
			return c.fail(&gfx.LimitExceededError{Limit: c.opts.MaxSteps, What: "path search steps"})
		}
		if c.steps%256 == 0 {
			if err := c.ctx.Err(); err != nil {
				return c.fail(err)
			}
		}
		top := &c.stack[len(c.stack)-1]
		adjacent := c.g.Adjacent(top.node, graph.Out)
		if top.next >= len(adjacent) || (c.opts.MaxLength > 0 && len(c.stack) > c.opts.MaxLength) {
			c.onPath[top.node] = false
			c.stack = c.stack[:len(c.stack)-1]
			continue
		}
		n := adjacent[top.next]
		top.next++
		if c.onPath[n] || !c.reaches[n] {
			continue
		}
		if n == c.dst {
			if c.opts.MaxLength == 0 && c.count >= c.opts.MaxPaths {
				return c.fail(&gfx.LimitExceededError{Limit: c.opts.MaxPaths, What: "path enumeration"})
			}
			c.count++
			c.path = make([]*graph.Node, 0, len(c.stack)+1)
			for _, f := range c.stack {
				c.path = append(c.path, c.g.NodeAt(f.node))
			}
			c.path = append(c.path, c.g.NodeAt(n))
			return true
		}
		c.stack = append(c.stack, pathFrame{node: n})
		c.onPath[n] = true
	}
	c.done = true
	return false
}

// reachesTarget walks edges backwards from dst to find every node with a route to it.
func reachesTarget(g *graph.Graph, dst int) []bool {
	reaches := make([]bool, g.NodeCount())
	reaches[dst] = true
	queue := []int{dst}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range g.Adjacent(n, graph.In) {
			if !reaches[m] {
				reaches[m] = true
				queue = append(queue, m)
			}
		}
	}
	return reaches
}

func (c *PathCursor) fail(err error) bool {
	c.err = err
	c.done = true
	c.path = nil
	return false
}

// Path returns the current path.
func (c *PathCursor) Path() []*graph.Node { return c.path }

// Err returns the error that stopped enumeration, if any.
func (c *PathCursor) Err() error { return c.err }

// Count returns the number of paths produced so far.
func (c *PathCursor) Count() int { return c.count }

// All adapts the cursor to a range-over-func iterator. An error, if any, is yielded last.
func (c *PathCursor) All() iter.Seq2[[]*graph.Node, error] {
	return func(yield func([]*graph.Node, error) bool) {
		for c.Next() {
			if !yield(c.Path(), nil) {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(nil, err)
		}
	}
}
