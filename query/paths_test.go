package query_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
	"github.com/a-h/gfx/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// complete returns the complete directed graph on n nodes named 0..n-1.
func complete(t *testing.T, n int) *graph.Graph {
	var nodes []string
	for i := range n {
		nodes = append(nodes, fmt.Sprint(i))
	}
	var edges []edge
	for i := range n {
		for j := range n {
			if i != j {
				edges = append(edges, e(nodes[i], nodes[j]))
			}
		}
	}
	return newGraph(t, graph.Directed, nodes, edges...)
}

func collect(t *testing.T, c *query.PathCursor) (paths [][]string, err error) {
	t.Helper()
	for path, err := range c.All() {
		if err != nil {
			return paths, err
		}
		paths = append(paths, ids(path))
	}
	return paths, nil
}

func TestAllPaths(t *testing.T) {
	g := sampleGraph(t)
	ctx := context.Background()

	t.Run("enumerates in depth first insertion order", func(t *testing.T) {
		c, err := query.AllPaths(ctx, g, "lb1", "db1", query.PathOptions{})
		require.NoError(t, err)
		paths, err := collect(t, c)
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"lb1", "server1", "db1"},
			{"lb1", "server2", "db1"},
		}, paths)
		assert.Equal(t, 2, c.Count())
	})
	t.Run("max length", func(t *testing.T) {
		c, err := query.AllPaths(ctx, g, "lb1", "db1", query.PathOptions{MaxLength: 1})
		require.NoError(t, err)
		paths, err := collect(t, c)
		require.NoError(t, err)
		assert.Empty(t, paths)

		c, err = query.AllPaths(ctx, g, "server1", "db1", query.PathOptions{MaxLength: 1})
		require.NoError(t, err)
		paths, err = collect(t, c)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"server1", "db1"}}, paths)
	})
	t.Run("same node produces nothing", func(t *testing.T) {
		c, err := query.AllPaths(ctx, g, "db1", "db1", query.PathOptions{})
		require.NoError(t, err)
		assert.False(t, c.Next())
		assert.NoError(t, c.Err())
	})
	t.Run("unreachable produces nothing", func(t *testing.T) {
		c, err := query.AllPaths(ctx, g, "db1", "lb1", query.PathOptions{})
		require.NoError(t, err)
		assert.False(t, c.Next())
		assert.NoError(t, c.Err())
	})
	t.Run("unknown node", func(t *testing.T) {
		_, err := query.AllPaths(ctx, g, "db1", "nope", query.PathOptions{})
		var nf *gfx.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
	t.Run("negative max length", func(t *testing.T) {
		_, err := query.AllPaths(ctx, g, "lb1", "db1", query.PathOptions{MaxLength: -1})
		var ve *gfx.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestAllPathsPathsAreSimple(t *testing.T) {
	g := meshGraph(t)
	c, err := query.AllPaths(context.Background(), g, "a", "e", query.PathOptions{})
	require.NoError(t, err)
	paths, err := collect(t, c)
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		seen := map[string]bool{}
		for _, id := range path {
			assert.False(t, seen[id], "node %s repeated in %v", id, path)
			seen[id] = true
		}
		assert.Equal(t, "a", path[0])
		assert.Equal(t, "e", path[len(path)-1])
	}
}

func TestAllPathsLimit(t *testing.T) {
	// The complete graph on 6 nodes has 1+4+12+24+24 simple paths between two nodes.
	g := complete(t, 6)
	ctx := context.Background()

	t.Run("unbounded enumeration is capped", func(t *testing.T) {
		c, err := query.AllPaths(ctx, g, "0", "5", query.PathOptions{MaxPaths: 10})
		require.NoError(t, err)
		paths, err := collect(t, c)
		var le *gfx.LimitExceededError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, 10, le.Limit)
		assert.Len(t, paths, 10)
	})
	t.Run("cap equal to the total succeeds", func(t *testing.T) {
		c, err := query.AllPaths(ctx, g, "0", "5", query.PathOptions{MaxPaths: 65})
		require.NoError(t, err)
		paths, err := collect(t, c)
		require.NoError(t, err)
		assert.Len(t, paths, 65)
	})
	t.Run("a length bound lifts the cap", func(t *testing.T) {
		c, err := query.AllPaths(ctx, g, "0", "5", query.PathOptions{MaxLength: 10, MaxPaths: 10})
		require.NoError(t, err)
		paths, err := collect(t, c)
		require.NoError(t, err)
		assert.Len(t, paths, 65)
	})
	t.Run("stopping early", func(t *testing.T) {
		c, err := query.AllPaths(ctx, g, "0", "5", query.PathOptions{})
		require.NoError(t, err)
		var count int
		for range c.All() {
			count++
			if count == 3 {
				break
			}
		}
		assert.Equal(t, 3, c.Count())
	})
}

func TestAllPathsSearchBudget(t *testing.T) {
	t.Run("unreachable target in a dense graph ends at once", func(t *testing.T) {
		g := complete(t, 14)
		b := graph.NewBuilder(graph.Directed, nil, nil)
		for _, n := range g.Nodes() {
			require.NoError(t, b.AddNode(graph.NodeSpec{ID: n.ID}))
		}
		require.NoError(t, b.AddNode(graph.NodeSpec{ID: "T"}))
		for _, ed := range g.Edges() {
			require.NoError(t, b.AddEdge(graph.EdgeSpec{Source: ed.Source, Target: ed.Target}))
		}
		g, err := b.Build()
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c, err := query.AllPaths(ctx, g, "0", "T", query.PathOptions{})
		require.NoError(t, err)
		paths, err := collect(t, c)
		require.NoError(t, err)
		assert.Empty(t, paths)
	})
	t.Run("step budget stops unbounded search", func(t *testing.T) {
		g := complete(t, 10)
		c, err := query.AllPaths(context.Background(), g, "0", "9", query.PathOptions{MaxPaths: 1_000_000, MaxSteps: 1000})
		require.NoError(t, err)
		_, err = collect(t, c)
		var le *gfx.LimitExceededError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, 1000, le.Limit)
		assert.Equal(t, "path search steps", le.What)
	})
	t.Run("step budget does not apply with a length bound", func(t *testing.T) {
		g := complete(t, 6)
		c, err := query.AllPaths(context.Background(), g, "0", "5", query.PathOptions{MaxLength: 10, MaxSteps: 10})
		require.NoError(t, err)
		paths, err := collect(t, c)
		require.NoError(t, err)
		assert.Len(t, paths, 65)
	})
}

func TestAllPathsCancellation(t *testing.T) {
	g := complete(t, 8)

	t.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c, err := query.AllPaths(ctx, g, "0", "7", query.PathOptions{MaxLength: 100})
		require.NoError(t, err)
		assert.False(t, c.Next())
		assert.ErrorIs(t, c.Err(), context.Canceled)
	})
	t.Run("cancelled during enumeration", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c, err := query.AllPaths(ctx, g, "0", "7", query.PathOptions{MaxLength: 100})
		require.NoError(t, err)
		for c.Next() {
			if c.Count() == 100 {
				cancel()
			}
		}
		assert.ErrorIs(t, c.Err(), context.Canceled)
		assert.Equal(t, 100, c.Count())
	})
}
