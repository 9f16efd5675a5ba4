package query_test

import (
	"testing"

	"github.com/a-h/gfx/graph"
	"github.com/stretchr/testify/require"
)

type edge struct {
	source, target string
	weight         float64
}

func e(source, target string) edge { return edge{source: source, target: target} }

func we(source, target string, weight float64) edge {
	return edge{source: source, target: target, weight: weight}
}

func newGraph(t *testing.T, mode graph.Mode, nodes []string, edges ...edge) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(mode, nil, nil)
	for _, id := range nodes {
		require.NoError(t, b.AddNode(graph.NodeSpec{ID: id, Label: id}))
	}
	for _, ed := range edges {
		spec := graph.EdgeSpec{Source: ed.source, Target: ed.target}
		if ed.weight != 0 {
			w := ed.weight
			spec.Weight = &w
		}
		require.NoError(t, b.AddEdge(spec))
	}
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

// cycleGraph is A→B→C→D→A.
func cycleGraph(t *testing.T) *graph.Graph {
	return newGraph(t, graph.Directed, []string{"A", "B", "C", "D"},
		e("A", "B"), e("B", "C"), e("C", "D"), e("D", "A"))
}

// sampleGraph is a small service topology: a load balancer in front of two servers
// that use a database and a cache.
func sampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	nodeSchema := graph.NewSchema(graph.NodeClass)
	require.NoError(t, nodeSchema.Add(graph.AttributeDefinition{ID: "0", Title: "type", Type: graph.TypeString}))
	require.NoError(t, nodeSchema.Add(graph.AttributeDefinition{ID: "1", Title: "weight", Type: graph.TypeFloat}))
	require.NoError(t, nodeSchema.Add(graph.AttributeDefinition{ID: "2", Title: "tags", Type: graph.TypeListString, Default: graph.ListValue([]string{"infra"})}))
	edgeSchema := graph.NewSchema(graph.EdgeClass)
	require.NoError(t, edgeSchema.Add(graph.AttributeDefinition{ID: "0", Title: "relationship", Type: graph.TypeString}))

	b := graph.NewBuilder(graph.Directed, nodeSchema, edgeSchema)
	b.SetMeta(graph.Metadata{Version: "1.2", Creator: "GFX Test Suite", TimeMode: "static"})
	nodes := []struct {
		id, label, kind string
		weight          float64
		tags            []string
	}{
		{"server1", "Web Server 1", "server", 1.0, nil},
		{"server2", "Web Server 2", "server", 2.0, nil},
		{"db1", "Database", "database", 3.0, []string{"infra", "storage"}},
		{"cache1", "Cache", "cache", 1.5, nil},
		{"lb1", "Load Balancer", "loadbalancer", 1.0, nil},
	}
	for _, n := range nodes {
		values := map[string]graph.Value{
			"0": graph.StringValue(n.kind),
			"1": graph.FloatValue(n.weight),
		}
		if n.tags != nil {
			values["2"] = graph.ListValue(n.tags)
		}
		require.NoError(t, b.AddNode(graph.NodeSpec{ID: n.id, Label: n.label, Values: values}))
	}
	edges := []struct {
		id, source, target, rel, label string
		weight                         float64
	}{
		{"e0", "lb1", "server1", "routes", "", 1},
		{"e1", "lb1", "server2", "routes", "", 1},
		{"e2", "server1", "db1", "queries", "", 2},
		{"e3", "server2", "db1", "queries", "", 2},
		{"e4", "server1", "cache1", "reads", "", 0.5},
		{"e5", "server2", "cache1", "reads", "reads", 0},
	}
	for _, ed := range edges {
		spec := graph.EdgeSpec{
			ID:     ed.id,
			Source: ed.source,
			Target: ed.target,
			Label:  ed.label,
			Values: map[string]graph.Value{"0": graph.StringValue(ed.rel)},
		}
		if ed.weight != 0 {
			w := ed.weight
			spec.Weight = &w
		}
		require.NoError(t, b.AddEdge(spec))
	}
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func ids[T interface{ *graph.Node | *graph.Edge }](items []T) []string {
	out := []string{}
	for _, item := range items {
		switch v := any(item).(type) {
		case *graph.Node:
			out = append(out, v.ID)
		case *graph.Edge:
			out = append(out, v.ID)
		}
	}
	return out
}
