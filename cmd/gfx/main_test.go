package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/sqlitesink"
	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zombiezen.com/go/sqlite/sqlitex"
)

const sample = "../../gexf/testdata/sample.gexf"

type runner interface {
	Run(ctx context.Context, g GlobalFlags) error
}

func run(t *testing.T, g GlobalFlags, cmd runner) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	g.out = &buf
	err := cmd.Run(context.Background(), g)
	return buf.String(), err
}

func runJSON(t *testing.T, g GlobalFlags, cmd runner, v any) {
	t.Helper()
	g.Format = "json"
	out, err := run(t, g, cmd)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

type record struct {
	ID string `json:"id"`
}

func recordIDs(records []record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
		code int
	}{
		{name: "success", err: nil, kind: "", code: 0},
		{name: "other", err: errors.New("boom"), kind: "error", code: 1},
		{name: "parse", err: gfx.NewParseError(gfx.ParseSyntax, "bad"), kind: "parse", code: 2},
		{name: "not found", err: fmt.Errorf("neighbors: %w", gfx.NodeNotFound("x")), kind: "not found", code: 3},
		{name: "validation", err: gfx.NewValidationError("radius", "negative"), kind: "validation", code: 4},
		{name: "limit", err: &gfx.LimitExceededError{Limit: 10, What: "paths"}, kind: "limit exceeded", code: 5},
		{name: "convergence", err: &gfx.ConvergenceError{Iterations: 100}, kind: "convergence", code: 6},
		{name: "interrupted", err: fmt.Errorf("centrality: %w", context.Canceled), kind: "interrupted", code: 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, code := classify(tt.err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestGraphName(t *testing.T) {
	assert.Equal(t, "sample", graphName("testdata/sample.gexf"))
	assert.Equal(t, "network.v2", graphName("/tmp/network.v2.gexf"))
	assert.Equal(t, "stdin", graphName("-"))
}

func TestYAMLConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\nmax-paths: 50\nlog_level: debug\n"), 0o644))

	t.Run("supplies defaults", func(t *testing.T) {
		var cli CLI
		parser, err := kong.New(&cli, kong.Configuration(yamlConfig, path))
		require.NoError(t, err)
		kctx, err := parser.Parse([]string{"stats", sample})
		require.NoError(t, err)
		assert.Equal(t, "stats <file>", kctx.Command())
		assert.Equal(t, "json", cli.Format)
		assert.Equal(t, 50, cli.MaxPaths)
		assert.Equal(t, "debug", cli.LogLevel)
		assert.Equal(t, 100, cli.MaxIterations)
	})
	t.Run("flags take precedence", func(t *testing.T) {
		var cli CLI
		parser, err := kong.New(&cli, kong.Configuration(yamlConfig, path))
		require.NoError(t, err)
		_, err = parser.Parse([]string{"--format", "table", "stats", sample})
		require.NoError(t, err)
		assert.Equal(t, "table", cli.Format)
		assert.Equal(t, 50, cli.MaxPaths)
	})
	t.Run("config flag", func(t *testing.T) {
		var cli CLI
		parser, err := kong.New(&cli, kong.Configuration(yamlConfig))
		require.NoError(t, err)
		_, err = parser.Parse([]string{"--config", path, "stats", sample})
		require.NoError(t, err)
		assert.Equal(t, 50, cli.MaxPaths)
	})
	t.Run("empty documents are allowed", func(t *testing.T) {
		_, err := yamlConfig(strings.NewReader(""))
		assert.NoError(t, err)
	})
	t.Run("invalid documents are rejected", func(t *testing.T) {
		_, err := yamlConfig(strings.NewReader("format: [json"))
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "info", "json")
	log.Debug("hidden")
	log.Info("shown", "nodes", 5)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"nodes":5`)

	buf.Reset()
	log = newLogger(&buf, "nonsense", "text")
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestLoad(t *testing.T) {
	t.Run("rejects a version mismatch", func(t *testing.T) {
		_, err := GlobalFlags{GexfVersion: "1.3"}.Load(sample)
		var parseErr *gfx.ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, gfx.ParseVersion, parseErr.Kind)
	})
	t.Run("malformed documents are parse errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.gexf")
		require.NoError(t, os.WriteFile(path, []byte("<gexf><graph>"), 0o644))
		_, err := GlobalFlags{}.Load(path)
		_, code := classify(err)
		assert.Equal(t, exitParse, code)
	})
	t.Run("missing files", func(t *testing.T) {
		_, err := GlobalFlags{}.Load(filepath.Join(t.TempDir(), "missing.gexf"))
		_, code := classify(err)
		assert.Equal(t, exitError, code)
	})
}

func TestInfo(t *testing.T) {
	var info struct {
		Version         string   `json:"version"`
		DefaultEdgeType string   `json:"defaultEdgeType"`
		NodeCount       int      `json:"nodeCount"`
		EdgeCount       int      `json:"edgeCount"`
		NodeAttributes  []string `json:"nodeAttributes"`
	}
	runJSON(t, GlobalFlags{}, &InfoCommand{File: sample}, &info)
	assert.Equal(t, "1.2", info.Version)
	assert.Equal(t, "directed", info.DefaultEdgeType)
	assert.Equal(t, 5, info.NodeCount)
	assert.Equal(t, 6, info.EdgeCount)
	assert.Equal(t, []string{"tags", "type", "weight"}, info.NodeAttributes)

	out, err := run(t, GlobalFlags{Format: "table"}, &InfoCommand{File: sample})
	require.NoError(t, err)
	assert.Contains(t, out, "default edge type")
	assert.Contains(t, out, "tags, type, weight")
}

func TestMeta(t *testing.T) {
	var meta map[string]string
	runJSON(t, GlobalFlags{}, &MetaCommand{File: sample}, &meta)
	assert.Equal(t, "GFX Test Suite", meta["creator"])
	assert.Equal(t, "2024-01-15", meta["lastModified"])
}

func TestNodes(t *testing.T) {
	tests := []struct {
		name     string
		g        GlobalFlags
		cmd      NodesCommand
		expected []string
	}{
		{
			name:     "all nodes in file order",
			cmd:      NodesCommand{},
			expected: []string{"server1", "server2", "db1", "cache1", "lb1"},
		},
		{
			name:     "attribute shorthand",
			cmd:      NodesCommand{MatchFlags: MatchFlags{Attr: map[string]string{"type": "server"}}},
			expected: []string{"server1", "server2"},
		},
		{
			name:     "label glob",
			cmd:      NodesCommand{MatchFlags: MatchFlags{Label: "Web*"}},
			expected: []string{"server1", "server2"},
		},
		{
			name:     "filter, sort and page",
			g:        GlobalFlags{Filter: "weight > 1"},
			cmd:      NodesCommand{Sort: "weight", Desc: true, Limit: 2},
			expected: []string{"db1", "server2"},
		},
		{
			name:     "filter combined with shorthand",
			g:        GlobalFlags{Filter: "weight >= 1.5"},
			cmd:      NodesCommand{MatchFlags: MatchFlags{Attr: map[string]string{"type": "server"}}},
			expected: []string{"server2"},
		},
		{
			name:     "offset past the end",
			cmd:      NodesCommand{Offset: 10},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.File = sample
			var records []record
			runJSON(t, tt.g, &tt.cmd, &records)
			assert.Equal(t, tt.expected, recordIDs(records))
		})
	}
	t.Run("table", func(t *testing.T) {
		out, err := run(t, GlobalFlags{Format: "table"}, &NodesCommand{File: sample, MatchFlags: MatchFlags{Label: "Data*"}})
		require.NoError(t, err)
		assert.Contains(t, out, "db1")
		assert.Contains(t, out, "infra|storage")
		assert.NotContains(t, out, "server1")
	})
	t.Run("invalid filter", func(t *testing.T) {
		_, err := run(t, GlobalFlags{Filter: "colour = red"}, &NodesCommand{File: sample})
		_, code := classify(err)
		assert.Equal(t, exitValidation, code)
	})
}

func TestEdges(t *testing.T) {
	var records []record
	runJSON(t, GlobalFlags{}, &EdgesCommand{File: sample, EdgeMatchFlags: EdgeMatchFlags{Source: "server2"}}, &records)
	assert.Equal(t, []string{"e3", "e5"}, recordIDs(records))

	records = nil
	runJSON(t, GlobalFlags{Filter: "relationship = reads"}, &EdgesCommand{File: sample, Sort: "weight"}, &records)
	assert.Equal(t, []string{"e4", "e5"}, recordIDs(records))

	records = nil
	runJSON(t, GlobalFlags{}, &EdgesCommand{File: sample, EdgeMatchFlags: EdgeMatchFlags{Target: "db1", Type: "directed"}}, &records)
	assert.Equal(t, []string{"e2", "e3"}, recordIDs(records))
}

func TestNeighbors(t *testing.T) {
	var records []record
	runJSON(t, GlobalFlags{}, &NeighborsCommand{File: sample, ID: "server1", Direction: "out"}, &records)
	assert.Equal(t, []string{"db1", "cache1"}, recordIDs(records))

	records = nil
	runJSON(t, GlobalFlags{Filter: "type = cache"}, &NeighborsCommand{File: sample, ID: "server1", Direction: "both"}, &records)
	assert.Equal(t, []string{"cache1"}, recordIDs(records))

	_, err := run(t, GlobalFlags{}, &NeighborsCommand{File: sample, ID: "missing", Direction: "out"})
	_, code := classify(err)
	assert.Equal(t, exitNotFound, code)
}

func TestPath(t *testing.T) {
	var result pathResult
	runJSON(t, GlobalFlags{}, &PathCommand{File: sample, Source: "lb1", Target: "cache1"}, &result)
	assert.True(t, result.Found)
	assert.Equal(t, []string{"lb1", "server1", "cache1"}, result.Path)
	assert.Equal(t, 2, result.Length)
	assert.Nil(t, result.Cost)

	result = pathResult{}
	runJSON(t, GlobalFlags{}, &PathCommand{File: sample, Source: "lb1", Target: "cache1", Weighted: true}, &result)
	require.NotNil(t, result.Cost)
	assert.Equal(t, 1.5, *result.Cost)

	out, err := run(t, GlobalFlags{Format: "table"}, &PathCommand{File: sample, Source: "db1", Target: "lb1"})
	require.NoError(t, err)
	assert.Equal(t, "no path from db1 to lb1\n", out)

	out, err = run(t, GlobalFlags{Format: "table"}, &PathCommand{File: sample, Source: "lb1", Target: "db1"})
	require.NoError(t, err)
	assert.Equal(t, "lb1 -> server1 -> db1\nlength: 2\n", out)
}

func TestAllPaths(t *testing.T) {
	var paths [][]string
	runJSON(t, GlobalFlags{}, &AllPathsCommand{File: sample, Source: "lb1", Target: "db1"}, &paths)
	assert.Equal(t, [][]string{{"lb1", "server1", "db1"}, {"lb1", "server2", "db1"}}, paths)

	paths = nil
	runJSON(t, GlobalFlags{}, &AllPathsCommand{File: sample, Source: "lb1", Target: "db1", MaxLength: 1}, &paths)
	assert.Empty(t, paths)

	_, err := run(t, GlobalFlags{MaxPaths: 1}, &AllPathsCommand{File: sample, Source: "lb1", Target: "db1"})
	_, code := classify(err)
	assert.Equal(t, exitLimit, code)
}

func TestHasPath(t *testing.T) {
	out, err := run(t, GlobalFlags{Format: "table"}, &HasPathCommand{File: sample, Source: "lb1", Target: "cache1"})
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	var result map[string]any
	runJSON(t, GlobalFlags{}, &HasPathCommand{File: sample, Source: "db1", Target: "lb1"}, &result)
	assert.Equal(t, false, result["hasPath"])
}

func TestReachableAndCommonNeighbors(t *testing.T) {
	var records []record
	runJSON(t, GlobalFlags{}, &ReachableCommand{File: sample, ID: "server1", Direction: "out"}, &records)
	assert.Equal(t, []string{"db1", "cache1"}, recordIDs(records))

	records = nil
	runJSON(t, GlobalFlags{}, &ReachableCommand{File: sample, ID: "db1", Direction: "in"}, &records)
	assert.Equal(t, []string{"server1", "server2", "lb1"}, recordIDs(records))

	records = nil
	runJSON(t, GlobalFlags{}, &CommonNeighborsCommand{File: sample, A: "server1", B: "server2"}, &records)
	assert.Equal(t, []string{"db1", "cache1", "lb1"}, recordIDs(records))
}

func TestStats(t *testing.T) {
	var s map[string]any
	runJSON(t, GlobalFlags{}, &StatsCommand{File: sample}, &s)
	assert.Equal(t, 5.0, s["nodeCount"])
	assert.Equal(t, 6.0, s["edgeCount"])
	assert.InDelta(t, 0.3, s["density"], 1e-12)
	assert.InDelta(t, 2.4, s["averageDegree"], 1e-12)
	assert.Equal(t, true, s["isDirected"])
}

func TestCentrality(t *testing.T) {
	var scores []scoreRecord
	runJSON(t, GlobalFlags{}, &CentralityCommand{File: sample, Metric: "degree"}, &scores)
	require.Len(t, scores, 5)
	assert.Equal(t, "server1", scores[0].ID)
	assert.InDelta(t, 0.75, scores[0].Score, 1e-12)

	scores = nil
	runJSON(t, GlobalFlags{}, &CentralityCommand{File: sample, Metric: "degree", Top: 2}, &scores)
	assert.Equal(t, []string{"server1", "server2"}, []string{scores[0].ID, scores[1].ID})

	scores = nil
	runJSON(t, GlobalFlags{Filter: "type = database"}, &CentralityCommand{File: sample, Metric: "betweenness"}, &scores)
	require.Len(t, scores, 1)
	assert.Equal(t, "db1", scores[0].ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&CentralityCommand{File: sample, Metric: "closeness"}).Run(ctx, GlobalFlags{out: &bytes.Buffer{}})
	_, code := classify(err)
	assert.Equal(t, exitInterrupted, code)
}

func TestComponentsAndDegree(t *testing.T) {
	var components [][]string
	runJSON(t, GlobalFlags{}, &ComponentsCommand{File: sample}, &components)
	assert.Equal(t, [][]string{{"server1", "server2", "db1", "cache1", "lb1"}}, components)

	components = nil
	runJSON(t, GlobalFlags{}, &ComponentsCommand{File: sample, Strong: true}, &components)
	assert.Len(t, components, 5)

	out, err := run(t, GlobalFlags{Format: "table"}, &DegreeCommand{File: sample, ID: "server1", Direction: "out"})
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	var degrees []degreeRecord
	runJSON(t, GlobalFlags{Filter: "type = server"}, &DegreeCommand{File: sample, Direction: "both"}, &degrees)
	assert.Equal(t, []degreeRecord{
		{ID: "server1", In: 1, Out: 2, Both: 3},
		{ID: "server2", In: 1, Out: 2, Both: 3},
	}, degrees)
}

func TestEgoAndSubgraph(t *testing.T) {
	out, err := run(t, GlobalFlags{}, &SubgraphCommand{File: sample, IDs: []string{"lb1", "server1"}, SerializeFlags: SerializeFlags{To: "adjlist"}})
	require.NoError(t, err)
	assert.Equal(t, "server1\nlb1 server1\n", out)

	var sub struct {
		Nodes []record `json:"nodes"`
		Edges []record `json:"edges"`
	}
	runJSON(t, GlobalFlags{}, &EgoCommand{File: sample, ID: "cache1", Radius: 1, Direction: "both"}, &sub)
	assert.Equal(t, []string{"server1", "server2", "cache1"}, recordIDs(sub.Nodes))
	assert.Equal(t, []string{"e4", "e5"}, recordIDs(sub.Edges))

	_, err = run(t, GlobalFlags{}, &EgoCommand{File: sample, ID: "cache1", Radius: -1, Direction: "both"})
	_, code := classify(err)
	assert.Equal(t, exitValidation, code)

	_, err = run(t, GlobalFlags{}, &SubgraphCommand{File: sample, IDs: []string{"lb1"}, SerializeFlags: SerializeFlags{To: "png"}})
	_, code = classify(err)
	assert.Equal(t, exitValidation, code)
}

func TestExport(t *testing.T) {
	t.Run("file formats", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sample.dot")
		out, err := run(t, GlobalFlags{}, &ExportCommand{File: sample, To: "dot", Output: path})
		require.NoError(t, err)
		assert.Empty(t, out)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "digraph"))
	})
	t.Run("sqlite", func(t *testing.T) {
		connection := "file:" + filepath.Join(t.TempDir(), "gfx.db") + "?mode=rwc"
		cmd := &ExportCommand{File: sample, To: "sqlite", Connection: connection}
		_, err := run(t, GlobalFlags{}, cmd)
		require.NoError(t, err)
		_, err = run(t, GlobalFlags{}, cmd)
		require.NoError(t, err)

		pool, err := sqlitex.NewPool(connection, sqlitex.PoolOptions{})
		require.NoError(t, err)
		defer pool.Close()
		s := sqlitesink.New(nil, pool)
		graphs, err := s.Graphs(context.Background())
		require.NoError(t, err)
		require.Len(t, graphs, 1)
		assert.Equal(t, "sample", graphs[0].Name)
		assert.Equal(t, 5, graphs[0].NodeCount)
		edges, err := s.QueryScalarInt64(context.Background(), "select count(*) from gexf_edge where graph = :graph", map[string]any{":graph": "sample"})
		require.NoError(t, err)
		assert.Equal(t, 6, edges)
	})
}
