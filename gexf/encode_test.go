package gexf_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/a-h/gfx/gexf"
	"github.com/a-h/gfx/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serialize(t *testing.T, g *graph.Graph, f gexf.Format) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gexf.Serialize(&buf, g, f))
	return buf.String()
}

func TestRoundTrip(t *testing.T) {
	inputs := map[string]string{
		"sample": "",
		"mixed": doc("1.3", `defaultedgetype="mixed"`, `<nodes><node id="a"/><node id="b c" label="Spaced"/></nodes>
    <edges><edge source="a" target="b c" weight="-2.5"/><edge id="x" source="b c" target="a" type="undirected" label="back"/></edges>`),
		"typed": doc("1.2", ``, `<attributes class="node">
      <attribute id="d" title="born" type="date"><default>2000-01-01</default></attribute>
      <attribute id="b" title="ok" type="boolean"/>
      <attribute id="l" title="count" type="long"/>
      <attribute id="s" title="names" type="liststring"/>
    </attributes>
    <nodes><node id="a"><attvalues>
      <attvalue for="b" value="1"/><attvalue for="l" value="9000000000"/><attvalue for="s" value="[x, y]"/>
    </attvalues></node><node id="z"><attvalues><attvalue for="d" value="2024-02-03T04:05:06Z"/></attvalues></node></nodes>`),
		"lists": doc("1.2", ``, `<attributes class="node"><attribute id="s" title="names" type="liststring"/></attributes>
    <nodes>
      <node id="a"><attvalues><attvalue for="s" value="[x|y, z]"/></attvalues></node>
      <node id="b"><attvalues><attvalue for="s" value="a,b|c"/></attvalues></node>
      <node id="c"><attvalues><attvalue for="s" value="[[x, y]]"/></attvalues></node>
    </nodes>`),
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			var original *graph.Graph
			if input == "" {
				original = loadSample(t)
			} else {
				var err error
				original, err = gexf.Parse(strings.NewReader(input))
				require.NoError(t, err)
			}

			first := serialize(t, original, gexf.FormatGEXF)
			reparsed, err := gexf.Parse(strings.NewReader(first))
			require.NoError(t, err, first)
			assert.True(t, original.Equal(reparsed), first)
			assert.Equal(t, original.Meta(), reparsed.Meta())

			second := serialize(t, reparsed, gexf.FormatGEXF)
			assert.Equal(t, first, second, "serialization should be deterministic")
		})
	}
}

func TestSerializeGEXF(t *testing.T) {
	out := serialize(t, loadSample(t), gexf.FormatGEXF)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<gexf xmlns="http://gexf.net/1.2draft" version="1.2">`)
	assert.Contains(t, out, `<graph defaultedgetype="directed" mode="static">`)
	assert.Contains(t, out, `<attribute id="1" title="weight" type="double"></attribute>`)
	assert.Contains(t, out, `<edge id="e5" source="server2" target="cache1" label="reads">`)
	assert.NotContains(t, out, "viz")
}

func TestSerializeJSON(t *testing.T) {
	g := loadSample(t)
	out := serialize(t, g, gexf.FormatJSON)

	var decoded struct {
		Mode  string `json:"mode"`
		Nodes []struct {
			ID         string         `json:"id"`
			Attributes map[string]any `json:"attributes"`
		} `json:"nodes"`
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "directed", decoded.Mode)
	require.Len(t, decoded.Nodes, 5)
	assert.Equal(t, "server1", decoded.Nodes[0].ID)
	assert.Equal(t, "server", decoded.Nodes[0].Attributes["type"])
	assert.Len(t, decoded.Edges, 6)

	t.Run("Attributes keep declaration order", func(t *testing.T) {
		n, _ := g.Node("db1")
		b, err := json.Marshal(gexf.NewNodeRecord(g, n).Attributes)
		require.NoError(t, err)
		assert.Equal(t, `{"type":"database","weight":3,"tags":["infra","storage"]}`, string(b))
	})
	t.Run("Titles that match another attribute id fall back to ids", func(t *testing.T) {
		g, err := gexf.Parse(strings.NewReader(doc("1.2", ``, `<attributes class="node">
      <attribute id="a" title="b" type="string"/>
      <attribute id="b" type="string"/>
    </attributes>
    <nodes><node id="n"><attvalues><attvalue for="a" value="first"/><attvalue for="b" value="second"/></attvalues></node></nodes>`)))
		require.NoError(t, err)
		n, _ := g.Node("n")
		b, err := json.Marshal(gexf.NewNodeRecord(g, n).Attributes)
		require.NoError(t, err)
		assert.Equal(t, `{"a":"first","b":"second"}`, string(b))
	})
}

func TestSerializeText(t *testing.T) {
	g := loadSample(t)

	t.Run("adjlist", func(t *testing.T) {
		expected := "server1 db1 cache1\nserver2 db1 cache1\ndb1\ncache1\nlb1 server1 server2\n"
		assert.Equal(t, expected, serialize(t, g, gexf.FormatAdjList))
	})
	t.Run("dot", func(t *testing.T) {
		out := serialize(t, g, gexf.FormatDot)
		assert.True(t, strings.HasPrefix(out, "digraph G {\n"))
		assert.Contains(t, out, `"server1" [label="Web Server 1"];`)
		assert.Contains(t, out, `"lb1" -> "server1" [weight=1];`)
		assert.Contains(t, out, `"server2" -> "cache1" [label="reads"];`)
	})
	t.Run("mermaid", func(t *testing.T) {
		out := serialize(t, g, gexf.FormatMermaid)
		assert.True(t, strings.HasPrefix(out, "graph LR\n"))
		assert.Contains(t, out, `n4["Load Balancer"]`)
		assert.Contains(t, out, "n4 --> n0\n")
		assert.Contains(t, out, "n1 -->|reads| n3\n")
	})
	t.Run("Quoted ids in adjacency lists", func(t *testing.T) {
		g, err := gexf.Parse(strings.NewReader(doc("1.2", ``, `<nodes><node id="a b"/><node id="c"/></nodes><edges><edge source="c" target="a b"/></edges>`)))
		require.NoError(t, err)
		assert.Equal(t, "\"a b\"\nc \"a b\"\n", serialize(t, g, gexf.FormatAdjList))
		assert.Contains(t, serialize(t, g, gexf.FormatDot), `"c" -- "a b";`)
	})
}

func TestParseFormat(t *testing.T) {
	f, err := gexf.ParseFormat("GEXF")
	require.NoError(t, err)
	assert.Equal(t, gexf.FormatGEXF, f)
	_, err = gexf.ParseFormat("graphml")
	assert.Error(t, err)
}
