package natspusher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/a-h/gfx/graph"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPublisher is a mock implementation of the Publisher interface for testing.
type mockPublisher struct {
	messages []*nats.Msg
	// failures is the number of calls that fail before publishing succeeds.
	failures int
	calls    int
	err      error
}

func (m *mockPublisher) PublishMsg(msg *nats.Msg) error {
	m.calls++
	if m.err != nil && m.calls <= m.failures {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	schema := graph.NewSchema(graph.NodeClass)
	require.NoError(t, schema.Add(graph.AttributeDefinition{ID: "0", Title: "type", Type: graph.TypeString}))
	b := graph.NewBuilder(graph.Directed, schema, nil)
	require.NoError(t, b.AddNode(graph.NodeSpec{ID: "lb1", Label: "Load Balancer", Values: map[string]graph.Value{"0": graph.StringValue("loadbalancer")}}))
	require.NoError(t, b.AddNode(graph.NodeSpec{ID: "web.1", Label: "Web Server"}))
	w := 2.5
	require.NoError(t, b.AddEdge(graph.EdgeSpec{Source: "lb1", Target: "web.1", Weight: &w}))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestNew(t *testing.T) {
	pusher, err := New(&nats.Conn{}, Config{})
	require.NoError(t, err)
	assert.Equal(t, 3, pusher.config.MaxRetries)
	assert.Equal(t, time.Second, pusher.config.RetryDelay)

	_, err = New(nil, Config{})
	assert.EqualError(t, err, "NATS connection cannot be nil")

	_, err = NewWithPublisher(nil, Config{})
	assert.EqualError(t, err, "publisher cannot be nil")
}

func TestBuildSubject(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		graph    string
		kind     string
		id       string
		expected string
	}{
		{
			name:     "with prefix",
			prefix:   "gfx",
			graph:    "topology",
			kind:     "node",
			id:       "server1",
			expected: "gfx.topology.node.server1",
		},
		{
			name:     "without prefix",
			graph:    "topology",
			kind:     "edge",
			id:       "e0",
			expected: "topology.edge.e0",
		},
		{
			name:     "prefix dots are trimmed",
			prefix:   ".gfx.graphs.",
			graph:    "topology",
			kind:     "node",
			id:       "a",
			expected: "gfx.graphs.topology.node.a",
		},
		{
			name:     "reserved characters are replaced",
			prefix:   "gfx",
			graph:    "my graph.gexf",
			kind:     "node",
			id:       "a.b*c>d",
			expected: "gfx.my_graph_gexf.node.a_b_c_d",
		},
		{
			name:     "empty id",
			prefix:   "gfx",
			graph:    "g",
			kind:     "node",
			id:       "",
			expected: "gfx.g.node._",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pusher{config: Config{SubjectPrefix: tt.prefix}}
			assert.Equal(t, tt.expected, p.buildSubject(tt.graph, tt.kind, tt.id))
		})
	}
}

func TestWrite(t *testing.T) {
	mock := &mockPublisher{}
	pusher, err := NewWithPublisher(mock, Config{
		SubjectPrefix: "gfx",
		Headers:       nats.Header{"source": []string{"test"}},
	})
	require.NoError(t, err)
	require.NoError(t, pusher.Init(context.Background()))

	require.NoError(t, pusher.Write(context.Background(), "topology", testGraph(t)))
	require.Len(t, mock.messages, 3)

	var subjects []string
	for _, msg := range mock.messages {
		subjects = append(subjects, msg.Subject)
	}
	assert.Equal(t, []string{"gfx.topology.node.lb1", "gfx.topology.node.web_1", "gfx.topology.edge.e0"}, subjects)

	node := mock.messages[0]
	assert.Equal(t, "test", node.Header.Get("source"))
	assert.Equal(t, "topology", node.Header.Get("gfx-graph"))
	assert.Equal(t, "node", node.Header.Get("gfx-kind"))
	assert.Equal(t, "lb1", node.Header.Get("gfx-id"))
	assert.Equal(t, "0", node.Header.Get("gfx-position"))
	assert.JSONEq(t, `{"id":"lb1","label":"Load Balancer","attributes":{"type":"loadbalancer"}}`, string(node.Data))

	var edge map[string]any
	require.NoError(t, json.Unmarshal(mock.messages[2].Data, &edge))
	assert.Equal(t, "web.1", edge["target"])
	assert.Equal(t, 2.5, edge["weight"])
	assert.Equal(t, "web.1", mock.messages[1].Header.Get("gfx-id"))
}

func TestWriteMessageIDsAreDeterministic(t *testing.T) {
	first, second := &mockPublisher{}, &mockPublisher{}
	for _, mock := range []*mockPublisher{first, second} {
		pusher, err := NewWithPublisher(mock, Config{SubjectPrefix: "gfx"})
		require.NoError(t, err)
		require.NoError(t, pusher.Write(context.Background(), "topology", testGraph(t)))
	}
	seen := map[string]bool{}
	for i := range first.messages {
		id := first.messages[i].Header.Get(nats.MsgIdHdr)
		require.NotEmpty(t, id)
		assert.Equal(t, id, second.messages[i].Header.Get(nats.MsgIdHdr))
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestWriteRetries(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		mock := &mockPublisher{err: errors.New("connection reset"), failures: 2}
		pusher, err := NewWithPublisher(mock, Config{RetryDelay: time.Millisecond})
		require.NoError(t, err)

		require.NoError(t, pusher.Write(context.Background(), "g", testGraph(t)))
		assert.Len(t, mock.messages, 3)
		assert.Equal(t, 5, mock.calls)
	})
	t.Run("fails after max retries", func(t *testing.T) {
		mock := &mockPublisher{err: errors.New("connection reset"), failures: 100}
		pusher, err := NewWithPublisher(mock, Config{MaxRetries: 2, RetryDelay: time.Millisecond})
		require.NoError(t, err)

		err = pusher.Write(context.Background(), "g", testGraph(t))
		assert.ErrorContains(t, err, `failed to publish node "lb1": failed to publish after 3 attempts: connection reset`)
		assert.Equal(t, 3, mock.calls)
	})
	t.Run("stops retrying when cancelled", func(t *testing.T) {
		mock := &mockPublisher{err: errors.New("connection reset"), failures: 100}
		pusher, err := NewWithPublisher(mock, Config{RetryDelay: time.Hour})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err = pusher.Write(ctx, "g", testGraph(t))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, mock.calls)
	})
}

func TestWriteRequiresName(t *testing.T) {
	pusher, err := NewWithPublisher(&mockPublisher{}, Config{})
	require.NoError(t, err)
	assert.Error(t, pusher.Write(context.Background(), "", testGraph(t)))
}
