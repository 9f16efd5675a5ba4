package query

import (
	"github.com/a-h/gfx/graph"
)

// Degree counts the edges incident to a node in the direction. Parallel edges each count.
func Degree(g *graph.Graph, id string, dir graph.Direction) (int, error) {
	i, err := lookup(g, id)
	if err != nil {
		return 0, err
	}
	return g.Degree(i, dir), nil
}

// NodeDegree is the degree of one node.
type NodeDegree struct {
	Node *graph.Node
	In   int
	Out  int
	Both int
}

// Degrees returns the degrees of the given nodes.
func Degrees(g *graph.Graph, nodes []*graph.Node) []NodeDegree {
	degrees := make([]NodeDegree, len(nodes))
	for i, n := range nodes {
		degrees[i] = NodeDegree{
			Node: n,
			In:   g.Degree(n.Index(), graph.In),
			Out:  g.Degree(n.Index(), graph.Out),
			Both: g.Degree(n.Index(), graph.Both),
		}
	}
	return degrees
}

// Summary describes the size and shape of a graph.
type Summary struct {
	NodeCount     int     `json:"nodeCount"`
	EdgeCount     int     `json:"edgeCount"`
	Density       float64 `json:"density"`
	AverageDegree float64 `json:"averageDegree"`
	IsDirected    bool    `json:"isDirected"`
	SelfLoops     int     `json:"selfLoops"`
	// MultiEdges counts edges that repeat an earlier edge between the same endpoints.
	MultiEdges int `json:"multiEdges"`
}

// Stats summarizes the graph. Density is E/(n(n-1)) for directed and mixed graphs
// and 2E/(n(n-1)) for undirected graphs.
func Stats(g *graph.Graph) Summary {
	n, e := g.NodeCount(), g.EdgeCount()
	s := Summary{
		NodeCount:  n,
		EdgeCount:  e,
		IsDirected: g.Directed(),
	}
	if n > 1 {
		possible := float64(n) * float64(n-1)
		if !s.IsDirected {
			possible /= 2
		}
		s.Density = float64(e) / possible
	}
	if n > 0 {
		s.AverageDegree = 2 * float64(e) / float64(n)
	}
	type pair struct{ a, b int }
	seen := make(map[pair]bool, e)
	for _, edge := range g.Edges() {
		a, b := edge.SourceIndex(), edge.TargetIndex()
		if a == b {
			s.SelfLoops++
		}
		if !edge.Directed && a > b {
			a, b = b, a
		}
		p := pair{a, b}
		if seen[p] {
			s.MultiEdges++
		}
		seen[p] = true
	}
	return s
}

// Info describes a graph's document metadata and attribute keys.
type Info struct {
	Version         string   `json:"version"`
	Creator         string   `json:"creator,omitempty"`
	Description     string   `json:"description,omitempty"`
	Keywords        string   `json:"keywords,omitempty"`
	LastModified    string   `json:"lastModified,omitempty"`
	Mode            string   `json:"mode"`
	DefaultEdgeType string   `json:"defaultEdgeType"`
	NodeCount       int      `json:"nodeCount"`
	EdgeCount       int      `json:"edgeCount"`
	NodeAttributes  []string `json:"nodeAttributes"`
	EdgeAttributes  []string `json:"edgeAttributes"`
}

// Describe returns the graph's Info.
func Describe(g *graph.Graph) Info {
	meta := g.Meta()
	mode := meta.TimeMode
	if mode == "" {
		mode = "static"
	}
	return Info{
		Version:         meta.Version,
		Creator:         meta.Creator,
		Description:     meta.Description,
		Keywords:        meta.Keywords,
		LastModified:    meta.LastModified,
		Mode:            mode,
		DefaultEdgeType: g.Mode().String(),
		NodeCount:       g.NodeCount(),
		EdgeCount:       g.EdgeCount(),
		NodeAttributes:  g.NodeSchema().Titles(),
		EdgeAttributes:  g.EdgeSchema().Titles(),
	}
}
