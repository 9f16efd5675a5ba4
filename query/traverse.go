// Package query implements read-only queries and analyses over a graph.
package query

import (
	"container/heap"
	"math"

	"github.com/a-h/gfx"
	"github.com/a-h/gfx/graph"
)

func lookup(g *graph.Graph, id string) (int, error) {
	n, ok := g.Node(id)
	if !ok {
		return 0, gfx.NodeNotFound(id)
	}
	return n.Index(), nil
}

func nodesAt(g *graph.Graph, indices []int) []*graph.Node {
	nodes := make([]*graph.Node, len(indices))
	for i, idx := range indices {
		nodes[i] = g.NodeAt(idx)
	}
	return nodes
}

func markedNodes(g *graph.Graph, marked []bool) []*graph.Node {
	var nodes []*graph.Node
	for i, ok := range marked {
		if ok {
			nodes = append(nodes, g.NodeAt(i))
		}
	}
	return nodes
}

// Neighbors returns the distinct neighbors of a node in insertion order.
func Neighbors(g *graph.Graph, id string, dir graph.Direction) ([]*graph.Node, error) {
	i, err := lookup(g, id)
	if err != nil {
		return nil, err
	}
	return nodesAt(g, g.Adjacent(i, dir)), nil
}

// CommonNeighbors returns the nodes adjacent to both a and b in any direction,
// excluding a and b themselves.
func CommonNeighbors(g *graph.Graph, a, b string) ([]*graph.Node, error) {
	ai, err := lookup(g, a)
	if err != nil {
		return nil, err
	}
	bi, err := lookup(g, b)
	if err != nil {
		return nil, err
	}
	inA := make(map[int]bool)
	for _, n := range g.Adjacent(ai, graph.Both) {
		inA[n] = true
	}
	var common []int
	for _, n := range g.Adjacent(bi, graph.Both) {
		if inA[n] && n != ai && n != bi {
			common = append(common, n)
		}
	}
	return nodesAt(g, common), nil
}

// bfs visits nodes reachable from src in breadth-first order, expanding neighbors in
// insertion order. visit is called once per discovered node with its parent and
// depth; returning false stops the search. Nodes at maxDepth are not expanded when
// maxDepth is non-negative.
func bfs(g *graph.Graph, src int, dir graph.Direction, maxDepth int, visit func(node, parent, depth int) bool) {
	depth := make([]int, g.NodeCount())
	for i := range depth {
		depth[i] = -1
	}
	depth[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if maxDepth >= 0 && depth[current] >= maxDepth {
			continue
		}
		for _, next := range g.Adjacent(current, dir) {
			if depth[next] >= 0 {
				continue
			}
			depth[next] = depth[current] + 1
			if !visit(next, current, depth[next]) {
				return
			}
			queue = append(queue, next)
		}
	}
}

// ShortestPath finds a shortest path from source to target following edge direction.
// It returns nil when target is unreachable. Unweighted searches count hops; weighted
// searches use Dijkstra's algorithm and reject negative weights.
func ShortestPath(g *graph.Graph, source, target string, weighted bool) ([]*graph.Node, error) {
	src, err := lookup(g, source)
	if err != nil {
		return nil, err
	}
	dst, err := lookup(g, target)
	if err != nil {
		return nil, err
	}
	if weighted {
		return dijkstra(g, src, dst)
	}
	if src == dst {
		return nodesAt(g, []int{src}), nil
	}
	parent := make(map[int]int)
	found := false
	bfs(g, src, graph.Out, -1, func(node, p, _ int) bool {
		parent[node] = p
		found = node == dst
		return !found
	})
	if !found {
		return nil, nil
	}
	return nodesAt(g, unwind(parent, src, dst)), nil
}

func unwind(parent map[int]int, src, dst int) []int {
	path := []int{dst}
	for n := dst; n != src; {
		n = parent[n]
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type distItem struct {
	node int
	dist float64
}

type distQueue []distItem

func (q distQueue) Len() int { return len(q) }
func (q distQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}
func (q distQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *distQueue) Push(x any)   { *q = append(*q, x.(distItem)) }
func (q *distQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}

func checkWeights(g *graph.Graph) error {
	for _, e := range g.Edges() {
		if e.Weight < 0 || math.IsNaN(e.Weight) {
			return gfx.NewValidationError("weight", "edge %q has weight %g, weighted search requires non-negative weights", e.ID, e.Weight)
		}
	}
	return nil
}

func dijkstra(g *graph.Graph, src, dst int) ([]*graph.Node, error) {
	if err := checkWeights(g); err != nil {
		return nil, err
	}
	dist := make([]float64, g.NodeCount())
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	done := make([]bool, g.NodeCount())
	parent := make(map[int]int)
	dist[src] = 0
	pq := &distQueue{{node: src}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(distItem)
		u := item.node
		if done[u] {
			continue
		}
		done[u] = true
		if u == dst {
			return nodesAt(g, unwind(parent, src, dst)), nil
		}
		for _, ei := range g.Incident(u) {
			e := g.EdgeAt(ei)
			if !e.Traversable(u, graph.Out) {
				continue
			}
			v := e.Other(u)
			if done[v] {
				continue
			}
			if nd := dist[u] + e.Weight; nd < dist[v] {
				dist[v] = nd
				parent[v] = u
				heap.Push(pq, distItem{node: v, dist: nd})
			}
		}
	}
	return nil, nil
}

// HasPath reports whether target is reachable from source. A node always reaches itself.
func HasPath(g *graph.Graph, source, target string) (bool, error) {
	src, err := lookup(g, source)
	if err != nil {
		return false, err
	}
	dst, err := lookup(g, target)
	if err != nil {
		return false, err
	}
	if src == dst {
		return true, nil
	}
	found := false
	bfs(g, src, graph.Out, -1, func(node, _, _ int) bool {
		found = node == dst
		return !found
	})
	return found, nil
}

// Reachable returns every node reachable from source in the direction, excluding
// source itself, in insertion order.
func Reachable(g *graph.Graph, source string, dir graph.Direction) ([]*graph.Node, error) {
	src, err := lookup(g, source)
	if err != nil {
		return nil, err
	}
	seen := make([]bool, g.NodeCount())
	bfs(g, src, dir, -1, func(node, _, _ int) bool {
		seen[node] = true
		return true
	})
	seen[src] = false
	return markedNodes(g, seen), nil
}

// Ego returns the subgraph induced by the nodes within radius hops of center.
func Ego(g *graph.Graph, center string, radius int, dir graph.Direction) (*graph.Graph, error) {
	c, err := lookup(g, center)
	if err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, gfx.NewValidationError("radius", "must not be negative, got %d", radius)
	}
	members := []int{c}
	bfs(g, c, dir, radius, func(node, _, _ int) bool {
		members = append(members, node)
		return true
	})
	return g.Induced(members), nil
}

// Subgraph returns the subgraph induced by the given node ids.
func Subgraph(g *graph.Graph, ids []string) (*graph.Graph, error) {
	indices := make([]int, 0, len(ids))
	for _, id := range ids {
		i, err := lookup(g, id)
		if err != nil {
			return nil, err
		}
		indices = append(indices, i)
	}
	return g.Induced(indices), nil
}

// PathCost sums the edge weights along a path, using the lightest edge that can be
// traversed between each pair of consecutive nodes. It is +Inf when a step has no edge.
func PathCost(g *graph.Graph, path []*graph.Node) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		u, v := path[i-1].Index(), path[i].Index()
		step := math.Inf(1)
		for _, ei := range g.Incident(u) {
			e := g.EdgeAt(ei)
			if e.Traversable(u, graph.Out) && e.Other(u) == v {
				step = min(step, e.Weight)
			}
		}
		total += step
	}
	return total
}
