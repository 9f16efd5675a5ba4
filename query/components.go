package query

import (
	"slices"

	"github.com/a-h/gfx/graph"
)

// ConnectedComponents partitions the nodes into components. With strong set on a
// directed or mixed graph, components are strongly connected; otherwise edge direction
// is ignored. Components are ordered by their earliest node and list their members in
// insertion order.
func ConnectedComponents(g *graph.Graph, strong bool) [][]*graph.Node {
	var groups [][]int
	if strong && g.Directed() {
		groups = tarjan(g)
	} else {
		groups = weakComponents(g)
	}
	for _, group := range groups {
		slices.Sort(group)
	}
	slices.SortFunc(groups, func(a, b []int) int { return a[0] - b[0] })
	components := make([][]*graph.Node, len(groups))
	for i, group := range groups {
		components[i] = nodesAt(g, group)
	}
	return components
}

func weakComponents(g *graph.Graph) [][]int {
	label := make([]int, g.NodeCount())
	for i := range label {
		label[i] = -1
	}
	var groups [][]int
	for start := range g.NodeCount() {
		if label[start] >= 0 {
			continue
		}
		id := len(groups)
		label[start] = id
		group := []int{start}
		bfs(g, start, graph.Both, -1, func(node, _, _ int) bool {
			label[node] = id
			group = append(group, node)
			return true
		})
		groups = append(groups, group)
	}
	return groups
}

// tarjanFrame replaces the recursive call stack of Tarjan's algorithm so that deep
// graphs cannot overflow the goroutine stack.
type tarjanFrame struct {
	node  int
	next  int
	child int
}

func tarjan(g *graph.Graph) [][]int {
	n := g.NodeCount()
	index := make([]int, n)
	lowLink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var (
		counter int
		stack   []int
		groups  [][]int
	)
	for start := range n {
		if index[start] >= 0 {
			continue
		}
		calls := []tarjanFrame{{node: start, child: -1}}
		index[start], lowLink[start] = counter, counter
		counter++
		stack = append(stack, start)
		onStack[start] = true

		for len(calls) > 0 {
			frame := &calls[len(calls)-1]
			if frame.child >= 0 {
				lowLink[frame.node] = min(lowLink[frame.node], lowLink[frame.child])
				frame.child = -1
			}
			adjacent := g.Adjacent(frame.node, graph.Out)
			descended := false
			for frame.next < len(adjacent) {
				w := adjacent[frame.next]
				frame.next++
				if index[w] < 0 {
					frame.child = w
					index[w], lowLink[w] = counter, counter
					counter++
					stack = append(stack, w)
					onStack[w] = true
					calls = append(calls, tarjanFrame{node: w, child: -1})
					descended = true
					break
				}
				if onStack[w] {
					lowLink[frame.node] = min(lowLink[frame.node], index[w])
				}
			}
			if descended {
				continue
			}
			v := frame.node
			if lowLink[v] == index[v] {
				var group []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					group = append(group, w)
					if w == v {
						break
					}
				}
				groups = append(groups, group)
			}
			calls = calls[:len(calls)-1]
		}
	}
	return groups
}
