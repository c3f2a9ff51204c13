// Package toposort provides a small directed graph with topological sorting
// and cycle reporting. It backs the compile-time cycle check over utility
// rule references.
package toposort

import "sort"

// Graph is a directed graph over string-named nodes.
type Graph struct {
	nodes map[string]struct{}
	edges map[string]map[string]struct{}
}

// NewGraph initializes an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]struct{}),
		edges: make(map[string]map[string]struct{}),
	}
}

// AddNode inserts a node. Returns false when the node already exists.
func (g *Graph) AddNode(name string) bool {
	if _, exists := g.nodes[name]; exists {
		return false
	}

	g.nodes[name] = struct{}{}

	return true
}

// AddEdge inserts the link from "from" to "to", adding missing nodes.
func (g *Graph) AddEdge(from, to string) {
	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}

	if g.edges[from] == nil {
		g.edges[from] = make(map[string]struct{})
	}

	g.edges[from][to] = struct{}{}
}

// FindChildren returns the other ends of outgoing edges, sorted.
func (g *Graph) FindChildren(from string) []string {
	children := make([]string, 0, len(g.edges[from]))
	for to := range g.edges[from] {
		children = append(children, to)
	}

	sort.Strings(children)

	return children
}

// Toposort sorts the nodes in topological order using Kahn's algorithm.
// The second return value is false when the graph contains a cycle.
// Ties are broken lexicographically so the order is deterministic.
func (g *Graph) Toposort() ([]string, bool) {
	inDegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		inDegree[name] = 0
	}

	for _, targets := range g.edges {
		for to := range targets {
			inDegree[to]++
		}
	}

	queue := make([]string, 0, len(g.nodes))

	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	sort.Strings(queue)

	result := make([]string, 0, len(g.nodes))

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)

		children := g.FindChildren(name)

		ready := make([]string, 0, len(children))

		for _, to := range children {
			inDegree[to]--
			if inDegree[to] == 0 {
				ready = append(ready, to)
			}
		}

		queue = mergeSorted(queue, ready)
	}

	return result, len(result) == len(g.nodes)
}

// FindCycle returns one cycle reachable from seed, or nil when none exists.
// The returned path lists the cycle members in traversal order without
// repeating the closing node.
func (g *Graph) FindCycle(seed string) []string {
	if _, exists := g.nodes[seed]; !exists {
		return nil
	}

	const (
		unvisited = iota
		inStack
		done
	)

	state := make(map[string]int, len(g.nodes))
	stack := []string{}

	var cycle []string

	var visit func(name string) bool

	visit = func(name string) bool {
		state[name] = inStack
		stack = append(stack, name)

		for _, to := range g.FindChildren(name) {
			switch state[to] {
			case inStack:
				for i, member := range stack {
					if member == to {
						cycle = append(cycle, stack[i:]...)
						break
					}
				}

				return true
			case unvisited:
				if visit(to) {
					return true
				}
			}
		}

		state[name] = done
		stack = stack[:len(stack)-1]

		return false
	}

	visit(seed)

	return cycle
}

// mergeSorted merges two sorted string slices into one sorted slice.
func mergeSorted(a, b []string) []string {
	if len(b) == 0 {
		return a
	}

	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0

	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}

	out = append(out, a[i:]...)
	out = append(out, b[j:]...)

	return out
}
