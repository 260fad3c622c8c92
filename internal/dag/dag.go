// SPDX-License-Identifier: MPL-2.0

// Package dag provides a small directed graph with deterministic ordering,
// topological sorting and cycle detection. It holds the materialized module
// dependency graph used for graph export and order verification.
package dag

import (
	"errors"
	"slices"
	"strings"
)

// ErrCycle is the sentinel error wrapped by CycleError.
var ErrCycle = errors.New("graph contains a cycle")

type (
	// CycleError is returned by TopologicalSort. Nodes holds every node that
	// could not be ordered; each cycle of the graph lies within it.
	CycleError struct {
		Nodes []string
	}

	// Edge is a directed edge. From must be ordered before To.
	Edge struct {
		From string
		To   string
	}

	// Graph is a directed graph over string node names that remembers
	// insertion order, so every traversal is deterministic.
	Graph struct {
		nodes []string
		index map[string]int
		out   [][]int
		edges map[Edge]struct{}
	}
)

func (e *CycleError) Error() string {
	return "graph contains a cycle among " + strings.Join(e.Nodes, ", ")
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[Edge]struct{}),
	}
}

// AddNode adds name unless it is already present.
func (g *Graph) AddNode(name string) {
	g.node(name)
}

func (g *Graph) node(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
	g.out = append(g.out, nil)
	return len(g.nodes) - 1
}

// AddEdge adds from -> to, creating missing nodes. Duplicate edges are
// ignored.
func (g *Graph) AddEdge(from, to string) {
	f, t := g.node(from), g.node(to)
	e := Edge{From: from, To: to}
	if _, dup := g.edges[e]; dup {
		return
	}
	g.edges[e] = struct{}{}
	g.out[f] = append(g.out[f], t)
}

// HasNode reports whether name is a node of the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Successors returns the targets of the edges leaving name, in insertion order.
func (g *Graph) Successors(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return g.names(g.out[i])
}

// Edges returns every edge, grouped by source node in node insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.edges))
	for f, targets := range g.out {
		for _, t := range targets {
			edges = append(edges, Edge{From: g.nodes[f], To: g.nodes[t]})
		}
	}
	return edges
}

func (g *Graph) names(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// TopologicalSort orders the nodes so that every edge points forward
// (Kahn's algorithm). Ready nodes are emitted in insertion order. A graph
// with a cycle yields a *CycleError.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	pending := make([]int, len(g.nodes))
	for _, targets := range g.out {
		for _, t := range targets {
			pending[t]++
		}
	}

	var ready []int
	for i, n := range pending {
		if n == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(g.nodes))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)
		for _, t := range g.out[i] {
			if pending[t]--; pending[t] == 0 {
				ready = append(ready, t)
			}
		}
	}

	if len(order) < len(g.nodes) {
		var stuck []string
		for i, n := range pending {
			if n > 0 {
				stuck = append(stuck, g.nodes[i])
			}
		}
		return nil, &CycleError{Nodes: stuck}
	}
	return g.names(order), nil
}

// IsOrdered reports whether order lists every node exactly once with each
// edge's source before its target.
func (g *Graph) IsOrdered(order []string) bool {
	if len(order) != len(g.nodes) {
		return false
	}
	pos := make(map[string]int, len(order))
	for i, n := range order {
		if !g.HasNode(n) {
			return false
		}
		if _, dup := pos[n]; dup {
			return false
		}
		pos[n] = i
	}
	for e := range g.edges {
		if pos[e.From] >= pos[e.To] {
			return false
		}
	}
	return true
}
