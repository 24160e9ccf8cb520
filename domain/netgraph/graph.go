// Package netgraph holds the graphs that replicate workers build and measure:
// random bipartite graphs, reference graphs built from edge lists, and their
// weighted one-mode projections.
package netgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Edge is one weighted undirected edge with U < V.
type Edge struct {
	U, V   int64
	Weight float64
}

// Graph is a weighted undirected graph with optional categorical node labels.
// A Graph is owned by the goroutine that built it and is not safe for
// concurrent mutation.
type Graph struct {
	g      *simple.WeightedUndirectedGraph
	labels map[int64]int
	names  map[int64]string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		g:      simple.NewWeightedUndirectedGraph(0, 0),
		labels: make(map[int64]int),
	}
}

// AddNode adds id if it is not already present.
func (g *Graph) AddNode(id int64) {
	if g.g.Node(id) == nil {
		g.g.AddNode(simple.Node(id))
	}
}

// SetWeight creates or replaces the edge u-v. Self loops are ignored.
func (g *Graph) SetWeight(u, v int64, w float64) {
	if u == v {
		return
	}
	g.AddNode(u)
	g.AddNode(v)
	g.g.SetWeightedEdge(g.g.NewWeightedEdge(simple.Node(u), simple.Node(v), w))
}

// Weight returns the weight of u-v and whether the edge exists.
func (g *Graph) Weight(u, v int64) (float64, bool) {
	if u == v || !g.g.HasEdgeBetween(u, v) {
		return 0, false
	}
	return g.g.WeightedEdge(u, v).Weight(), true
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return count(g.g.Nodes())
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return count(g.g.Edges())
}

// Nodes returns node IDs in ascending order.
func (g *Graph) Nodes() []int64 {
	return sortedIDs(g.g.Nodes())
}

// Neighbors returns the neighbors of id in ascending order.
func (g *Graph) Neighbors(id int64) []int64 {
	if g.g.Node(id) == nil {
		return nil
	}
	return sortedIDs(g.g.From(id))
}

// Degree returns the number of neighbors of id.
func (g *Graph) Degree(id int64) int {
	if g.g.Node(id) == nil {
		return 0
	}
	return count(g.g.From(id))
}

// Strength returns the sum of edge weights incident to id.
func (g *Graph) Strength(id int64) float64 {
	var s float64
	for _, nb := range g.Neighbors(id) {
		w, _ := g.Weight(id, nb)
		s += w
	}
	return s
}

// Edges returns every edge once, ordered by (U, V).
func (g *Graph) Edges() []Edge {
	it := g.g.WeightedEdges()
	var edges []Edge
	for it.Next() {
		e := it.WeightedEdge()
		u, v := e.From().ID(), e.To().ID()
		if u > v {
			u, v = v, u
		}
		edges = append(edges, Edge{U: u, V: v, Weight: e.Weight()})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].U != edges[j].U {
			return edges[i].U < edges[j].U
		}
		return edges[i].V < edges[j].V
	})
	return edges
}

// MaxWeight returns the largest edge weight, or 1 for an edgeless graph.
func (g *Graph) MaxWeight() float64 {
	max := 0.0
	for _, e := range g.Edges() {
		if e.Weight > max {
			max = e.Weight
		}
	}
	if max == 0 {
		return 1
	}
	return max
}

// Label returns the categorical label of id.
func (g *Graph) Label(id int64) (int, bool) {
	l, ok := g.labels[id]
	return l, ok
}

// SetLabel assigns a categorical label to id.
func (g *Graph) SetLabel(id int64, label int) {
	g.labels[id] = label
}

// Name returns the dataset value a node was built from, if any.
func (g *Graph) Name(id int64) (string, bool) {
	n, ok := g.names[id]
	return n, ok
}

// Weighted exposes the underlying gonum graph for read-only algorithms.
func (g *Graph) Weighted() graph.WeightedUndirected {
	return g.g
}

func sortedIDs(it graph.Nodes) []int64 {
	var ids []int64
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// count drains an iterator; gonum iterators may report a negative Len.
func count(it graph.Iterator) int {
	if n := it.Len(); n >= 0 {
		return n
	}
	n := 0
	for it.Next() {
		n++
	}
	return n
}
