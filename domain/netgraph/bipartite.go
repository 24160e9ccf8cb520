package netgraph

import (
	"fmt"
	"math/rand"
	"sort"

	"randomnet/domain/core"
	"randomnet/domain/replicate"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Bipartite is an unweighted two-mode graph. Top nodes are projected away;
// Bottom nodes are the nodes of the projection.
type Bipartite struct {
	Graph  *simple.UndirectedGraph
	Top    []int64
	Bottom []int64
	names  map[int64]string
}

// EdgeCount returns the number of top-bottom edges.
func (b *Bipartite) EdgeCount() int {
	return count(b.Graph.Edges())
}

// GenerateBipartite draws a graph uniformly from all bipartite graphs with
// topN top nodes, bottomN bottom nodes and exactly edgeN edges. Top nodes get
// IDs 0..topN-1 and bottom nodes topN..topN+bottomN-1.
func GenerateBipartite(rng *rand.Rand, topN, bottomN, edgeN int) (*Bipartite, error) {
	req := replicate.Request{TopN: topN, BottomN: bottomN, EdgeN: edgeN}
	if err := req.Validate(replicate.StatDensity); err != nil {
		return nil, err
	}

	g := simple.NewUndirectedGraph()
	b := &Bipartite{
		Graph:  g,
		Top:    make([]int64, topN),
		Bottom: make([]int64, bottomN),
	}
	for i := 0; i < topN; i++ {
		b.Top[i] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for j := 0; j < bottomN; j++ {
		b.Bottom[j] = int64(topN + j)
		g.AddNode(simple.Node(topN + j))
	}

	for _, cell := range sampleCells(rng, req.MaxEdges(), edgeN) {
		top := int64(cell / bottomN)
		bottom := int64(topN + cell%bottomN)
		g.SetEdge(g.NewEdge(simple.Node(top), simple.Node(bottom)))
	}
	return b, nil
}

// sampleCells picks k distinct values from [0, n) uniformly (Floyd's
// algorithm) and returns them sorted so edge insertion order is reproducible.
func sampleCells(rng *rand.Rand, n, k int) []int {
	chosen := make(map[int]struct{}, k)
	for j := n - k; j < n; j++ {
		t := rng.Intn(j + 1)
		if _, dup := chosen[t]; dup {
			chosen[j] = struct{}{}
		} else {
			chosen[t] = struct{}{}
		}
	}
	cells := make([]int, 0, k)
	for c := range chosen {
		cells = append(cells, c)
	}
	sort.Ints(cells)
	return cells
}

// EdgeGraph is an undirected graph that can enumerate its edges.
type EdgeGraph interface {
	graph.Undirected
	Edges() graph.Edges
}

// IsBipartite two-colours every component breadth first and reports whether
// any edge joins nodes of the same colour.
func IsBipartite(g EdgeGraph) bool {
	colour := make(map[int64]int)
	var bf traverse.BreadthFirst
	nodes := g.Nodes()
	for nodes.Next() {
		n := nodes.Node()
		if bf.Visited(n) {
			continue
		}
		bf.Walk(g, n, func(v graph.Node, depth int) bool {
			colour[v.ID()] = depth % 2
			return false
		})
	}

	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge()
		if colour[e.From().ID()] == colour[e.To().ID()] {
			return false
		}
	}
	return true
}

// Validate checks that the graph is bipartite and that every edge joins the
// declared top set to the declared bottom set.
func (b *Bipartite) Validate() error {
	if !IsBipartite(b.Graph) {
		return core.NewInvariantError("graph is not bipartite")
	}
	top := make(map[int64]bool, len(b.Top))
	for _, id := range b.Top {
		top[id] = true
	}
	for _, id := range b.Bottom {
		if top[id] {
			return core.NewInvariantError(fmt.Sprintf("node %s is in both node sets", b.nodeName(id)))
		}
	}
	edges := b.Graph.Edges()
	for edges.Next() {
		e := edges.Edge()
		if top[e.From().ID()] == top[e.To().ID()] {
			return core.NewInvariantError(fmt.Sprintf("edge %s-%s stays inside one node set",
				b.nodeName(e.From().ID()), b.nodeName(e.To().ID())))
		}
	}
	return nil
}

// Project builds the weighted projection onto the bottom nodes: two bottom
// nodes are joined when they share a top neighbor, weighted by how many they share.
// Every bottom node is kept, isolated or not.
func (b *Bipartite) Project() *Graph {
	p := NewGraph()
	if b.names != nil {
		p.names = make(map[int64]string, len(b.Bottom))
	}
	for _, id := range b.Bottom {
		p.AddNode(id)
		if b.names != nil {
			p.names[id] = b.names[id]
		}
	}

	type pair struct{ u, v int64 }
	shared := make(map[pair]float64)
	for _, t := range b.Top {
		nbrs := sortedIDs(b.Graph.From(t))
		for i := 0; i < len(nbrs); i++ {
			for j := i + 1; j < len(nbrs); j++ {
				shared[pair{nbrs[i], nbrs[j]}]++
			}
		}
	}
	for k, w := range shared {
		p.SetWeight(k.u, k.v, w)
	}
	return p
}

func (b *Bipartite) nodeName(id int64) string {
	if name, ok := b.names[id]; ok {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("%d", id)
}

// Random generates one random bipartite graph for req, checks it, and returns
// its projection onto the bottom nodes. A failed check is an
// ErrInvariantViolation and must not be retried.
func Random(rng *rand.Rand, req replicate.Request) (*Graph, error) {
	b, err := GenerateBipartite(rng, req.TopN, req.BottomN, req.EdgeN)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b.Project(), nil
}

// AssignRandomLabels gives every node an independent uniform label in [0, k).
func AssignRandomLabels(g *Graph, rng *rand.Rand, k int) {
	for _, id := range g.Nodes() {
		g.SetLabel(id, rng.Intn(k))
	}
}
