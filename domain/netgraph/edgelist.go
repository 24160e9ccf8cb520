package netgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// Pair is one row of an edge list: a top value and a bottom value.
type Pair struct {
	Top    string
	Bottom string
}

// FromEdgeList builds the reference two-mode graph of a dataset. Values share
// one namespace, so a value that occurs in both columns becomes a single node
// and the graph fails Validate. Duplicate pairs collapse into one edge.
func FromEdgeList(pairs []Pair) *Bipartite {
	g := simple.NewUndirectedGraph()
	b := &Bipartite{Graph: g, names: make(map[int64]string)}

	ids := make(map[string]int64)
	node := func(name string) int64 {
		if id, ok := ids[name]; ok {
			return id
		}
		id := int64(len(ids))
		ids[name] = id
		b.names[id] = name
		g.AddNode(simple.Node(id))
		return id
	}

	topSeen := make(map[int64]bool)
	bottomSeen := make(map[int64]bool)
	for _, p := range pairs {
		t, u := node(p.Top), node(p.Bottom)
		if !topSeen[t] {
			topSeen[t] = true
			b.Top = append(b.Top, t)
		}
		if !bottomSeen[u] {
			bottomSeen[u] = true
			b.Bottom = append(b.Bottom, u)
		}
		if t != u {
			g.SetEdge(g.NewEdge(simple.Node(t), simple.Node(u)))
		}
	}
	sort.Slice(b.Top, func(i, j int) bool { return b.Top[i] < b.Top[j] })
	sort.Slice(b.Bottom, func(i, j int) bool { return b.Bottom[i] < b.Bottom[j] })
	return b
}

// LabelByName assigns categorical labels to named nodes. Categories are
// numbered in ascending order of their value so the numbering is stable.
// It returns the number of distinct categories.
func LabelByName(g *Graph, categories map[string]string) int {
	values := make(map[string]int)
	for _, v := range categories {
		values[v] = 0
	}
	sorted := make([]string, 0, len(values))
	for v := range values {
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)
	for i, v := range sorted {
		values[v] = i
	}

	for _, id := range g.Nodes() {
		name, ok := g.Name(id)
		if !ok {
			continue
		}
		if category, ok := categories[name]; ok {
			g.SetLabel(id, values[category])
		}
	}
	return len(sorted)
}
