package netstats

import (
	"math"

	"randomnet/domain/netgraph"

	"gonum.org/v1/gonum/stat"
)

// Density is realized edges over possible edges, 2m/(n(n-1)). Graphs with
// fewer than two nodes have density 0.
func Density(g *netgraph.Graph) float64 {
	n := float64(g.NodeCount())
	if n <= 1 {
		return 0
	}
	m := float64(g.EdgeCount())
	return clamp(2*m/(n*(n-1)), 0, 1)
}

// AverageClustering is the weighted clustering coefficient averaged over all
// nodes, zeros included. Each triangle contributes the geometric mean of its
// three edge weights after normalising by the largest weight in the graph.
func AverageClustering(g *netgraph.Graph) float64 {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return math.NaN()
	}
	maxW := g.MaxWeight()
	norm := func(u, v int64) float64 {
		w, _ := g.Weight(u, v)
		return w / maxW
	}

	var total float64
	for _, u := range nodes {
		nbrs := g.Neighbors(u)
		d := len(nbrs)
		if d < 2 {
			continue
		}
		var triangles float64
		for i := 0; i < d; i++ {
			for j := i + 1; j < d; j++ {
				v, w := nbrs[i], nbrs[j]
				if _, ok := g.Weight(v, w); !ok {
					continue
				}
				triangles += math.Cbrt(norm(u, v) * norm(u, w) * norm(v, w))
			}
		}
		// Unordered neighbor pairs, hence 2x against d(d-1).
		total += 2 * triangles / float64(d*(d-1))
	}
	return clamp(total/float64(len(nodes)), 0, 1)
}

// MeanDegreeCentrality averages deg(v)/(n-1) over all nodes. A single node
// has centrality 1 by convention.
func MeanDegreeCentrality(g *netgraph.Graph) float64 {
	nodes := g.Nodes()
	switch len(nodes) {
	case 0:
		return math.NaN()
	case 1:
		return 1
	}
	scale := 1 / float64(len(nodes)-1)
	centrality := make([]float64, len(nodes))
	for i, id := range nodes {
		centrality[i] = float64(g.Degree(id)) * scale
	}
	return clamp(stat.Mean(centrality, nil), 0, 1)
}
