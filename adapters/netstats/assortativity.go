package netstats

import (
	"math"

	"randomnet/domain/netgraph"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DegreeAssortativity is the Pearson correlation between the weighted
// degrees (strengths) at either end of every edge, each edge counted in both
// orientations. It is NaN without edges or when all strengths are equal.
func DegreeAssortativity(g *netgraph.Graph) float64 {
	edges := g.Edges()
	if len(edges) == 0 {
		return math.NaN()
	}
	strength := make(map[int64]float64)
	for _, e := range edges {
		strength[e.U] += e.Weight
		strength[e.V] += e.Weight
	}

	x := make([]float64, 0, 2*len(edges))
	y := make([]float64, 0, 2*len(edges))
	for _, e := range edges {
		x = append(x, strength[e.U], strength[e.V])
		y = append(y, strength[e.V], strength[e.U])
	}
	if constant(x) {
		return math.NaN()
	}
	return clamp(stat.Correlation(x, y, nil), -1, 1)
}

// AttributeAssortativity is the categorical assortativity coefficient of the
// node labels, (tr(e) - sum(a_i*b_i)) / (1 - sum(a_i*b_i)) where e is the
// normalised mixing matrix over both orientations of every edge. Edges with
// an unlabelled endpoint are ignored.
func AttributeAssortativity(g *netgraph.Graph) float64 {
	index := make(map[int]int)
	for _, id := range g.Nodes() {
		if l, ok := g.Label(id); ok {
			if _, seen := index[l]; !seen {
				index[l] = len(index)
			}
		}
	}
	if len(index) == 0 {
		return math.NaN()
	}

	k := len(index)
	mix := mat.NewDense(k, k, nil)
	var total float64
	for _, e := range g.Edges() {
		lu, okU := g.Label(e.U)
		lv, okV := g.Label(e.V)
		if !okU || !okV {
			continue
		}
		i, j := index[lu], index[lv]
		mix.Set(i, j, mix.At(i, j)+1)
		mix.Set(j, i, mix.At(j, i)+1)
		total += 2
	}
	if total == 0 {
		return math.NaN()
	}
	mix.Scale(1/total, mix)

	var ab float64
	for i := 0; i < k; i++ {
		ab += mat.Sum(mix.RowView(i)) * mat.Sum(mix.ColView(i))
	}
	// Every edge in one category: 0/0, the coefficient is undefined.
	if math.Abs(1-ab) < 1e-12 {
		return math.NaN()
	}
	return clamp((mat.Trace(mix)-ab)/(1-ab), -1, 1)
}

func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
