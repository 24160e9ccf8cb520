package netstats

import (
	"math"
	"math/rand"
	"testing"

	"randomnet/domain/netgraph"
	"randomnet/domain/replicate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphOf(edges ...netgraph.Edge) *netgraph.Graph {
	g := netgraph.NewGraph()
	for _, e := range edges {
		g.SetWeight(e.U, e.V, e.Weight)
	}
	return g
}

func TestDensity(t *testing.T) {
	tests := []struct {
		name string
		g    *netgraph.Graph
		want float64
	}{
		{"triangle", graphOf(netgraph.Edge{U: 0, V: 1, Weight: 1}, netgraph.Edge{U: 1, V: 2, Weight: 1}, netgraph.Edge{U: 0, V: 2, Weight: 1}), 1},
		{"path", graphOf(netgraph.Edge{U: 0, V: 1, Weight: 1}, netgraph.Edge{U: 1, V: 2, Weight: 3}), 2.0 / 3.0},
		{"empty", netgraph.NewGraph(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Density(tt.g), 1e-12)
		})
	}

	isolated := netgraph.NewGraph()
	for i := int64(0); i < 4; i++ {
		isolated.AddNode(i)
	}
	assert.Equal(t, 0.0, Density(isolated))
}

func TestAverageClustering(t *testing.T) {
	unit := graphOf(netgraph.Edge{U: 0, V: 1, Weight: 1}, netgraph.Edge{U: 1, V: 2, Weight: 1}, netgraph.Edge{U: 0, V: 2, Weight: 1})
	assert.InDelta(t, 1.0, AverageClustering(unit), 1e-12)

	weighted := graphOf(netgraph.Edge{U: 0, V: 1, Weight: 2}, netgraph.Edge{U: 1, V: 2, Weight: 2}, netgraph.Edge{U: 0, V: 2, Weight: 1})
	assert.InDelta(t, math.Cbrt(0.5), AverageClustering(weighted), 1e-12)

	path := graphOf(netgraph.Edge{U: 0, V: 1, Weight: 1}, netgraph.Edge{U: 1, V: 2, Weight: 1})
	assert.Equal(t, 0.0, AverageClustering(path))

	// Zeros count: a triangle plus an isolated node averages to 3/4.
	withIsolate := graphOf(netgraph.Edge{U: 0, V: 1, Weight: 1}, netgraph.Edge{U: 1, V: 2, Weight: 1}, netgraph.Edge{U: 0, V: 2, Weight: 1})
	withIsolate.AddNode(9)
	assert.InDelta(t, 0.75, AverageClustering(withIsolate), 1e-12)

	assert.True(t, math.IsNaN(AverageClustering(netgraph.NewGraph())))
}

func TestDegreeAssortativity(t *testing.T) {
	path := graphOf(netgraph.Edge{U: 0, V: 1, Weight: 1}, netgraph.Edge{U: 1, V: 2, Weight: 1})
	assert.InDelta(t, -1.0, DegreeAssortativity(path), 1e-12)

	star := graphOf(netgraph.Edge{U: 0, V: 1, Weight: 1}, netgraph.Edge{U: 0, V: 2, Weight: 1}, netgraph.Edge{U: 0, V: 3, Weight: 1})
	assert.InDelta(t, -1.0, DegreeAssortativity(star), 1e-12)

	regular := graphOf(netgraph.Edge{U: 0, V: 1, Weight: 1}, netgraph.Edge{U: 1, V: 2, Weight: 1}, netgraph.Edge{U: 0, V: 2, Weight: 1})
	assert.True(t, math.IsNaN(DegreeAssortativity(regular)), "equal strengths have no variance")

	empty := netgraph.NewGraph()
	empty.AddNode(1)
	assert.True(t, math.IsNaN(DegreeAssortativity(empty)))
}

func TestAttributeAssortativity(t *testing.T) {
	labelled := func(labels map[int64]int, edges ...netgraph.Edge) *netgraph.Graph {
		g := graphOf(edges...)
		for id, l := range labels {
			g.SetLabel(id, l)
		}
		return g
	}
	e01 := netgraph.Edge{U: 0, V: 1, Weight: 1}
	e23 := netgraph.Edge{U: 2, V: 3, Weight: 1}

	tests := []struct {
		name    string
		g       *netgraph.Graph
		want    float64
		wantNaN bool
	}{
		{"perfectly assortative", labelled(map[int64]int{0: 0, 1: 0, 2: 1, 3: 1}, e01, e23), 1, false},
		{"perfectly disassortative", labelled(map[int64]int{0: 0, 1: 1, 2: 0, 3: 1}, e01, e23), -1, false},
		{"single category", labelled(map[int64]int{0: 2, 1: 2, 2: 2, 3: 2}, e01, e23), 0, true},
		{"no edges", labelled(map[int64]int{0: 0}), 0, true},
		{"no labels", graphOf(e01, e23), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttributeAssortativity(tt.g)
			if tt.wantNaN {
				assert.True(t, math.IsNaN(got), "got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestMeanDegreeCentrality(t *testing.T) {
	path := graphOf(netgraph.Edge{U: 0, V: 1, Weight: 1}, netgraph.Edge{U: 1, V: 2, Weight: 5})
	assert.InDelta(t, 2.0/3.0, MeanDegreeCentrality(path), 1e-12)

	single := netgraph.NewGraph()
	single.AddNode(4)
	assert.Equal(t, 1.0, MeanDegreeCentrality(single))
	assert.True(t, math.IsNaN(MeanDegreeCentrality(netgraph.NewGraph())))
}

func TestLookup(t *testing.T) {
	for _, kind := range replicate.AllStatistics() {
		s, err := Lookup(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, s.Kind())
	}
	_, err := Lookup("betweenness")
	assert.Error(t, err)
}

func TestStatisticsStayInRangeOnRandomGraphs(t *testing.T) {
	req := replicate.Request{TopN: 5, BottomN: 8, EdgeN: 12, AttributeCardinality: 3}
	rng := rand.New(rand.NewSource(2024))

	for _, kind := range replicate.AllStatistics() {
		s, err := Lookup(kind)
		require.NoError(t, err)
		r := RangeOf(kind)
		for i := 0; i < 200; i++ {
			g, err := netgraph.Random(rng, req)
			require.NoError(t, err)
			if kind.NeedsAttributes() {
				netgraph.AssignRandomLabels(g, rng, req.AttributeCardinality)
			}
			v := s.Compute(g)
			assert.True(t, r.Contains(v), "%s produced %v outside [%v, %v]", kind, v, r.Min, r.Max)
		}
	}
}
