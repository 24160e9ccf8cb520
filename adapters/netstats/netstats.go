// Package netstats computes the scalar network measures used as replicate
// statistics. Every measure has the same shape so the replicate engine does
// not care which one it runs.
package netstats

import (
	"fmt"
	"math"

	"randomnet/domain/core"
	"randomnet/domain/netgraph"
	"randomnet/domain/replicate"
)

// Statistic computes one scalar from a projected graph. NaN is a legitimate
// result for degenerate graphs (for example a graph without edges).
type Statistic interface {
	Kind() replicate.StatisticKind
	Compute(g *netgraph.Graph) float64
}

// Range is the closed interval a finite statistic value falls in.
type Range struct {
	Min, Max float64
}

// Contains reports whether v is NaN or inside the range.
func (r Range) Contains(v float64) bool {
	return math.IsNaN(v) || (v >= r.Min && v <= r.Max)
}

type statisticFunc struct {
	kind    replicate.StatisticKind
	compute func(g *netgraph.Graph) float64
}

func (s statisticFunc) Kind() replicate.StatisticKind     { return s.kind }
func (s statisticFunc) Compute(g *netgraph.Graph) float64 { return s.compute(g) }

var registry = map[replicate.StatisticKind]Statistic{
	replicate.StatClustering:             statisticFunc{replicate.StatClustering, AverageClustering},
	replicate.StatDensity:                statisticFunc{replicate.StatDensity, Density},
	replicate.StatDegreeAssortativity:    statisticFunc{replicate.StatDegreeAssortativity, DegreeAssortativity},
	replicate.StatAttributeAssortativity: statisticFunc{replicate.StatAttributeAssortativity, AttributeAssortativity},
	replicate.StatDegreeCentrality:       statisticFunc{replicate.StatDegreeCentrality, MeanDegreeCentrality},
}

// Lookup returns the statistic registered for kind.
func Lookup(kind replicate.StatisticKind) (Statistic, error) {
	s, ok := registry[kind]
	if !ok {
		return nil, core.NewInvalidRequestError("statistic", fmt.Sprintf("%q is not registered", kind))
	}
	return s, nil
}

// RangeOf returns the value range of a statistic.
func RangeOf(kind replicate.StatisticKind) Range {
	switch kind {
	case replicate.StatDegreeAssortativity, replicate.StatAttributeAssortativity:
		return Range{Min: -1, Max: 1}
	default:
		return Range{Min: 0, Max: 1}
	}
}

// clamp pins floating point drift back into [lo, hi]; NaN passes through.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Max(lo, math.Min(hi, v))
}
