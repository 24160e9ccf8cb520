// Package dataset models the tabular edge list a null distribution is
// calibrated against: one row per top-bottom incidence plus categorical columns.
package dataset

import (
	"fmt"
	"sort"

	"randomnet/domain/core"
	"randomnet/domain/netgraph"
	"randomnet/domain/replicate"
)

// DefaultMinFrequency drops bottom values seen fewer than three times.
const DefaultMinFrequency = 3

// Row maps header names to trimmed cell values.
type Row map[string]string

// Table is a header plus rows, in file order.
type Table struct {
	Headers []string
	Rows    []Row
}

// HasColumn reports whether name is one of the headers.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// RequireColumns fails on the first header that is missing.
func (t *Table) RequireColumns(names ...string) error {
	for _, n := range names {
		if n == "" {
			continue
		}
		if !t.HasColumn(n) {
			return core.NewInvalidRequestError("column", fmt.Sprintf("%q not found in dataset", n))
		}
	}
	return nil
}

// ShrinkBy keeps only rows whose value in column occurs at least minFreq
// times. A minFreq of 1 or less keeps every row.
func (t *Table) ShrinkBy(column string, minFreq int) *Table {
	if minFreq <= 1 {
		return t
	}
	counts := make(map[string]int)
	for _, r := range t.Rows {
		counts[r[column]]++
	}
	kept := &Table{Headers: t.Headers}
	for _, r := range t.Rows {
		if counts[r[column]] >= minFreq {
			kept.Rows = append(kept.Rows, r)
		}
	}
	return kept
}

// Pairs returns one pair per row with both values present, duplicates included.
func (t *Table) Pairs(top, bottom string) []netgraph.Pair {
	pairs := make([]netgraph.Pair, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r[top] == "" || r[bottom] == "" {
			continue
		}
		pairs = append(pairs, netgraph.Pair{Top: r[top], Bottom: r[bottom]})
	}
	return pairs
}

// Cardinalities derives the replicate request of a dataset: the distinct top
// and bottom values, the distinct top-bottom edges, and the distinct values of
// the attribute column (the top column when attribute is empty).
func (t *Table) Cardinalities(top, bottom, attribute string) (replicate.Request, error) {
	if attribute == "" {
		attribute = top
	}
	if err := t.RequireColumns(top, bottom, attribute); err != nil {
		return replicate.Request{}, err
	}

	tops := make(map[string]struct{})
	bottoms := make(map[string]struct{})
	edges := make(map[netgraph.Pair]struct{})
	attrs := make(map[string]struct{})
	for _, r := range t.Rows {
		if r[top] == "" || r[bottom] == "" {
			continue
		}
		tops[r[top]] = struct{}{}
		bottoms[r[bottom]] = struct{}{}
		edges[netgraph.Pair{Top: r[top], Bottom: r[bottom]}] = struct{}{}
		if v := r[attribute]; v != "" {
			attrs[v] = struct{}{}
		}
	}
	if len(edges) == 0 {
		return replicate.Request{}, core.NewInvalidRequestError("dataset", "has no complete top/bottom rows")
	}

	return replicate.Request{
		TopN:                 len(tops),
		BottomN:              len(bottoms),
		EdgeN:                len(edges),
		AttributeCardinality: len(attrs),
	}, nil
}

// ModalCategories returns, for every bottom value, its most frequent
// attribute value. Ties go to the lexically smallest value.
func (t *Table) ModalCategories(bottom, attribute string) map[string]string {
	counts := make(map[string]map[string]int)
	for _, r := range t.Rows {
		b, a := r[bottom], r[attribute]
		if b == "" || a == "" {
			continue
		}
		if counts[b] == nil {
			counts[b] = make(map[string]int)
		}
		counts[b][a]++
	}

	modes := make(map[string]string, len(counts))
	for b, c := range counts {
		values := make([]string, 0, len(c))
		for v := range c {
			values = append(values, v)
		}
		sort.Strings(values)
		best := values[0]
		for _, v := range values[1:] {
			if c[v] > c[best] {
				best = v
			}
		}
		modes[b] = best
	}
	return modes
}
