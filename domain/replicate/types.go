package replicate

import (
	"fmt"
	"math"
	"strings"
	"time"

	"randomnet/domain/core"
)

// StatisticKind names a statistic computed on every random graph.
type StatisticKind string

const (
	StatClustering             StatisticKind = "clustering"
	StatDensity                StatisticKind = "density"
	StatDegreeAssortativity    StatisticKind = "degree-assortativity"
	StatAttributeAssortativity StatisticKind = "attribute-assortativity"
	StatDegreeCentrality       StatisticKind = "degree-centrality"
)

// AllStatistics lists every supported statistic in display order.
func AllStatistics() []StatisticKind {
	return []StatisticKind{
		StatClustering,
		StatDensity,
		StatDegreeAssortativity,
		StatAttributeAssortativity,
		StatDegreeCentrality,
	}
}

// ParseStatisticKind parses a statistic name, case-insensitively.
func ParseStatisticKind(s string) (StatisticKind, error) {
	kind := StatisticKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatistics() {
		if kind == known {
			return kind, nil
		}
	}
	return "", core.NewInvalidRequestError("statistic", fmt.Sprintf("%q is not supported", s))
}

// NeedsAttributes reports whether the statistic labels nodes before computing.
func (k StatisticKind) NeedsAttributes() bool {
	return k == StatAttributeAssortativity
}

// Hard bounds on a single dispatch call. Servers may impose tighter ones.
const (
	MaxNodes      = 1 << 22
	MaxEdgeCount  = 1 << 26
	MaxProcesses  = 1024
	MaxReplicates = 100_000_000
)

// Request is the immutable parameter set of a dispatch call.
type Request struct {
	TopN                 int `json:"top_n" db:"top_n"`
	BottomN              int `json:"bottom_n" db:"bottom_n"`
	EdgeN                int `json:"edge_n" db:"edge_n"`
	AttributeCardinality int `json:"attribute_cardinality,omitempty" db:"attribute_cardinality"`
}

// MaxEdges is the number of possible top-bottom edges, or -1 when that
// count does not fit in an int.
func (r Request) MaxEdges() int {
	if r.TopN <= 0 || r.BottomN <= 0 {
		return 0
	}
	if r.TopN > math.MaxInt/r.BottomN {
		return -1
	}
	return r.TopN * r.BottomN
}

// Validate checks the graph parameters against the statistic that will consume them.
func (r Request) Validate(kind StatisticKind) error {
	if r.TopN < 1 {
		return core.NewInvalidRequestError("top_n", "must be positive")
	}
	if r.BottomN < 1 {
		return core.NewInvalidRequestError("bottom_n", "must be positive")
	}
	if r.TopN > MaxNodes {
		return core.NewInvalidRequestError("top_n", fmt.Sprintf("must be at most %d", MaxNodes))
	}
	if r.BottomN > MaxNodes {
		return core.NewInvalidRequestError("bottom_n", fmt.Sprintf("must be at most %d", MaxNodes))
	}
	maxEdges := r.MaxEdges()
	if maxEdges < 0 {
		return core.NewInvalidRequestError("edge_n", "top_n times bottom_n overflows")
	}
	if r.EdgeN < 0 || r.EdgeN > maxEdges {
		return core.NewInvalidRequestError("edge_n", fmt.Sprintf("must be within [0, %d]", maxEdges))
	}
	if r.EdgeN > MaxEdgeCount {
		return core.NewInvalidRequestError("edge_n", fmt.Sprintf("must be at most %d", MaxEdgeCount))
	}
	if kind.NeedsAttributes() && r.AttributeCardinality < 1 {
		return core.NewInvalidRequestError("attribute_cardinality", "is required for attribute assortativity")
	}
	if r.AttributeCardinality < 0 {
		return core.NewInvalidRequestError("attribute_cardinality", "must not be negative")
	}
	return nil
}

// Options controls the worker pool of one dispatch call.
type Options struct {
	Replicates    int
	Processes     int
	Timeout       time.Duration
	ProgressEvery int
	Seed          int64
}

// Validate checks the pool parameters.
func (o Options) Validate() error {
	if o.Replicates < 1 {
		return core.NewInvalidRequestError("replicates", "must be positive")
	}
	if o.Replicates > MaxReplicates {
		return core.NewInvalidRequestError("replicates", fmt.Sprintf("must be at most %d", MaxReplicates))
	}
	if o.Processes < 1 {
		return core.NewInvalidRequestError("processes", "must be positive")
	}
	if o.Processes > MaxProcesses {
		return core.NewInvalidRequestError("processes", fmt.Sprintf("must be at most %d", MaxProcesses))
	}
	if o.Timeout <= 0 {
		return core.NewInvalidRequestError("timeout", "must be positive")
	}
	return nil
}

// WorkerSpec is everything one worker needs to produce replicates.
type WorkerSpec struct {
	Name      string        `json:"name"`
	Statistic StatisticKind `json:"statistic"`
	Request   Request       `json:"request"`
	Seed      int64         `json:"seed"`
}

// Run is a completed null distribution together with its observed value.
type Run struct {
	ID         core.RunID    `json:"id"`
	Statistic  StatisticKind `json:"statistic"`
	Request    Request       `json:"request"`
	Processes  int           `json:"processes"`
	Replicates Values        `json:"replicates"`
	Observed   *float64      `json:"observed,omitempty"`
	PValue     *float64      `json:"p_value,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
