package app

import (
	"context"
	"fmt"
	"time"

	"randomnet/adapters/netstats"
	"randomnet/domain/core"
	"randomnet/domain/dataset"
	"randomnet/domain/netgraph"
	"randomnet/domain/replicate"
	"randomnet/internal"
	"randomnet/internal/profiling"
	"randomnet/ports"
)

// NullDistributionService calibrates network statistics against random
// bipartite graphs of the same size.
type NullDistributionService struct {
	dispatcher ports.ReplicateDispatcher
	reader     ports.DatasetReader
	runs       ports.RunRepository
	logger     *internal.Logger
}

// DatasetSpec points at an edge-list dataset and names its columns.
type DatasetSpec struct {
	Path   string `json:"path"`
	Top    string `json:"top"`
	Bottom string `json:"bottom"`
	// Attribute labels bottom nodes for attribute assortativity; defaults to Top.
	Attribute string `json:"attribute,omitempty"`
	// MinFrequency drops bottom values seen fewer times; 0 or 1 keeps all rows.
	MinFrequency int `json:"min_frequency"`
}

// NullRequest asks for one null distribution. Exactly one of Request and
// Dataset is set: explicit cardinalities, or a dataset to derive them from
// that also yields the observed statistic.
type NullRequest struct {
	Statistic replicate.StatisticKind
	Request   *replicate.Request
	Dataset   *DatasetSpec
	Options   replicate.Options
}

// NullResult is a stored run with its summary and, when a dataset was
// given, the significance of the observed statistic.
type NullResult struct {
	Run          *replicate.Run          `json:"run"`
	Summary      profiling.Summary       `json:"summary"`
	Significance *profiling.Significance `json:"significance,omitempty"`
	Runtime      time.Duration           `json:"runtime_ns"`
}

// NewNullDistributionService wires the service. reader may be nil when only
// explicit cardinalities are used.
func NewNullDistributionService(dispatcher ports.ReplicateDispatcher, reader ports.DatasetReader, runs ports.RunRepository, logger *internal.Logger) *NullDistributionService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &NullDistributionService{dispatcher: dispatcher, reader: reader, runs: runs, logger: logger}
}

// Run draws the null distribution, scores the observed statistic and stores the run.
func (s *NullDistributionService) Run(ctx context.Context, req NullRequest) (*NullResult, error) {
	start := time.Now()
	if _, err := netstats.Lookup(req.Statistic); err != nil {
		return nil, err
	}

	var (
		graphReq replicate.Request
		observed *float64
	)
	switch {
	case req.Request != nil && req.Dataset != nil:
		return nil, core.NewInvalidRequestError("request", "give either cardinalities or a dataset, not both")
	case req.Request != nil:
		graphReq = *req.Request
	case req.Dataset != nil:
		r, obs, err := s.fromDataset(ctx, req.Statistic, *req.Dataset)
		if err != nil {
			return nil, err
		}
		graphReq, observed = r, &obs
	default:
		return nil, core.NewInvalidRequestError("request", "needs cardinalities or a dataset")
	}

	reps, err := s.dispatcher.Dispatch(ctx, req.Statistic, graphReq, req.Options)
	if err != nil {
		return nil, err
	}

	summary, err := profiling.Summarize(reps)
	if err != nil {
		return nil, fmt.Errorf("summarizing replicates: %w", err)
	}

	run := &replicate.Run{
		ID:         core.NewRunID(),
		Statistic:  req.Statistic,
		Request:    graphReq,
		Processes:  req.Options.Processes,
		Replicates: replicate.Values(reps),
		CreatedAt:  time.Now().UTC(),
	}
	result := &NullResult{Run: run, Summary: summary}
	if observed != nil {
		sig := profiling.Score(reps, summary, *observed)
		result.Significance = &sig
		run.Observed = replicate.Nullable(sig.Observed)
		run.PValue = replicate.Nullable(sig.PValue)
	}

	if s.runs != nil {
		if err := s.runs.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("saving run %s: %w", run.ID, err)
		}
	}
	result.Runtime = time.Since(start)
	s.logger.Info("Run %s: %d %s replicates in %s", run.ID, len(reps), req.Statistic, result.Runtime.Round(time.Millisecond))
	return result, nil
}

// fromDataset derives the graph request and the observed statistic.
func (s *NullDistributionService) fromDataset(ctx context.Context, kind replicate.StatisticKind, spec DatasetSpec) (replicate.Request, float64, error) {
	if s.reader == nil {
		return replicate.Request{}, 0, core.NewInvalidRequestError("dataset", "no dataset reader configured")
	}
	if spec.Top == "" || spec.Bottom == "" {
		return replicate.Request{}, 0, core.NewInvalidRequestError("dataset", "top and bottom columns are required")
	}

	table, err := s.reader.ReadTable(ctx, spec.Path)
	if err != nil {
		return replicate.Request{}, 0, err
	}
	if err := table.RequireColumns(spec.Top, spec.Bottom, spec.Attribute); err != nil {
		return replicate.Request{}, 0, err
	}
	shrunk := table.ShrinkBy(spec.Bottom, spec.MinFrequency)
	s.logger.Debug("Dataset %s: %d of %d rows kept at min frequency %d", spec.Path, len(shrunk.Rows), len(table.Rows), spec.MinFrequency)

	req, err := shrunk.Cardinalities(spec.Top, spec.Bottom, spec.Attribute)
	if err != nil {
		return replicate.Request{}, 0, err
	}
	obs, err := ObservedStatistic(kind, shrunk, spec)
	if err != nil {
		return replicate.Request{}, 0, err
	}
	return req, obs, nil
}

// ObservedStatistic measures the dataset's own projection the same way
// workers measure random ones.
func ObservedStatistic(kind replicate.StatisticKind, table *dataset.Table, spec DatasetSpec) (float64, error) {
	stat, err := netstats.Lookup(kind)
	if err != nil {
		return 0, err
	}
	b := netgraph.FromEdgeList(table.Pairs(spec.Top, spec.Bottom))
	if err := b.Validate(); err != nil {
		return 0, err
	}
	g := b.Project()
	if kind.NeedsAttributes() {
		attr := spec.Attribute
		if attr == "" {
			attr = spec.Top
		}
		netgraph.LabelByName(g, table.ModalCategories(spec.Bottom, attr))
	}
	return stat.Compute(g), nil
}

// Get loads a stored run.
func (s *NullDistributionService) Get(ctx context.Context, id core.RunID) (*replicate.Run, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	return s.runs.Get(ctx, id)
}

// List returns the most recent runs.
func (s *NullDistributionService) List(ctx context.Context, limit int) ([]*replicate.Run, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.List(ctx, limit)
}
