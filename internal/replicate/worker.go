// Package replicate runs the replicate engine: a pool of workers that each
// generate random graphs, measure them and stream the values back to a
// dispatcher that collects a fixed number of them.
package replicate

import (
	"context"
	"math/rand"

	"randomnet/adapters/netstats"
	"randomnet/domain/netgraph"
	domain "randomnet/domain/replicate"
)

// Job produces one replicate value. Jobs may block; ctx is cancelled when
// the worker is forcibly terminated.
type Job func(ctx context.Context) (float64, error)

// JobFactory builds the job a worker repeats.
type JobFactory func(spec domain.WorkerSpec, rng *rand.Rand) (Job, error)

// NewJob returns the standard job for spec: generate a random projection,
// label it if the statistic needs labels, and measure it.
func NewJob(spec domain.WorkerSpec, rng *rand.Rand) (Job, error) {
	stat, err := netstats.Lookup(spec.Statistic)
	if err != nil {
		return nil, err
	}
	if err := spec.Request.Validate(spec.Statistic); err != nil {
		return nil, err
	}
	req := spec.Request
	labelled := spec.Statistic.NeedsAttributes()

	return func(ctx context.Context) (float64, error) {
		g, err := netgraph.Random(rng, req)
		if err != nil {
			return 0, err
		}
		if labelled {
			netgraph.AssignRandomLabels(g, rng, req.AttributeCardinality)
		}
		return stat.Compute(g), nil
	}, nil
}

// Work is the worker loop: check the flag, run the job, publish, repeat.
// It returns nil once the flag stops, ctx.Err() on forced termination, and
// the job's or publisher's error otherwise. Shutdown latency is one job.
func Work(ctx context.Context, flag *CancellationFlag, job Job, publish func(float64) error) error {
	for {
		if flag.Stopped() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := job(ctx)
		if err != nil {
			return err
		}
		if err := publish(v); err != nil {
			return err
		}
	}
}
