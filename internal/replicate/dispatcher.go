package replicate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"randomnet/adapters/netstats"
	"randomnet/adapters/rng"
	"randomnet/domain/core"
	domain "randomnet/domain/replicate"
	"randomnet/internal"
)

const defaultPollInterval = 50 * time.Millisecond

// ProgressFunc is told how many replicates have been collected so far.
type ProgressFunc func(collected, total int)

// Dispatcher owns one worker pool per Dispatch call.
type Dispatcher struct {
	spawner      Spawner
	logger       *internal.Logger
	progress     ProgressFunc
	pollInterval time.Duration
}

// NewDispatcher creates a dispatcher that starts workers through spawner.
func NewDispatcher(spawner Spawner, logger *internal.Logger) *Dispatcher {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Dispatcher{spawner: spawner, logger: logger, pollInterval: defaultPollInterval}
}

// OnProgress installs fn; it replaces the default progress log line.
func (d *Dispatcher) OnProgress(fn ProgressFunc) *Dispatcher {
	d.progress = fn
	return d
}

// Dispatch collects exactly opts.Replicates values of kind from
// opts.Processes workers. On every return path the pool is stopped, joined
// and, where needed, killed before Dispatch returns. The only dispatch
// failures are *core.WorkerDeathError and *core.QueueTimeoutError.
func (d *Dispatcher) Dispatch(ctx context.Context, kind domain.StatisticKind, req domain.Request, opts domain.Options) ([]float64, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := req.Validate(kind); err != nil {
		return nil, err
	}
	if _, err := netstats.Lookup(kind); err != nil {
		return nil, err
	}

	flag := NewCancellationFlag()
	q := NewQueue()
	var handles []Handle
	defer func() { d.shutdown(flag, handles, opts.Timeout) }()

	seed := rng.BaseSeed(opts.Seed)
	for i := 0; i < opts.Processes; i++ {
		spec := domain.WorkerSpec{
			Name:      core.WorkerName(i),
			Statistic: kind,
			Request:   req,
			Seed:      seed,
		}
		h, err := d.spawner.Spawn(ctx, spec, flag, q)
		if err != nil {
			return nil, fmt.Errorf("spawning %s: %w", spec.Name, err)
		}
		handles = append(handles, h)
	}
	d.logger.Info("Dispatching %d %s replicates across %d workers", opts.Replicates, kind, len(handles))

	reps := make([]float64, opts.Replicates)
	for i := range reps {
		v, err := d.next(ctx, q, handles, i, opts.Timeout)
		if err != nil {
			return nil, err
		}
		reps[i] = v
		d.report(i+1, opts)
	}
	return reps, nil
}

// next retrieves one value. The wait is cut into poll slices so a pool that
// dies mid-wait is reported as worker death rather than a timeout.
func (d *Dispatcher) next(ctx context.Context, q *Queue, handles []Handle, iteration int, timeout time.Duration) (float64, error) {
	if !anyAlive(handles) {
		return 0, d.death(iteration, handles)
	}
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, &core.QueueTimeoutError{Iteration: iteration, Timeout: timeout}
		}
		v, err := q.Get(ctx, min(remaining, d.pollInterval))
		switch {
		case err == nil:
			return v, nil
		case !errors.Is(err, ErrQueueEmpty):
			return 0, err
		}
		if !anyAlive(handles) {
			return 0, d.death(iteration, handles)
		}
	}
}

func (d *Dispatcher) death(iteration int, handles []Handle) error {
	d.logger.Error("All %d workers are dead at iteration %d", len(handles), iteration)
	return &core.WorkerDeathError{Iteration: iteration, Workers: len(handles)}
}

func (d *Dispatcher) report(collected int, opts domain.Options) {
	if opts.ProgressEvery <= 0 || collected%opts.ProgressEvery != 0 {
		return
	}
	if d.progress != nil {
		d.progress(collected, opts.Replicates)
		return
	}
	d.logger.Info("Collected %d/%d replicates", collected, opts.Replicates)
}

// shutdown stops the pool. Every handle is joined concurrently so the whole
// teardown is bounded by one timeout plus one kill wait.
func (d *Dispatcher) shutdown(flag *CancellationFlag, handles []Handle, timeout time.Duration) {
	flag.Stop()
	if len(handles) > 0 {
		d.logger.Info("Closing down %d workers", len(handles))
	}

	var g errgroup.Group
	for _, h := range handles {
		h := h
		g.Go(func() error {
			if h.Wait(timeout) {
				return nil
			}
			d.logger.Warn("Worker %s is taking too long to stop, terminating", h.Name())
			if err := h.Kill(); err != nil {
				d.logger.Error("Killing worker %s: %v", h.Name(), err)
			}
			if !h.Wait(timeout) {
				d.logger.Error("Worker %s survived termination", h.Name())
			}
			return nil
		})
	}
	_ = g.Wait()
}
