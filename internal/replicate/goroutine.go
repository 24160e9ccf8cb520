package replicate

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "randomnet/domain/replicate"
	"randomnet/internal"
	"randomnet/ports"
)

// GoroutineSpawner runs workers as goroutines in the calling process. A panic
// or error inside a worker is contained at the worker boundary and only ends
// that worker. Kill cancels the worker's context; a job that ignores its
// context keeps running until it returns.
type GoroutineSpawner struct {
	streams ports.RNGPort
	jobs    JobFactory
	logger  *internal.Logger
}

// NewGoroutineSpawner builds a spawner; a nil factory means NewJob.
func NewGoroutineSpawner(streams ports.RNGPort, jobs JobFactory, logger *internal.Logger) *GoroutineSpawner {
	if jobs == nil {
		jobs = NewJob
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &GoroutineSpawner{streams: streams, jobs: jobs, logger: logger}
}

// killGrace is how long Kill waits for a cancelled goroutine to return.
const killGrace = 100 * time.Millisecond

type goroutineHandle struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	logger *internal.Logger
}

func (h *goroutineHandle) Name() string                    { return h.name }
func (h *goroutineHandle) Alive() bool                     { return !isClosed(h.done) }
func (h *goroutineHandle) Wait(timeout time.Duration) bool { return waitDone(h.done, timeout) }

// Kill cancels the worker's context. A job that ignores its context cannot
// be preempted and keeps the goroutine alive.
func (h *goroutineHandle) Kill() error {
	h.cancel()
	if !waitDone(h.done, killGrace) {
		h.logger.Warn("Worker %s ignores cancellation and cannot be preempted; it is still running", h.name)
	}
	return nil
}

// Spawn starts one worker goroutine.
func (s *GoroutineSpawner) Spawn(ctx context.Context, spec domain.WorkerSpec, flag *CancellationFlag, q *Queue) (Handle, error) {
	rng, err := s.streams.SeededStream(ctx, spec.Name, spec.Seed)
	if err != nil {
		return nil, fmt.Errorf("seeding %s: %w", spec.Name, err)
	}
	job, err := s.jobs(spec, rng)
	if err != nil {
		return nil, fmt.Errorf("building job for %s: %w", spec.Name, err)
	}

	// The worker outlives ctx on purpose: only the dispatcher ends it.
	wctx, cancel := context.WithCancel(context.Background())
	h := &goroutineHandle{name: spec.Name, cancel: cancel, done: make(chan struct{}), logger: s.logger}

	go func() {
		defer close(h.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Worker %s crashed: %v", spec.Name, r)
			}
		}()

		err := Work(wctx, flag, job, func(v float64) error {
			q.Put(v)
			return nil
		})
		switch {
		case err == nil:
			s.logger.Debug("Worker %s stopped", spec.Name)
		case errors.Is(err, context.Canceled):
			s.logger.Debug("Worker %s terminated", spec.Name)
		default:
			s.logger.Error("Worker %s failed: %v", spec.Name, err)
		}
	}()
	return h, nil
}
