package core

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// ErrInvalidRequest rejects replicate parameters before any worker is spawned.
	ErrInvalidRequest = errors.New("invalid replicate request")

	// ErrInvariantViolation marks a structurally broken graph, e.g. a generated
	// graph that is not bipartite. It is never retried.
	ErrInvariantViolation = errors.New("graph invariant violated")

	// Fatal dispatch outcomes
	ErrWorkerDeath  = errors.New("all worker processes are dead")
	ErrQueueTimeout = errors.New("timed out waiting for a replicate")
)

// WorkerDeathError reports that no worker was alive before the requested
// replicate count was reached.
type WorkerDeathError struct {
	Iteration int
	Workers   int
}

func (e *WorkerDeathError) Error() string {
	return fmt.Sprintf("%v: %d workers, iteration %d", ErrWorkerDeath, e.Workers, e.Iteration)
}

func (e *WorkerDeathError) Unwrap() error { return ErrWorkerDeath }

// QueueTimeoutError reports that no replicate arrived within the timeout window.
type QueueTimeoutError struct {
	Iteration int
	Timeout   time.Duration
}

func (e *QueueTimeoutError) Error() string {
	return fmt.Sprintf("%v: waited %s at iteration %d", ErrQueueTimeout, e.Timeout, e.Iteration)
}

func (e *QueueTimeoutError) Unwrap() error { return ErrQueueTimeout }

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInvalidRequestError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidRequest, field, reason)
}

func NewInvariantError(what string) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, what)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDispatchFailure reports whether err is one of the two fatal dispatch errors.
func IsDispatchFailure(err error) bool {
	return errors.Is(err, ErrWorkerDeath) || errors.Is(err, ErrQueueTimeout)
}
