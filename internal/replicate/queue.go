package replicate

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueEmpty is returned by Get when nothing arrived within the timeout.
var ErrQueueEmpty = errors.New("replicate queue: no result within timeout")

// Queue is an unbounded multi-producer, single-consumer FIFO of replicate
// values. Put never blocks; Get blocks for at most its timeout.
type Queue struct {
	mu    sync.Mutex
	items []float64
	ready chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Put enqueues v without blocking.
func (q *Queue) Put(v float64) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Get dequeues the oldest value, waiting up to timeout for one to arrive.
func (q *Queue) Get(ctx context.Context, timeout time.Duration) (float64, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if v, ok := q.pop(); ok {
			return v, nil
		}
		select {
		case <-q.ready:
		case <-timer.C:
			// A Put may have landed between pop and the timer firing.
			if v, ok := q.pop(); ok {
				return v, nil
			}
			return 0, ErrQueueEmpty
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Len returns the number of queued values.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) pop() (float64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return 0, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return v, true
}
