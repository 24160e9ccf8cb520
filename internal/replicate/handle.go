package replicate

import (
	"context"
	"time"

	domain "randomnet/domain/replicate"
)

// Handle is the dispatcher's view of one running worker.
type Handle interface {
	Name() string
	Alive() bool
	// Wait blocks until the worker exits or timeout elapses and reports
	// whether it exited.
	Wait(timeout time.Duration) bool
	// Kill terminates the worker without waiting for it to notice the flag.
	Kill() error
}

// Spawner starts workers that publish into q until flag stops.
type Spawner interface {
	Spawn(ctx context.Context, spec domain.WorkerSpec, flag *CancellationFlag, q *Queue) (Handle, error)
}

func anyAlive(handles []Handle) bool {
	for _, h := range handles {
		if h.Alive() {
			return true
		}
	}
	return false
}

func waitDone(done <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func isClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}
