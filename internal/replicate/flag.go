package replicate

import (
	"sync"
	"sync/atomic"
)

// CancellationFlag is the shared stop signal of one dispatch call. It moves
// from running to stopped exactly once and never back.
type CancellationFlag struct {
	stopped atomic.Bool
	once    sync.Once
	mu      sync.Mutex
	hooks   []func()
}

// NewCancellationFlag returns a flag in the running state.
func NewCancellationFlag() *CancellationFlag {
	return &CancellationFlag{}
}

// Stop flips the flag and runs the registered hooks. Later calls do nothing.
func (f *CancellationFlag) Stop() {
	f.once.Do(func() {
		f.stopped.Store(true)
		f.mu.Lock()
		hooks := f.hooks
		f.hooks = nil
		f.mu.Unlock()
		for _, h := range hooks {
			h()
		}
	})
}

// Stopped reports whether Stop has been called.
func (f *CancellationFlag) Stopped() bool {
	return f.stopped.Load()
}

// OnStop registers h to run once the flag stops; it runs immediately if the
// flag already has. Process workers use it to forward the signal.
func (f *CancellationFlag) OnStop(h func()) {
	f.mu.Lock()
	if f.stopped.Load() {
		f.mu.Unlock()
		h()
		return
	}
	f.hooks = append(f.hooks, h)
	f.mu.Unlock()
}
