package helpers

import "sync"

// EventQueue delivers queued notifications one at a time, in enqueue order, without holding the
// caller's lock. Registries enqueue an event while holding their own mutex (so queue order equals
// mutation order), release the mutex, then call Drain. A Drain that finds another goroutine (or an
// outer call on the same goroutine, e.g. a listener re-entering the registry) already delivering
// returns immediately; the active drainer delivers the new event after the current one. Drain never
// waits for the active drainer, so a listener may re-enter the registry.
type EventQueue struct {
	mu       sync.Mutex
	pending  []func()
	draining bool
}

// Enqueue appends a notification. Safe to call while holding any other lock.
//
// Parameter fn: notification to run later from Drain (nil is ignored).
//
// Called from service.ClusterRegistry and service.ModuleAvailabilityRegistry under their mutex.
func (q *EventQueue) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Drain runs queued notifications until the queue is empty. No lock is held while a notification runs.
//
// Called by registries after releasing their mutex.
func (q *EventQueue) Drain() {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	for len(q.pending) > 0 {
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()
		q.run(fn)
		q.mu.Lock()
	}
	q.draining = false
	q.mu.Unlock()
}

// run executes fn; a panicking listener must not leave the queue stuck in draining state.
func (q *EventQueue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.mu.Lock()
			q.draining = false
			q.mu.Unlock()
			panic(r)
		}
	}()
	fn()
}
