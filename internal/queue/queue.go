// Package queue implements the MPSC event queue that feeds the simulation
// thread: a mutex-and-condition-variable FIFO with blocking pop,
// non-blocking try-pop, and a stop signal that wakes every waiter.
package queue

import (
	"sync"

	"github.com/aortez/cellsim-server/internal/event"
)

// Queue is a thread-safe FIFO of event.Event: many producers (transport
// connections), a single consumer (the simulation thread).
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []event.Event
	stopped bool
}

// New constructs an empty queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues an event and wakes one waiting consumer. A push after Stop
// is silently discarded: the item is never queued or delivered.
func (q *Queue) Push(e event.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.items = append(q.items, e)
	q.cond.Signal()
}

// TryPop returns the front item without blocking, or (nil, false) if empty.
func (q *Queue) TryPop() (event.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

// Pop blocks until an item is available or Stop is called. It returns
// (nil, false) once stopped with nothing left to drain.
func (q *Queue) Pop() (event.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.stopped {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	return e, true
}

// DrainAll pops every currently queued item without blocking, matching the
// state machine main loop's "try_pop all pending events" step.
func (q *Queue) DrainAll() []event.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}

// Stop wakes every blocked waiter; subsequent Pop calls on an empty queue
// return immediately with ok=false.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopped = true
	q.cond.Broadcast()
}

// Len reports the number of currently queued items, for metrics (QueueDepth).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
