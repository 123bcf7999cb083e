package graphqljit

import "sync"

// completer is the runtime a plan walk hands its deferred work to. A task
// receives the completer its own subtree must schedule against plus a done
// callback it invokes exactly once when its work is finished: right after the
// synchronous part for a plain value, or after a returned future has settled
// and its value has been continued into the slot.
// Tasks run without any invocation lock held; shared state (slots, error
// lists) is guarded by the invocation itself.
type completer interface {
	enqueue(task func(sub completer, done func()))
	signalSyncDone()
}

// parallelExecutor counts outstanding work and fires a single completion
// callback when the counter drains. The counter starts at one for the
// synchronous phase itself; signalSyncDone releases that unit.
type parallelExecutor struct {
	mu          sync.Mutex
	outstanding int
	finished    bool
	finalCb     func()
}

func newParallelExecutor(finalCb func()) *parallelExecutor {
	return &parallelExecutor{outstanding: 1, finalCb: finalCb}
}

func (e *parallelExecutor) enqueue(task func(sub completer, done func())) {
	e.mu.Lock()
	e.outstanding++
	e.mu.Unlock()
	task(e, e.taskDone)
}

func (e *parallelExecutor) signalSyncDone() { e.taskDone() }

func (e *parallelExecutor) taskDone() {
	e.mu.Lock()
	e.outstanding--
	fire := e.outstanding == 0
	if fire {
		if e.finished {
			e.mu.Unlock()
			panic("graphql-jit: executor completion delivered twice")
		}
		e.finished = true
	}
	e.mu.Unlock()
	if fire {
		e.finalCb()
	}
}

// serialExecutor linearizes the top-level fields of a mutation. Work enqueued
// during the synchronous phase is held in FIFO order; once the phase ends,
// each item runs to full drain under its own parallel executor before the
// next item starts. Subtrees below each top-level field still parallelize.
type serialExecutor struct {
	mu       sync.Mutex
	queue    []func(sub completer, done func())
	started  bool
	finished bool
	finalCb  func()
}

func newSerialExecutor(finalCb func()) *serialExecutor {
	return &serialExecutor{finalCb: finalCb}
}

func (e *serialExecutor) enqueue(task func(sub completer, done func())) {
	e.mu.Lock()
	e.queue = append(e.queue, task)
	e.mu.Unlock()
}

func (e *serialExecutor) signalSyncDone() {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		panic("graphql-jit: serial executor started twice")
	}
	e.started = true
	e.mu.Unlock()
	e.next()
}

func (e *serialExecutor) next() {
	e.mu.Lock()
	if len(e.queue) == 0 {
		if e.finished {
			e.mu.Unlock()
			panic("graphql-jit: executor completion delivered twice")
		}
		e.finished = true
		e.mu.Unlock()
		e.finalCb()
		return
	}
	task := e.queue[0]
	e.queue = e.queue[1:]
	e.mu.Unlock()

	sub := newParallelExecutor(e.next)
	sub.enqueue(task)
	sub.signalSyncDone()
}
