package tasks

import "sync"

// taskQueue is a thread-safe FIFO queue of pending tasks.
//
// The queue uses a channel for signaling so idle workers can wait without
// polling. The signal buffer of 1 coalesces bursts; a worker that dequeues
// while more work remains re-signals so other idle workers wake up.
type taskQueue struct {
	mu     sync.Mutex
	items  []*Task
	closed bool
	signal chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		items:  make([]*Task, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a task to the back of the queue.
// Returns false if the queue is closed.
func (q *taskQueue) Enqueue(t *Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, t)
	q.notify()
	return true
}

// TryDequeue removes the front task without blocking.
// The second result reports whether the queue is closed and drained.
func (q *taskQueue) TryDequeue() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, q.closed
	}

	t := q.items[0]
	q.items[0] = nil // release for GC
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = q.items[:0:0]
	} else {
		q.notify()
	}
	return t, false
}

// notify signals availability without blocking. Callers hold mu.
func (q *taskQueue) notify() {
	if q.closed {
		return
	}
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Wait returns a channel that signals when tasks may be available.
// The channel is closed once the queue is closed.
func (q *taskQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting tasks and wakes every waiting worker.
func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
