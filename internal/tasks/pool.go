package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultWorkers is the worker count used when NewPool is given n <= 0.
const DefaultWorkers = 4

// ErrPoolClosed is the error of a task submitted after Close.
var ErrPoolClosed = errors.New("task pool closed")

// Func is the body of a task.
type Func func(ctx context.Context) error

// Task is a handle to a submitted operation.
type Task struct {
	id       string
	name     string
	ctx      context.Context
	fn       Func
	callback func()

	done chan struct{}
	err  error
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Name returns the operation name given at submission.
func (t *Task) Name() string { return t.name }

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task's result. It is nil until Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx is done. It returns the
// task's error, or ctx.Err() if ctx ends first; the task keeps running.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
	if t.callback != nil {
		t.callback()
	}
}

// run executes the task body, converting a panic into an error.
func (t *Task) run() (err error) {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.name, r)
		}
	}()
	return t.fn(t.ctx)
}

// Pool is a fixed set of workers draining a FIFO queue.
type Pool struct {
	queue *taskQueue
	ids   IDGenerator
	wg    sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithIDGenerator sets the task ID generator.
//
// Default: UUIDv7Generator
func WithIDGenerator(g IDGenerator) PoolOption {
	return func(p *Pool) {
		p.ids = g
	}
}

// NewPool starts n workers. n <= 0 uses DefaultWorkers.
func NewPool(n int, opts ...PoolOption) *Pool {
	if n <= 0 {
		n = DefaultWorkers
	}
	p := &Pool{
		queue: newTaskQueue(),
		ids:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

// Submit queues fn for execution and returns its handle. callback may be
// nil. A task whose ctx is done before a worker picks it up fails with
// ctx.Err() without running.
func (p *Pool) Submit(ctx context.Context, name string, fn Func, callback func()) *Task {
	t := &Task{
		id:       p.ids.Generate(),
		name:     name,
		ctx:      ctx,
		fn:       fn,
		callback: callback,
		done:     make(chan struct{}),
	}
	if !p.queue.Enqueue(t) {
		t.finish(ErrPoolClosed)
		return t
	}
	slog.Debug("task queued", "task", t.id, "name", name)
	return t
}

// Pending returns the number of queued tasks not yet started.
func (p *Pool) Pending() int {
	return p.queue.Len()
}

// Close stops accepting tasks, lets workers drain the queue and waits for
// them to exit.
func (p *Pool) Close() {
	p.queue.Close()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		t, drained := p.queue.TryDequeue()
		if t != nil {
			err := t.run()
			if err != nil {
				slog.Debug("task failed", "task", t.id, "name", t.name, "error", err)
			} else {
				slog.Debug("task finished", "task", t.id, "name", t.name)
			}
			t.finish(err)
			continue
		}
		if drained {
			return
		}
		<-p.queue.Wait()
	}
}
