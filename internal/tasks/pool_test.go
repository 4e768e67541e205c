package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/customs/internal/testutil"
)

func TestSubmitAndWait(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	var ran atomic.Bool
	task := p.Submit(context.Background(), "fetch", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}, nil)

	require.NoError(t, task.Wait(context.Background()))
	assert.True(t, ran.Load())
	assert.Equal(t, "fetch", task.Name())
}

func TestTaskErrorIsReturned(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	boom := errors.New("boom")
	task := p.Submit(context.Background(), "save", func(ctx context.Context) error { return boom }, nil)

	assert.ErrorIs(t, task.Wait(context.Background()), boom)
	assert.ErrorIs(t, task.Err(), boom)
}

func TestCallbackRunsAfterCompletion(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	called := make(chan struct{})
	start := make(chan struct{})
	var task *Task
	task = p.Submit(context.Background(), "export", func(ctx context.Context) error {
		<-start
		return errors.New("still calls back")
	}, func() {
		// Done must already be closed when the callback runs
		select {
		case <-task.Done():
		default:
			t.Error("callback ran before task finished")
		}
		close(called)
	})
	close(start)

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestPanicBecomesError(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	task := p.Submit(context.Background(), "import", func(ctx context.Context) error {
		panic("kaboom")
	}, nil)

	err := task.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestCancelledContextSkipsTask(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	task := p.Submit(ctx, "fetch", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	}, nil)

	assert.ErrorIs(t, task.Wait(context.Background()), context.Canceled)
	assert.False(t, ran.Load())
}

func TestWaitHonoursCallerContext(t *testing.T) {
	p := NewPool(1)
	defer p.Close()

	release := make(chan struct{})
	task := p.Submit(context.Background(), "slow", func(ctx context.Context) error {
		<-release
		return nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, task.Wait(ctx), context.DeadlineExceeded)
	assert.Nil(t, task.Err(), "unfinished task has no error yet")

	close(release)
	assert.NoError(t, task.Wait(context.Background()))
}

func TestWorkerCountBoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(workers)
	defer p.Close()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Submit(context.Background(), "work", func(ctx context.Context) error {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			return nil
		}, wg.Done)
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(workers))
}

func TestCloseDrainsQueuedTasks(t *testing.T) {
	p := NewPool(1)

	var count atomic.Int32
	tasks := make([]*Task, 0, 10)
	for i := 0; i < 10; i++ {
		tasks = append(tasks, p.Submit(context.Background(), "work", func(ctx context.Context) error {
			count.Add(1)
			return nil
		}, nil))
	}
	p.Close()

	assert.Equal(t, int32(10), count.Load())
	for _, task := range tasks {
		assert.NoError(t, task.Err())
	}
	assert.Zero(t, p.Pending())
}

func TestSubmitAfterClose(t *testing.T) {
	p := NewPool(1)
	p.Close()
	p.Close() // idempotent

	called := false
	task := p.Submit(context.Background(), "late", func(ctx context.Context) error { return nil }, func() { called = true })
	assert.ErrorIs(t, task.Err(), ErrPoolClosed)
	assert.True(t, called)
}

func TestIDGenerators(t *testing.T) {
	p := NewPool(1, WithIDGenerator(testutil.NewSequenceGenerator("task")))
	defer p.Close()

	a := p.Submit(context.Background(), "a", func(ctx context.Context) error { return nil }, nil)
	b := p.Submit(context.Background(), "b", func(ctx context.Context) error { return nil }, nil)
	assert.Equal(t, "task-1", a.ID())
	assert.Equal(t, "task-2", b.ID())

	id := UUIDv7Generator{}.Generate()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestNewPoolDefaultsWorkers(t *testing.T) {
	p := NewPool(0)
	defer p.Close()
	task := p.Submit(context.Background(), "x", func(ctx context.Context) error { return nil }, nil)
	assert.NoError(t, task.Wait(context.Background()))
}
