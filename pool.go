// pool.go
package taskpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	lg "github.com/Andrej220/go-utils/zlog"
)

// Pool is a fixed-size worker pool with a shared FIFO task queue.
//
// Workers are started once at construction and live until Shutdown.
// Idle workers block on the queue's condition variable; they never
// busy-poll, and they hold the queue lock only for O(1) bookkeeping,
// never while a task body runs. Long tasks therefore never block
// producers or sibling workers from queue access.
type Pool[T any] struct {
	opts  Options
	queue *taskQueue[T]

	// running is read cheaply outside the queue lock at the top of the
	// worker loop and re-checked under the lock before a worker decides
	// to block or proceed. The under-lock re-check is authoritative; do
	// not remove it, it is what closes the lost-wakeup race between
	// "queue empty" and "about to wait".
	running atomic.Bool

	live     int // workers that actually started
	wg       sync.WaitGroup
	stopOnce sync.Once

	metrics MetricsPolicy

	// OnInternalError receives non-task failures such as a worker that
	// could not start. Nil means log-and-continue.
	OnInternalError func(error)

	// OnTaskPanic receives recovered task panics. Nil means
	// log-and-continue; the worker survives either way.
	OnTaskPanic func(v any)

	spawn func(id int) error
}

// NewPool creates the pool and starts opts.Workers workers bound to one
// shared queue. A worker that fails to start is reported to the
// internal-error sink and skipped: the pool comes up with degraded
// capacity rather than rolling back, and Shutdown later joins exactly
// the workers that did start.
func NewPool[T any](opts Options, m MetricsPolicy) *Pool[T] {
	p := newPool[T](opts, m)
	p.start()
	return p
}

func newPool[T any](opts Options, m MetricsPolicy) *Pool[T] {
	opts.FillDefaults()
	if m == nil {
		m = &NoopMetrics{}
	}
	p := &Pool[T]{
		opts:    opts,
		queue:   newTaskQueue[T](),
		metrics: m,
	}
	p.spawn = p.startWorker
	return p
}

func (p *Pool[T]) start() {
	p.running.Store(true)
	for i := 0; i < p.opts.Workers; i++ {
		if err := p.spawn(i); err != nil {
			p.reportInternalError(fmt.Errorf("taskpool: worker %d failed to start: %w", i, err))
			continue
		}
		p.live++
	}
}

func (p *Pool[T]) startWorker(id int) error {
	p.wg.Add(1)
	go p.worker(id)
	return nil
}

// Submit appends a task to the queue and wakes one idle worker.
//
// It never blocks: the queue is unbounded and there is no backpressure.
// After Shutdown has begun it returns ErrPoolClosed and the task is not
// enqueued. A task that slips in concurrently with Shutdown may still
// be discarded unexecuted; interleaving Submit with Shutdown is the
// caller's race to lose.
func (p *Pool[T]) Submit(t Task[T]) error {
	if t.Fn == nil {
		return ErrNilFunc
	}
	if t.Ctx == nil {
		t.Ctx = context.Background()
	}
	if !p.running.Load() {
		return ErrPoolClosed
	}
	p.queue.push(t)
	p.metrics.IncQueued()
	lg.FromContext(t.Ctx).Info("task submitted", lg.Any("payload", t.Payload))
	return nil
}

// Shutdown stops the pool and blocks until every live worker has
// exited. Workers mid-task are not interrupted, so the wait is bounded
// only by the longest in-flight task body.
//
// Pending tasks are handled per Options.OnShutdown: DiscardPending
// (default) drops them without running their bodies, still invoking
// Cleanup hooks; DrainPending runs them on the caller's goroutine
// before returning.
//
// Repeated or concurrent calls after the first are no-ops.
func (p *Pool[T]) Shutdown() {
	p.stopOnce.Do(func() {
		p.running.Store(false)

		// Broadcast under the queue lock so every blocked worker
		// re-evaluates the running flag.
		p.queue.mu.Lock()
		p.queue.cond.Broadcast()
		p.queue.mu.Unlock()

		p.wg.Wait()

		switch p.opts.OnShutdown {
		case DrainPending:
			for {
				p.queue.mu.Lock()
				t, ok := p.queue.popLocked()
				p.queue.mu.Unlock()
				if !ok {
					break
				}
				p.metrics.BatchDecQueued(1)
				p.runTask(t)
			}
		default:
			if n := p.queue.drain(); n > 0 {
				p.metrics.BatchDecQueued(int64(n))
				p.metrics.AddDiscarded(int64(n))
				lg.FromContext(context.Background()).Warn("discarded pending tasks at shutdown",
					lg.Int("count", n))
			}
		}
	})
}

// worker is the loop each pool goroutine runs: wait for work or
// shutdown, pop one task, execute it outside the lock, repeat.
func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()

	if p.opts.PinWorkers {
		runtime.LockOSThread()
		if err := PinToCPU(id % runtime.NumCPU()); err != nil {
			lg.FromContext(context.Background()).Warn("worker not pinned",
				lg.Int("worker", id), lg.Any("error", err))
		}
	}

	for p.running.Load() {
		p.queue.mu.Lock()
		for p.queue.emptyLocked() && p.running.Load() {
			p.queue.cond.Wait()
		}
		if !p.running.Load() {
			p.queue.mu.Unlock()
			return
		}
		t, ok := p.queue.popLocked()
		p.queue.mu.Unlock()

		if ok {
			p.metrics.BatchDecQueued(1)
			p.runTask(t)
		}
	}
}

// runTask executes one task body with panic recovery. Cleanup and the
// executed counter fire whether the body returns or panics.
func (p *Pool[T]) runTask(t Task[T]) {
	defer func() {
		if r := recover(); r != nil {
			p.reportTaskPanic(t.Ctx, r)
		}
		if t.Cleanup != nil {
			t.Cleanup()
		}
		p.metrics.IncExecuted()
	}()
	t.Fn(t.Payload)
}

// LiveWorkers returns the number of workers that actually started.
// Equal to Options.Workers unless construction degraded.
func (p *Pool[T]) LiveWorkers() int { return p.live }

// QueueLength returns the number of tasks currently waiting.
func (p *Pool[T]) QueueLength() int { return p.queue.len() }
