// queue.go
package taskpool

import (
	"sync"

	"github.com/eapache/queue"
)

// taskQueue is the pending-task FIFO shared by all workers of a pool.
//
// One mutex protects the ring storage; the condition variable is
// signalled once per appended task so at most one idle worker wakes per
// push. Storage is a growable ring (eapache/queue) rather than linked
// nodes, so a push never fails and ownership transfers by value on pop.
//
// FIFO order is the ordering invariant: tasks come out in the order they
// went in. Emptiness is a single fact (Length()==0); there is no
// separate front/rear state to keep consistent.
type taskQueue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items *queue.Queue
}

func newTaskQueue[T any]() *taskQueue[T] {
	q := &taskQueue[T]{items: queue.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a task at the rear and wakes at most one waiting worker.
// O(1) amortized, never blocks on a full queue (the queue is unbounded).
func (q *taskQueue[T]) push(t Task[T]) {
	q.mu.Lock()
	q.items.Add(t)
	q.cond.Signal()
	q.mu.Unlock()
}

// popLocked removes and returns the task at the front, or false if the
// queue is empty. The caller must hold q.mu: the worker loop holds the
// lock across the emptiness check and the pop, which is what makes the
// wait/wake handoff race-free.
func (q *taskQueue[T]) popLocked() (Task[T], bool) {
	if q.items.Length() == 0 {
		var zero Task[T]
		return zero, false
	}
	return q.items.Remove().(Task[T]), true
}

func (q *taskQueue[T]) emptyLocked() bool { return q.items.Length() == 0 }

func (q *taskQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// drain removes every pending task without running it. Cleanup hooks
// still run so payload resources are released even though the task body
// never executes. Returns the number of tasks discarded.
//
// Called once by Shutdown after every worker has exited, so nothing
// races with it in normal use.
func (q *taskQueue[T]) drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for q.items.Length() > 0 {
		t := q.items.Remove().(Task[T])
		if t.Cleanup != nil {
			t.Cleanup()
		}
		n++
	}
	return n
}
