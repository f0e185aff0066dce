// Package taskpool provides a fixed-size worker pool with a shared
// FIFO task queue and blocking hand-off between producers and workers.
//
// Design goals
//
// The package is designed around the following principles:
//
//   - Workers never busy-poll: all idle time is spent blocked on a
//     condition variable
//   - The queue lock is held only for O(1) bookkeeping, never while a
//     task body runs
//   - Submission never blocks: the queue is unbounded and there is no
//     backpressure
//   - Exactly one global shutdown transition, race-free against waiting
//     workers
//
// Architecture overview
//
// The pool is composed of three parts:
//
//   1. Task queue
//      A mutex-and-condition-variable-protected FIFO backed by a
//      growable ring. Push signals one waiter; pop happens under the
//      same lock as the emptiness check.
//
//   2. Workers
//      A fixed set of goroutines started at construction. Each runs
//      the same loop: wait for work or shutdown, dequeue one task,
//      unlock, execute, repeat. Workers can optionally be locked to OS
//      threads and pinned to CPUs.
//
//   3. Task lifecycle
//      A task is a function plus one payload value whose ownership
//      moves to exactly one worker. An optional Cleanup hook releases
//      payload resources after execution, and also when a task is
//      discarded unexecuted at shutdown.
//
// The wait loop and the running flag
//
// The shutdown flag is read cheaply outside the queue lock at the top
// of the worker loop, and re-checked under the lock before a worker
// decides to block on the condition variable. The under-lock check is
// the authoritative one: it closes the window between observing an
// empty queue and going to sleep, so a signal or the shutdown
// broadcast can never be lost. Spurious wakeups are handled by
// re-evaluating both conditions on every wake.
//
// Ordering and delivery guarantees
//
// Tasks are dispatched in submission order. Any dequeued task executes
// exactly once, on exactly one worker. There is no guarantee about
// which worker runs which task, and no guarantee that tasks still
// queued when Shutdown begins execute at all: by default they are
// discarded (Cleanup hooks still run). DrainPending switches shutdown
// to run-to-completion.
//
// Error handling
//
// The pool distinguishes two failure classes:
//
//   - Task panics: recovered per task and reported via OnTaskPanic;
//     the worker survives
//   - Internal errors: a worker that fails to start is reported via
//     OnInternalError and skipped, leaving the pool at degraded
//     capacity rather than failing construction
//
// There is no retry anywhere: every failure is local-abort-and-continue.
//
// Intended use cases
//
// taskpool suits fire-and-forget background work where submission must
// stay cheap and shutdown must be a single, well-defined join point:
// periodic maintenance jobs, log post-processing, fan-out of small
// independent units of work.
//
// It is not a general-purpose goroutine replacement and offers no
// priorities, no per-task cancellation, and no result propagation.
package taskpool
