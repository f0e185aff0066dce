package taskpool

import "context"

// TaskFunc is the function executed by a worker for a given task payload.
//
// Tasks are fire-and-forget: there is no error return and no result
// channel. A task body is expected to handle its own failures and return
// normally; panics are recovered by the worker so they never take a
// worker down.
type TaskFunc[T any] func(T)

// Task represents a single unit of work submitted to the pool.
//
// Payload ownership moves to the task body at execution time: the pool
// never inspects or copies it, and exactly one worker ever sees it.
//
// Cleanup, if set, runs after the body returns (or panics), and also for
// tasks that are discarded unexecuted at shutdown. Put payload resource
// release here rather than in Fn if the payload holds anything that must
// not leak when the pool stops before the task runs.
type Task[T any] struct {
	Payload T
	Fn      TaskFunc[T]

	// Ctx carries the logger for this task (zlog.FromContext). It does
	// not cancel the task: once dequeued, a task runs to completion.
	Ctx context.Context

	Cleanup func()
}
