package taskpool

import (
	"context"

	lg "github.com/Andrej220/go-utils/zlog"
)

// reportInternalError reports a non-task failure such as a worker that
// could not start. Internal errors never stop the pool; with no handler
// registered they are logged and execution continues with whatever
// capacity remains.
func (p *Pool[T]) reportInternalError(err error) {
	if p.OnInternalError != nil {
		p.OnInternalError(err)
		return
	}
	lg.FromContext(context.Background()).Error("pool internal error", lg.Any("error", err))
}

// reportTaskPanic reports a panic recovered from a task body. The
// worker that ran the task survives and keeps serving the queue.
func (p *Pool[T]) reportTaskPanic(ctx context.Context, v any) {
	if p.OnTaskPanic != nil {
		p.OnTaskPanic(v)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	lg.FromContext(ctx).Error("task panicked", lg.Any("panic", v))
}
