package taskpool

import (
	"errors"
)

var (
	// ErrPoolClosed is returned by Submit once Shutdown has begun.
	ErrPoolClosed = errors.New("taskpool: pool closed")

	// ErrNilFunc is returned when a submitted Task has a nil Fn.
	ErrNilFunc = errors.New("taskpool: task func is nil")
)
