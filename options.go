package taskpool

import (
	"runtime"
)

// ShutdownPolicy decides what happens to tasks still queued when
// Shutdown runs.
//
// The historical behavior of this design is DiscardPending: shutdown
// means stop, not drain-to-completion. It stays the default; callers
// that cannot afford to lose queued work opt into DrainPending.
type ShutdownPolicy int

const (
	// DiscardPending drops queued tasks without running their bodies.
	// Cleanup hooks still run, so payload resources are released.
	DiscardPending ShutdownPolicy = iota

	// DrainPending runs every queued task on the goroutine that called
	// Shutdown before Shutdown returns.
	DrainPending
)

// Options configure a worker Pool.
//
// All zero values are replaced with sensible defaults in FillDefaults.
type Options struct {
	// Workers is the fixed number of workers to start. Zero or negative
	// means one per available CPU.
	Workers int

	// PinWorkers locks each worker to an OS thread and pins it to a
	// CPU core on supported platforms. Pinning failures degrade to an
	// unpinned worker, never a missing one.
	PinWorkers bool

	// OnShutdown selects the fate of tasks still queued at Shutdown.
	OnShutdown ShutdownPolicy
}

func (o *Options) FillDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
}

func (sp ShutdownPolicy) String() string {
	switch sp {
	case DiscardPending:
		return "DiscardPending"
	case DrainPending:
		return "DrainPending"
	default:
		return "Unknown"
	}
}
