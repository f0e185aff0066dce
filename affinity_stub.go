//go:build !linux

package taskpool

import "errors"

// PinToCPU is a stub for platforms without sched_setaffinity support.
func PinToCPU(cpu int) error {
	return errors.New("taskpool: cpu pinning not supported on this platform")
}
