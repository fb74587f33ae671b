package idle

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its OS thread and pins that thread to
// the given CPU. Run it in the worker goroutine before the poll loop. The
// armed monitor is per core, a thread that migrates between arming and
// waiting sleeps on nothing.
func Pin(core int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
