//go:build !linux

package idle

import "runtime"

// Pin locks the calling goroutine to its OS thread. Thread-to-core pinning
// is not available on this platform, the scheduler decides where the thread
// runs.
func Pin(core int) error {
	runtime.LockOSThread()
	return nil
}
