package umwait

import "unsafe"

// machine is the platform primitive behind the public operations.
//
// arm readies change detection on a cache line. wait suspends the calling
// thread until the armed line is written, the deadline clock passes deadline,
// or the hardware breaks the wait early for its own reasons (interrupts and
// preemption do that). pause is a timed suspend with no wake address. touch
// rewrites the current value at addr with itself, which fires any monitor
// armed on the line without changing the data.
//
// wait takes the armed address again so that scripted machines can pair it
// with the preceding arm. The hardware machine ignores it, the monitor is a
// per-core register.
type machine interface {
	now() uint64
	hz() uint64
	arm(addr unsafe.Pointer)
	wait(addr unsafe.Pointer, deadline uint64)
	pause(deadline uint64)
	touch(addr unsafe.Pointer, size uint8)
}

// mach is installed at most once, during init, by the platform probe. Nil
// means the CPU lacks the wait instruction family and every operation fails
// with ErrUnsupported. Never reassigned afterwards, so reads need no fence.
var mach machine

// Supported reports whether the CPU carries the monitor/wait instruction
// family. The answer is fixed at process start.
func Supported() bool {
	return mach != nil
}
