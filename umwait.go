// Package umwait puts busy-polling workers to sleep on a memory address
// using the x86 waitpkg instructions, and wakes them from another core
// without changing the watched data.
package umwait

import (
	"errors"
	"sync"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// MaxCores bounds the core ids accepted by Monitor and Wake. Valid ids are
// 0 to MaxCores-1.
const MaxCores = 128

var (
	// ErrUnsupported is returned on CPUs without the wait instruction
	// family. The answer never changes within a process.
	ErrUnsupported = errors.New("umwait: not supported by this CPU")
	// ErrInvalidCore is returned when a core id is outside 0..MaxCores-1.
	ErrInvalidCore = errors.New("umwait: core id out of range")
	// ErrInvalidCond is returned when a condition carries a nil address or
	// an operand width other than 1, 2, 4 or 8.
	ErrInvalidCond = errors.New("umwait: invalid condition")
)

// waitStatus publishes one core's sleep state to wakers. addr is non-nil
// exactly while a Monitor call on that core may be sleeping, and both the
// publish and the clear happen under mu. The trailing pad keeps neighbouring
// slots off the same cache line, wakers hammer foreign slots.
type waitStatus struct {
	mu   sync.Mutex
	addr unsafe.Pointer
	size uint8

	_ cpu.CacheLinePad
}

var status [MaxCores]waitStatus

// Monitor publishes c for the given core, arms the monitor on c.Addr and
// suspends the calling thread until the address is written, the deadline
// clock (see Now) passes deadline, or the hardware ends the wait early.
// When c.Mask is non-zero and the masked value at c.Addr already equals
// c.Val, the sleep is skipped. Either way the published state is cleared
// before returning.
//
// core must be the caller's own core id and the calling goroutine must be
// pinned to one OS thread on that core for the duration of the call, the
// armed monitor does not follow a migration. An early return is always
// possible, callers waiting for a condition re-check it and call Monitor
// again with a fresh deadline.
func Monitor(core int, c Cond, deadline uint64) error {
	if mach == nil {
		return ErrUnsupported
	}
	if core < 0 || core >= MaxCores {
		return ErrInvalidCore
	}
	if c.Addr == nil || !validSize(c.Size) {
		return ErrInvalidCond
	}

	s := &status[core]

	s.mu.Lock()
	s.addr = c.Addr
	s.size = c.Size
	// Arm before dropping the lock. Once a waker can observe the address
	// the monitor must already be listening, otherwise the touch lands
	// between publish and arm and is missed entirely.
	mach.arm(c.Addr)
	s.mu.Unlock()

	// A non-zero mask names the value the caller is waiting for, skip the
	// sleep when it is already there.
	if c.Mask == 0 || loadSized(c.Addr, c.Size)&c.Mask != c.Val {
		mach.wait(c.Addr, deadline)
	}

	s.mu.Lock()
	s.addr = nil
	s.size = 0
	s.mu.Unlock()
	return nil
}

// Wake cuts short a Monitor sleep on the given core by rewriting the value
// at its published address with itself. Waking a core that is not sleeping
// is a no-op and still succeeds.
//
// Safe to call from any goroutine. The caller must ensure the target either
// still sleeps on its published address or has finished with it entirely, a
// Wake racing an address being recycled for new data can deliver one stale
// harmless-looking write to it.
func Wake(core int) error {
	if mach == nil {
		return ErrUnsupported
	}
	if core < 0 || core >= MaxCores {
		return ErrInvalidCore
	}

	s := &status[core]

	// The sleeper publishes and clears under the slot lock, so only two
	// interleavings involve a waker at all and both are fine:
	//
	// 1. sleeper publishes and arms, waker touches, sleeper begins the
	//    wait: the monitor was armed before the touch, the wait returns
	//    at once.
	// 2. sleeper wakes on its own, waker touches before the clear: the
	//    address stays valid until the clear and the rewrite changes no
	//    data.
	//
	// The clear can never overtake a touch on the published address, it
	// takes this same lock.
	s.mu.Lock()
	if s.addr != nil {
		mach.touch(s.addr, s.size)
	}
	s.mu.Unlock()
	return nil
}

// Pause suspends the calling thread in a low-power state until the deadline
// clock passes deadline. There is no wake address and no per-core state, the
// only failure is an unsupported CPU. Like Monitor, the pause can end early.
func Pause(deadline uint64) error {
	if mach == nil {
		return ErrUnsupported
	}
	mach.pause(deadline)
	return nil
}
