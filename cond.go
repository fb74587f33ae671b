package umwait

import (
	"sync/atomic"
	"unsafe"
)

// Cond describes what a core sleeps on: the address the monitor is armed on
// and, when Mask is non-zero, what "already done" looks like so Monitor can
// skip the sleep.
//
// Addr must be naturally aligned for Size and must stay valid, with the same
// meaning, for as long as a Wake directed at the sleeping core can still
// touch it. Reusing the word for something else inside that window invites a
// stale write, see Wake.
type Cond struct {
	// Addr is the address the monitor is armed on.
	Addr unsafe.Pointer
	// Val is the expected masked value. Ignored when Mask is zero.
	Val uint64
	// Mask selects the bits of the loaded value to compare against Val.
	// Zero disables the comparison and Monitor always goes to sleep.
	Mask uint64
	// Size is the operand width in bytes, one of 1, 2, 4 or 8.
	Size uint8
}

func validSize(size uint8) bool {
	switch size {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

// loadSized atomically reads the size-byte value at addr. Widths below four
// bytes go through the containing aligned 32-bit word, natural alignment
// guarantees the value does not straddle it.
func loadSized(addr unsafe.Pointer, size uint8) uint64 {
	switch size {
	case 8:
		return atomic.LoadUint64((*uint64)(addr))
	case 4:
		return uint64(atomic.LoadUint32((*uint32)(addr)))
	default:
		word := (*uint32)(unsafe.Pointer(uintptr(addr) &^ 3))
		shift := (uintptr(addr) & 3) * 8
		v := uint64(atomic.LoadUint32(word)) >> shift
		if size == 1 {
			return v & 0xff
		}
		return v & 0xffff
	}
}

// casSelf is the forced wakeup write: swap the current value with itself.
// The store side of the swap fires any monitor armed on the line while the
// data stays bit-for-bit the same. A failed swap is just as good, it means
// somebody else wrote the word and that write fired the monitor already.
func casSelf(addr unsafe.Pointer, size uint8) {
	if size == 8 {
		p := (*uint64)(addr)
		v := atomic.LoadUint64(p)
		atomic.CompareAndSwapUint64(p, v, v)
		return
	}
	// Narrower widths touch the containing aligned 32-bit word. The swap
	// preserves the neighbouring bytes along with the value itself.
	p := (*uint32)(unsafe.Pointer(uintptr(addr) &^ 3))
	v := atomic.LoadUint32(p)
	atomic.CompareAndSwapUint32(p, v, v)
}
