package umwait

import (
	"sync"
	"time"
	"unsafe"
)

// waitpkgMachine drives the UMONITOR/UMWAIT/TPAUSE instruction family.
type waitpkgMachine struct {
	once   sync.Once
	cycles uint64
}

func init() {
	if hasWaitpkg() {
		mach = &waitpkgMachine{}
	}
}

// hasWaitpkg reports CPUID.(EAX=07H,ECX=0H):ECX[5].
func hasWaitpkg() bool {
	maxLeaf, _, _, _ := cpuid(0, 0)
	if maxLeaf < 7 {
		return false
	}
	_, _, ecx, _ := cpuid(7, 0)
	return ecx&(1<<5) != 0
}

func (m *waitpkgMachine) now() uint64 {
	return rdtsc()
}

// hz measures the tsc rate once, against the monotonic clock. Constant-rate
// tsc is implied by waitpkg-era hardware, so a single short sample is enough.
func (m *waitpkgMachine) hz() uint64 {
	m.once.Do(func() {
		start := time.Now()
		first := rdtsc()
		time.Sleep(20 * time.Millisecond)
		ticks := rdtsc() - first
		m.cycles = uint64(float64(ticks) / time.Since(start).Seconds())
	})
	return m.cycles
}

func (m *waitpkgMachine) arm(addr unsafe.Pointer) {
	umonitor(addr)
}

func (m *waitpkgMachine) wait(_ unsafe.Pointer, deadline uint64) {
	umwait(deadline)
}

func (m *waitpkgMachine) pause(deadline uint64) {
	tpause(deadline)
}

func (m *waitpkgMachine) touch(addr unsafe.Pointer, size uint8) {
	casSelf(addr, size)
}

// Implemented in machine_amd64.s.

func cpuid(leaf, sub uint32) (eax, ebx, ecx, edx uint32)

//go:noescape
func umonitor(addr unsafe.Pointer)

func umwait(deadline uint64)

func tpause(deadline uint64)

func rdtsc() uint64
