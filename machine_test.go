package umwait

import (
	"sync"
	"testing"
	"time"
	"unsafe"
)

// testMachine is a scripted stand-in for the instruction set. Arming
// registers a buffered channel for the address, touching fills every channel
// registered for it, waiting drains the channel armed last for the address.
// The buffering is what keeps a touch delivered between arm and wait from
// getting lost, same contract as the hardware monitor. The clock runs in
// nanoseconds at 1e9 ticks per second, so deadlines map one to one onto
// time.Duration.
type testMachine struct {
	mu    sync.Mutex
	armed map[uintptr][]chan struct{}

	arms    int
	waits   int
	pauses  int
	touches int
}

func newTestMachine() *testMachine {
	return &testMachine{armed: map[uintptr][]chan struct{}{}}
}

// swapMachine installs m for the duration of the test, nil closes the
// capability gate.
func swapMachine(t testing.TB, m machine) {
	t.Helper()
	prev := mach
	mach = m
	t.Cleanup(func() {
		mach = prev
	})
}

func (m *testMachine) now() uint64 {
	return uint64(time.Now().UnixNano())
}

func (m *testMachine) hz() uint64 {
	return 1e9
}

func (m *testMachine) until(deadline uint64) time.Duration {
	if now := m.now(); deadline > now {
		return time.Duration(deadline - now)
	}
	return 0
}

func (m *testMachine) arm(addr unsafe.Pointer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.arms++
	m.armed[uintptr(addr)] = append(m.armed[uintptr(addr)], make(chan struct{}, 1))
}

func (m *testMachine) wait(addr unsafe.Pointer, deadline uint64) {
	m.mu.Lock()
	m.waits++
	var ch chan struct{}
	if chans := m.armed[uintptr(addr)]; len(chans) > 0 {
		ch = chans[len(chans)-1]
	}
	m.mu.Unlock()
	if ch == nil {
		return
	}

	timer := time.NewTimer(m.until(deadline))
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
	}

	m.mu.Lock()
	chans := m.armed[uintptr(addr)]
	for i, c := range chans {
		if c == ch {
			m.armed[uintptr(addr)] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
}

func (m *testMachine) pause(deadline uint64) {
	m.mu.Lock()
	m.pauses++
	m.mu.Unlock()
	if d := m.until(deadline); d > 0 {
		time.Sleep(d)
	}
}

func (m *testMachine) touch(addr unsafe.Pointer, size uint8) {
	casSelf(addr, size)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touches++
	for _, ch := range m.armed[uintptr(addr)] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (m *testMachine) armedOn(addr unsafe.Pointer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.armed[uintptr(addr)]) > 0
}

func (m *testMachine) counts() (arms, waits, pauses, touches int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.arms, m.waits, m.pauses, m.touches
}
