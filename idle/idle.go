// Package idle parks busy-polling workers between bursts of work, by
// yielding, by timed low-power pauses, or by sleeping on the address the
// worker polls.
package idle

import (
	"errors"
	"runtime"
	"time"

	"github.com/dshulyak/umwait"
)

const (
	// WaitSpin yields to the scheduler between empty polls. Always
	// available, burns the most power.
	WaitSpin uint = iota
	// WaitPause enters a timed low-power pause once the empty-poll
	// threshold is crossed. Latency is bounded by MaxSleep.
	WaitPause
	// WaitMonitor sleeps on the caller-supplied condition once the
	// threshold is crossed. Wakes when the watched address is written,
	// on Wake, or after MaxSleep at the latest.
	WaitMonitor
)

const (
	defaultThreshold = 512
	defaultMaxSleep  = 100 * time.Microsecond
)

// ErrNoCond is returned when WaitMonitor is requested without a condition
// source.
var ErrNoCond = errors.New("idle: monitor method needs a cond source")

// test seams
var (
	powerMonitor   = umwait.Monitor
	powerPause     = umwait.Pause
	powerWake      = umwait.Wake
	powerAfter     = umwait.After
	powerSupported = umwait.Supported
)

// Params controls when and how a worker is parked.
type Params struct {
	// Method selects what Idle does once Threshold consecutive empty
	// polls accumulate.
	Method uint
	// Threshold is the number of consecutive empty polls before the
	// worker is parked.
	Threshold int
	// MaxSleep bounds a single park. The worker re-polls afterwards.
	MaxSleep time.Duration
	// Cond supplies the condition to sleep on for WaitMonitor, typically
	// the head or tail word the poll loop reads. Called before every
	// sleep so the expected value stays current.
	Cond func() umwait.Cond
}

func defaultParams() *Params {
	return &Params{
		Method:    WaitSpin,
		Threshold: defaultThreshold,
		MaxSleep:  defaultMaxSleep,
	}
}

// Waiter tracks one worker's empty-poll streak and parks it according to
// Params. Not safe to use from multiple goroutines, same as the poll loop
// it serves. Wake is the exception.
type Waiter struct {
	core   int
	params Params
	empty  int
}

// NewWaiter returns a waiter for the worker pinned to the given core, see
// Pin. nil params picks spinning defaults. Methods that need the wait
// instruction family fail up front with umwait.ErrUnsupported on machines
// without it.
func NewWaiter(core int, params *Params) (*Waiter, error) {
	if params == nil {
		params = defaultParams()
	}
	if core < 0 || core >= umwait.MaxCores {
		return nil, umwait.ErrInvalidCore
	}
	if params.Method == WaitPause || params.Method == WaitMonitor {
		if !powerSupported() {
			return nil, umwait.ErrUnsupported
		}
	}
	if params.Method == WaitMonitor && params.Cond == nil {
		return nil, ErrNoCond
	}
	w := Waiter{core: core, params: *params}
	if w.params.Threshold <= 0 {
		w.params.Threshold = defaultThreshold
	}
	if w.params.MaxSleep <= 0 {
		w.params.MaxSleep = defaultMaxSleep
	}
	return &w, nil
}

// Busy resets the empty-poll streak. Call it whenever the poll produced
// work.
func (w *Waiter) Busy() {
	w.empty = 0
}

// Idle records an empty poll. Below the threshold it only yields, at the
// threshold it parks the worker according to the configured method and
// keeps re-parking on every further empty poll. The returned error comes
// from the park itself, a yield cannot fail.
func (w *Waiter) Idle() error {
	if w.empty < w.params.Threshold {
		w.empty++
	}
	if w.empty < w.params.Threshold {
		runtime.Gosched()
		return nil
	}
	switch w.params.Method {
	case WaitPause:
		return powerPause(powerAfter(w.params.MaxSleep))
	case WaitMonitor:
		return powerMonitor(w.core, w.params.Cond(), powerAfter(w.params.MaxSleep))
	default:
		runtime.Gosched()
		return nil
	}
}

// Wake cuts short a WaitMonitor park on this worker's core. Parks of the
// other methods run out on their own within MaxSleep. Safe to call from any
// goroutine.
func (w *Waiter) Wake() error {
	return powerWake(w.core)
}
