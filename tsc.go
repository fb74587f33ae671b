package umwait

import "time"

// Now returns the current value of the deadline clock that Monitor and
// Pause compare against, the tsc on amd64. Zero when unsupported.
func Now() uint64 {
	if mach == nil {
		return 0
	}
	return mach.now()
}

// Hz returns the rate of the deadline clock in ticks per second, measured
// once on first use. Zero when unsupported.
func Hz() uint64 {
	if mach == nil {
		return 0
	}
	return mach.hz()
}

// After converts a duration into an absolute deadline for Monitor and
// Pause. Negative durations count as zero. Zero when unsupported.
func After(d time.Duration) uint64 {
	if mach == nil {
		return 0
	}
	if d < 0 {
		d = 0
	}
	return mach.now() + uint64(d.Seconds()*float64(mach.hz()))
}
