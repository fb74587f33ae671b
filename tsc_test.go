package umwait

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockUnsupported(t *testing.T) {
	swapMachine(t, nil)

	require.Zero(t, Now())
	require.Zero(t, Hz())
	require.Zero(t, After(time.Second))
}

func TestAfter(t *testing.T) {
	swapMachine(t, newTestMachine())

	require.EqualValues(t, 1e9, Hz())
	now := Now()
	require.NotZero(t, now)

	lo := After(0)
	hi := After(time.Second)
	require.GreaterOrEqual(t, lo, now)
	require.Greater(t, hi, lo)
	// a second is 1e9 ticks on the scripted clock, allow for the time
	// between the two reads
	require.InDelta(t, 1e9, float64(hi-lo), 1e8)

	// negative durations clamp to zero instead of rewinding the deadline
	require.GreaterOrEqual(t, After(-time.Hour), now)
}
