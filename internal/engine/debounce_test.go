package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CollapsesBurst(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(80*time.Millisecond, func() { fires.Add(1) })
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Signal()
	}
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool { return fires.Load() == 1 },
		time.Second, 10*time.Millisecond)

	// Quiet period over, no further fires.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_SignalResetsWindow(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(100*time.Millisecond, func() { fires.Add(1) })
	defer d.Stop()

	// Keep poking inside the window; nothing may fire while signals
	// keep arriving.
	for i := 0; i < 5; i++ {
		d.Signal()
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, int32(0), fires.Load())
	}
	require.Eventually(t, func() bool { return fires.Load() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestDebouncer_NewBurstAfterFire(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { fires.Add(1) })
	defer d.Stop()

	d.Signal()
	require.Eventually(t, func() bool { return fires.Load() == 1 },
		time.Second, 10*time.Millisecond)

	d.Signal()
	require.Eventually(t, func() bool { return fires.Load() == 2 },
		time.Second, 10*time.Millisecond)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var fires atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { fires.Add(1) })

	d.Signal()
	d.Stop()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, int32(0), fires.Load())

	// Signals after Stop are ignored.
	d.Signal()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, int32(0), fires.Load())
}
