package engine

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of raw repository-change signals into a
// single invalidation wave.
//
// It is a three-state machine: idle (no timer), pending (timer armed;
// further signals re-arm it) and firing (timer expired, the fire
// callback runs, then back to idle). A single filesystem write often
// produces many OS-level events; the quiet window makes them one
// rescan.
type Debouncer struct {
	window time.Duration
	fire   func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer returns a debouncer that invokes fire after window of
// quiet following one or more signals. For an engine e,
// NewDebouncer(w, e.Invalidate) is the debounced invalidation watcher.
func NewDebouncer(window time.Duration, fire func()) *Debouncer {
	return &Debouncer{window: window, fire: fire}
}

// Window returns the configured quiet period.
func (d *Debouncer) Window() time.Duration { return d.window }

// Signal records one raw change signal. Safe from any goroutine.
func (d *Debouncer) Signal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.window, d.expire)
		return
	}
	d.timer.Reset(d.window)
}

// Pending reports whether a signal is waiting for the window to pass.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) expire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	// Fire outside the lock: the callback submits work and may take
	// engine locks of its own.
	d.fire()
}

// Stop cancels any pending fire. Further signals are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
