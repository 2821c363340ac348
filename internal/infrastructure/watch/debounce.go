// Package watch re-runs work when files below a project root change.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one callback. A trigger that
// arrives while the timer is pending restarts the window.
type Debouncer struct {
	window   time.Duration
	callback func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer(window time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
	}
}

// Trigger restarts the window. It is a no-op after Stop.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// fire runs the callback unless a later trigger or Stop superseded gen.
// A timer that already fired cannot be stopped, hence the generation check.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	current := gen == d.gen && !d.stopped
	d.mu.Unlock()
	if current {
		d.callback()
	}
}

// Stop cancels any pending callback and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
