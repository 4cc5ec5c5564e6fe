// Package debounce coalesces bursts of triggers into one trailing-edge
// callback.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once per quiet period: every Trigger restarts the
// delay, and fn fires only after no trigger has arrived for the full
// delay. fn runs on a timer goroutine. Safe for concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func()
}

// New creates a debouncer that fires fn after delay of quiet.
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn, restarting the quiet period if a fire is already
// pending.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fn)
		return
	}
	d.timer.Reset(d.delay)
}

// Stop cancels a pending fire. A callback already started is not
// interrupted. The debouncer stays usable; a later Trigger schedules
// again.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
