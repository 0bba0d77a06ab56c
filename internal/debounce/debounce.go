// Package debounce coalesces bursts of work per key: only the last scheduled
// call for a key runs, once the key has been quiet for the window.
package debounce

import (
	"sync"
	"time"
)

type Debouncer struct {
	window time.Duration

	mu       sync.Mutex
	idle     *sync.Cond
	pending  map[string]*entry
	inflight int
	stopped  bool
}

type entry struct {
	timer *time.Timer
	fn    func()
}

// New returns a Debouncer. A window of zero or less runs work immediately.
func New(window time.Duration) *Debouncer {
	d := &Debouncer{window: window, pending: make(map[string]*entry)}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Schedule replaces any pending call for key with fn. It reports false if
// the debouncer has been stopped.
func (d *Debouncer) Schedule(key string, fn func()) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
		delete(d.pending, key)
	}

	if d.window <= 0 {
		d.inflight++
		d.mu.Unlock()
		d.run(fn)
		return true
	}

	e := &entry{fn: fn}
	e.timer = time.AfterFunc(d.window, func() { d.fire(key, e) })
	d.pending[key] = e
	d.mu.Unlock()
	return true
}

// fire runs e unless it was superseded, cancelled or flushed meanwhile.
func (d *Debouncer) fire(key string, e *entry) {
	d.mu.Lock()
	if d.pending[key] != e {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.inflight++
	d.mu.Unlock()

	d.run(e.fn)
}

// run calls fn, which the caller has counted as in flight.
func (d *Debouncer) run(fn func()) {
	defer func() {
		d.mu.Lock()
		d.inflight--
		if d.inflight == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}()
	fn()
}

// Cancel drops the pending call for key. It reports whether one existed.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.pending[key]
	if ok {
		e.timer.Stop()
		delete(d.pending, key)
	}
	return ok
}

// Pending returns the number of calls waiting for their window to close.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush runs every pending call now, in the caller's goroutine, and waits
// for calls already firing to return.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	due := make([]*entry, 0, len(d.pending))
	for key, e := range d.pending {
		e.timer.Stop()
		due = append(due, e)
		delete(d.pending, key)
	}
	d.inflight += len(due)
	d.mu.Unlock()

	for _, e := range due {
		d.run(e.fn)
	}

	d.mu.Lock()
	for d.inflight > 0 {
		d.idle.Wait()
	}
	d.mu.Unlock()
}

// Stop flushes pending work and rejects further calls.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.Flush()
}
