package fs

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of filesystem events per key. Only the last
// callback registered for a key within the window runs.
type debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timers   map[string]*time.Timer
	pending  map[string]func()
	stopped  bool
	inflight sync.WaitGroup
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		interval: interval,
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]func()),
	}
}

func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[key] = fn
	if t, ok := d.timers[key]; ok {
		// A timer that already fired is waiting on mu and will pick up fn.
		if t.Stop() {
			t.Reset(d.interval)
		}
		return
	}

	d.inflight.Add(1)
	d.timers[key] = time.AfterFunc(d.interval, func() {
		defer d.inflight.Done()

		d.mu.Lock()
		run := d.pending[key]
		delete(d.pending, key)
		delete(d.timers, key)
		stopped := d.stopped
		d.mu.Unlock()

		if run != nil && !stopped {
			run()
		}
	})
}

// stopAndWait rejects new work, cancels pending timers and waits up to
// timeout for callbacks already running.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.inflight.Done()
		}
		delete(d.timers, key)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}
