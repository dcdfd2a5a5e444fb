// Package scheduler keeps named, cancellable one-shot timers tied to an owner's lifetime.
package scheduler

import (
	"sync"
	"time"
)

type Scheduler struct {
	mu         sync.Mutex
	timers     map[string]*time.Timer
	generation uint64
	closed     bool
}

func New() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
	}
}

// Schedule runs fn once after delay. A timer already registered under name is replaced.
func (that *Scheduler) Schedule(name string, delay time.Duration, fn func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.stopLocked(name)
	that.startLocked(name, delay, fn)
}

// ScheduleOnce registers fn only if nothing is pending under name and reports whether it did.
func (that *Scheduler) ScheduleOnce(name string, delay time.Duration, fn func()) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	if _, pending := that.timers[name]; pending {
		return false
	}

	that.startLocked(name, delay, fn)

	return true
}

func (that *Scheduler) Pending(name string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.timers[name]
	return ok
}

func (that *Scheduler) Cancel(name string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stopLocked(name)
}

// CancelAll stops every pending timer. Timers that already fired but have not run yet are dropped too.
func (that *Scheduler) CancelAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelAllLocked()
}

// Close cancels everything and refuses new timers.
func (that *Scheduler) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelAllLocked()
	that.closed = true
}

func (that *Scheduler) cancelAllLocked() {
	for name := range that.timers {
		that.stopLocked(name)
	}

	that.generation++
}

func (that *Scheduler) startLocked(name string, delay time.Duration, fn func()) {
	generation := that.generation

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		that.mu.Lock()
		current, ok := that.timers[name]
		if !ok || current != timer || that.generation != generation {
			that.mu.Unlock()
			return
		}
		delete(that.timers, name)
		that.mu.Unlock()

		fn()
	})

	that.timers[name] = timer
}

func (that *Scheduler) stopLocked(name string) {
	if timer, ok := that.timers[name]; ok {
		timer.Stop()
		delete(that.timers, name)
	}
}
