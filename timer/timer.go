// Package timer tracks time spent on the current job.
package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotStarted is returned when reading a timer that was never started.
var ErrNotStarted = errors.New("timer: not started")

// Timer accumulates running time across start/stop intervals. It is
// safe for concurrent use.
type Timer struct {
	mu      sync.Mutex
	now     func() time.Time
	started bool
	running bool
	since   time.Time
	total   time.Duration
}

// New returns a stopped timer using the wall clock.
func New() *Timer {
	return NewWithClock(time.Now)
}

// NewWithClock returns a timer reading time from now.
func NewWithClock(now func() time.Time) *Timer {
	return &Timer{now: now}
}

// Start resumes timing. Starting a running timer does nothing.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.started = true
	t.running = true
	t.since = t.now()
}

// Stop pauses timing and returns the total elapsed time.
func (t *Timer) Stop() (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return 0, ErrNotStarted
	}
	if t.running {
		t.total += t.now().Sub(t.since)
		t.running = false
	}
	return t.total, nil
}

// Toggle starts a stopped timer or stops a running one, returning
// whether it is now running.
func (t *Timer) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.total += t.now().Sub(t.since)
		t.running = false
		return false
	}
	t.started = true
	t.running = true
	t.since = t.now()
	return true
}

// Running reports whether the timer is currently timing.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Elapsed returns the total time spent running so far.
func (t *Timer) Elapsed() (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return 0, ErrNotStarted
	}
	d := t.total
	if t.running {
		d += t.now().Sub(t.since)
	}
	return d, nil
}

// Reset clears the timer back to never-started.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	t.running = false
	t.total = 0
}

// Format renders d the way job lists show it: "3h 15m", or "2d 11h 6m"
// once it exceeds a day.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d / time.Minute)
	days := mins / (24 * 60)
	hours := (mins / 60) % 24
	mins %= 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}
