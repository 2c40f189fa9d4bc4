// Package schedule provides the debounce timers used for deferred saves.
package schedule

import (
	"sync"
	"time"
)

// Scheduler runs at most one pending callback. Scheduling again replaces the
// pending callback and restarts the delay.
type Scheduler interface {
	Schedule(d time.Duration, fn func())
	Cancel()
	Pending() bool
}

// Timer is a Scheduler backed by time.AfterFunc.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewTimer() *Timer {
	return &Timer{}
}

func (t *Timer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		// A callback that fired after being replaced or cancelled is stale.
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
}

func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Manual is a Scheduler driven by Advance, for deterministic tests.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	due     time.Duration
	fn      func()
	history []time.Duration
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Schedule(d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.due = m.now + d
	m.fn = fn
	m.history = append(m.history, d)
}

func (m *Manual) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = nil
}

func (m *Manual) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fn != nil
}

// Advance moves the clock forward by d and runs the pending callback if it
// became due. It reports whether a callback ran.
func (m *Manual) Advance(d time.Duration) bool {
	m.mu.Lock()
	m.now += d
	if m.fn == nil || m.now < m.due {
		m.mu.Unlock()
		return false
	}
	fn := m.fn
	m.fn = nil
	m.mu.Unlock()
	fn()
	return true
}

// Fire runs the pending callback immediately.
func (m *Manual) Fire() bool {
	m.mu.Lock()
	fn := m.fn
	m.fn = nil
	m.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Delays returns every delay passed to Schedule, oldest first.
func (m *Manual) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.history...)
}
