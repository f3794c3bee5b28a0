package scheduler

import (
	"sort"
	"time"
)

// Manual is a deterministic [Scheduler] driven by explicit calls. Nothing
// runs until [Manual.Flush], [Manual.Frame] or [Manual.Advance] is called.
// It is not safe for concurrent use.
type Manual struct {
	now    time.Duration
	seq    int
	tasks  []func()
	frames []*entry
	timers []*timer
}

type timer struct {
	entry
	at  time.Duration
	seq int
}

// NewManual creates a manual scheduler with its clock at zero.
func NewManual() *Manual {
	return &Manual{}
}

// Post implements [Scheduler].
func (m *Manual) Post(fn func()) {
	m.tasks = append(m.tasks, fn)
}

// RequestFrame implements [Scheduler].
func (m *Manual) RequestFrame(fn func()) CancelFunc {
	e := &entry{fn: fn}
	m.frames = append(m.frames, e)
	return func() { e.canceled.Store(true) }
}

// After implements [Scheduler].
func (m *Manual) After(d time.Duration, fn func()) CancelFunc {
	m.seq++
	t := &timer{at: m.now + d, seq: m.seq}
	t.fn = fn
	m.timers = append(m.timers, t)
	return func() { t.canceled.Store(true) }
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration { return m.now }

// Flush runs posted tasks until the queue is empty.
func (m *Manual) Flush() {
	for len(m.tasks) > 0 {
		fn := m.tasks[0]
		m.tasks = m.tasks[1:]
		fn()
	}
}

// Frame flushes tasks, then runs the callbacks requested before this call.
func (m *Manual) Frame() {
	m.Flush()
	frames := m.frames
	m.frames = nil
	for _, e := range frames {
		if !e.canceled.Load() {
			e.fn()
		}
	}
	m.Flush()
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Tasks posted by a timer run before the next timer fires.
func (m *Manual) Advance(d time.Duration) {
	m.Flush()
	target := m.now + d
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.at
		if !t.canceled.Load() {
			t.fn()
		}
		m.Flush()
	}
	m.now = target
}

// Pending returns the number of queued tasks, frame callbacks and live timers.
func (m *Manual) Pending() (tasks, frames, timers int) {
	for _, e := range m.frames {
		if !e.canceled.Load() {
			frames++
		}
	}
	for _, t := range m.timers {
		if !t.canceled.Load() {
			timers++
		}
	}
	return len(m.tasks), frames, timers
}

func (m *Manual) nextDue(target time.Duration) *timer {
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at != m.timers[j].at {
			return m.timers[i].at < m.timers[j].at
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	if len(m.timers) == 0 || m.timers[0].at > target {
		return nil
	}
	t := m.timers[0]
	m.timers = m.timers[1:]
	return t
}

var _ Scheduler = (*Manual)(nil)
