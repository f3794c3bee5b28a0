package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Loop is a real-time [Scheduler] backed by a single goroutine.
// Callbacks posted before [Loop.Run] is called are kept until it starts.
type Loop struct {
	frameInterval time.Duration
	logger        *log.Logger

	mu      sync.Mutex
	tasks   []func()
	frames  []*entry
	wake    chan struct{}
	stopped bool
	running atomic.Bool
}

// entry is a cancellable callback.
type entry struct {
	fn       func()
	canceled atomic.Bool
}

// LoopOption configures a [Loop].
type LoopOption func(*Loop)

// WithFrameInterval overrides [DefaultFrameInterval].
func WithFrameInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.frameInterval = d
		}
	}
}

// WithLogger sets the logger used to report panicking callbacks.
func WithLogger(logger *log.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates a stopped loop. Call [Loop.Run] to start it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		frameInterval: DefaultFrameInterval,
		logger:        log.NewWithOptions(io.Discard, log.Options{}),
		wake:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post implements [Scheduler].
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// RequestFrame implements [Scheduler].
func (l *Loop) RequestFrame(fn func()) CancelFunc {
	e := &entry{fn: fn}
	l.mu.Lock()
	if !l.stopped {
		l.frames = append(l.frames, e)
	}
	l.mu.Unlock()
	return func() { e.canceled.Store(true) }
}

// After implements [Scheduler]. The timer fires on its own goroutine and
// hands fn to the loop, so fn still runs serialized with everything else.
func (l *Loop) After(d time.Duration, fn func()) CancelFunc {
	e := &entry{fn: fn}
	t := time.AfterFunc(d, func() {
		if e.canceled.Load() {
			return
		}
		l.Post(func() {
			if !e.canceled.Load() {
				e.fn()
			}
		})
	})
	return func() {
		e.canceled.Store(true)
		t.Stop()
	}
}

// Running reports whether Run is executing.
func (l *Loop) Running() bool { return l.running.Load() }

// Run executes callbacks until ctx is done. A loop runs at most once.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.mu.Unlock()

	l.running.Store(true)
	defer l.running.Store(false)

	ticker := time.NewTicker(l.frameInterval)
	defer ticker.Stop()

	for {
		l.drain()
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			l.tasks, l.frames = nil, nil
			l.mu.Unlock()
			return ctx.Err()
		case <-l.wake:
		case <-ticker.C:
			l.frame()
		}
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// drain runs queued tasks, including tasks they post, until none remain.
func (l *Loop) drain() {
	for {
		l.mu.Lock()
		tasks := l.tasks
		l.tasks = nil
		l.mu.Unlock()
		if len(tasks) == 0 {
			return
		}
		for _, fn := range tasks {
			l.safe(fn)
		}
	}
}

func (l *Loop) frame() {
	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	l.mu.Unlock()
	for _, e := range frames {
		if !e.canceled.Load() {
			l.safe(e.fn)
		}
	}
}

func (l *Loop) safe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("scheduled callback panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

var _ Scheduler = (*Loop)(nil)
