package camera

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dogeow/wikigraph/pkg/render"
	"github.com/dogeow/wikigraph/pkg/scheduler"
)

// Install polling defaults.
const (
	DefaultInstallInterval = 300 * time.Millisecond
	DefaultInstallAttempts = 20
)

// ZoomSource provides the zoom behavior. [render.Adapter] implements it.
type ZoomSource interface {
	ZoomBehavior() (render.ZoomBehavior, error)
	Ready() <-chan struct{}
}

// Installer installs a [GestureGuard] once the zoom behavior exists. All
// methods must be called from the scheduler that was passed in.
type Installer struct {
	src         ZoomSource
	sched       scheduler.Scheduler
	interval    time.Duration
	maxAttempts int
	logger      *log.Logger

	guard    *GestureGuard
	attempts int
	cancel   scheduler.CancelFunc
	done     bool

	stopOnce sync.Once
	stop     chan struct{}
}

// NewInstaller creates an installer. Non-positive interval or attempts use
// the defaults.
func NewInstaller(src ZoomSource, sched scheduler.Scheduler, interval time.Duration, maxAttempts int, logger *log.Logger) *Installer {
	if interval <= 0 {
		interval = DefaultInstallInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultInstallAttempts
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Installer{
		src:         src,
		sched:       sched,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
		stop:        make(chan struct{}),
	}
}

// Start begins waiting for the zoom behavior. If it already exists the
// guard is installed immediately. Renderers with a ready channel are
// waited on without polling.
func (i *Installer) Start() {
	if i.done {
		return
	}
	if i.tryInstall(); i.done {
		return
	}
	if ready := i.src.Ready(); ready != nil {
		go func() {
			select {
			case <-ready:
				i.sched.Post(func() {
					if !i.done {
						i.tryInstall()
					}
				})
			case <-i.stop:
			}
		}()
		return
	}
	i.cancel = i.sched.After(i.interval, i.poll)
}

func (i *Installer) poll() {
	if i.done {
		return
	}
	i.attempts++
	if i.tryInstall(); i.done {
		return
	}
	if i.attempts >= i.maxAttempts {
		i.done = true
		i.logger.Debug("zoom behavior never appeared, gesture guard not installed", "attempts", i.attempts)
		return
	}
	i.cancel = i.sched.After(i.interval, i.poll)
}

// tryInstall sets done on success and when the renderer has no zoom
// controller at all.
func (i *Installer) tryInstall() {
	zb, err := i.src.ZoomBehavior()
	if errors.Is(err, render.ErrUnsupported) {
		i.done = true
		return
	}
	if err != nil {
		return
	}
	i.guard = Install(zb, i.logger)
	i.done = true
	i.logger.Debug("gesture guard installed", "attempts", i.attempts)
}

// Installed reports whether the guard is in place.
func (i *Installer) Installed() bool { return i.guard != nil && i.guard.Active() }

// Done reports whether the installer stopped waiting, successfully or not.
func (i *Installer) Done() bool { return i.done }

// Attempts returns the number of polls made so far.
func (i *Installer) Attempts() int { return i.attempts }

// Guard returns the installed guard, or nil.
func (i *Installer) Guard() *GestureGuard { return i.guard }

// Close stops waiting and restores the original filter.
func (i *Installer) Close() {
	i.done = true
	if i.cancel != nil {
		i.cancel()
	}
	i.stopOnce.Do(func() { close(i.stop) })
	if i.guard != nil {
		i.guard.Restore()
	}
}
