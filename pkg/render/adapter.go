package render

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/observability"
)

var (
	// ErrNotAttached is the cause reported when no renderer is attached.
	ErrNotAttached = errors.New("no renderer attached")
	// ErrUnsupported is the cause reported when a capability is missing.
	ErrUnsupported = errors.New("capability not supported")
)

// Adapter is the engine's only door into the renderer. Every method recovers
// panics and reports missing capabilities as RENDER_ADAPTER errors, which
// are logged at warn level and returned for callers that care. None of them
// are fatal.
type Adapter struct {
	logger *log.Logger

	mu sync.RWMutex
	r  Renderer
}

// NewAdapter creates an adapter with no renderer attached.
func NewAdapter(logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Adapter{logger: logger}
}

// Attach sets the renderer. A nil renderer detaches.
func (a *Adapter) Attach(r Renderer) {
	a.mu.Lock()
	a.r = r
	a.mu.Unlock()
}

// Renderer returns the attached renderer, or nil.
func (a *Adapter) Renderer() Renderer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.r
}

// SetGraphData hands a snapshot to the renderer.
func (a *Adapter) SetGraphData(s *graph.Snapshot) error {
	return a.call("setGraphData", func(r Renderer) error {
		r.SetGraphData(s)
		return nil
	})
}

// SetStyler passes styling callbacks to a [Styled] renderer.
func (a *Adapter) SetStyler(s Styler) error {
	return a.call("setStyler", func(r Renderer) error {
		st, ok := r.(Styled)
		if !ok {
			return ErrUnsupported
		}
		st.SetStyler(s)
		return nil
	})
}

// PauseAnimation pauses the render loop.
func (a *Adapter) PauseAnimation() error {
	return a.call("pauseAnimation", func(r Renderer) error {
		an, ok := r.(Animator)
		if !ok {
			return ErrUnsupported
		}
		an.PauseAnimation()
		return nil
	})
}

// ResumeAnimation resumes the render loop.
func (a *Adapter) ResumeAnimation() error {
	return a.call("resumeAnimation", func(r Renderer) error {
		an, ok := r.(Animator)
		if !ok {
			return ErrUnsupported
		}
		an.ResumeAnimation()
		return nil
	})
}

// Reheat restarts the simulation.
func (a *Adapter) Reheat() error {
	return a.call("reheatSimulation", func(r Renderer) error {
		s, ok := r.(Simulator)
		if !ok {
			return ErrUnsupported
		}
		s.ReheatSimulation()
		return nil
	})
}

// Wake reheats the simulation and resumes animation. Both calls are
// attempted even if the first fails; the first error is returned.
func (a *Adapter) Wake() error {
	err := a.Reheat()
	if rerr := a.ResumeAnimation(); err == nil {
		err = rerr
	}
	return err
}

// ZoomScale returns the current zoom factor.
func (a *Adapter) ZoomScale() (k float64, err error) {
	err = a.call("zoom", func(r Renderer) error {
		v, ok := r.(Viewport)
		if !ok {
			return ErrUnsupported
		}
		k = v.ZoomScale()
		return nil
	})
	return k, err
}

// SetZoom sets the zoom factor over d.
func (a *Adapter) SetZoom(k float64, d time.Duration) error {
	return a.call("zoom", func(r Renderer) error {
		v, ok := r.(Viewport)
		if !ok {
			return ErrUnsupported
		}
		v.SetZoom(k, d)
		return nil
	})
}

// CenterAt pans so that (x, y) in graph space is at the viewport center.
func (a *Adapter) CenterAt(x, y float64, d time.Duration) error {
	return a.call("centerAt", func(r Renderer) error {
		v, ok := r.(Viewport)
		if !ok {
			return ErrUnsupported
		}
		v.CenterAt(x, y, d)
		return nil
	})
}

// ViewportCenter returns the graph-space point under the screen center.
func (a *Adapter) ViewportCenter() (p Point, err error) {
	err = a.call("screen2GraphCoords", func(r Renderer) error {
		v, ok := r.(Viewport)
		if !ok {
			return ErrUnsupported
		}
		w, h := v.Size()
		p.X, p.Y = v.ScreenToGraph(w/2, h/2)
		return nil
	})
	return p, err
}

// ZoomBehavior returns the zoom behavior once the renderer has built it.
func (a *Adapter) ZoomBehavior() (zb ZoomBehavior, err error) {
	err = a.call("zoomBehavior", func(r Renderer) error {
		zc, ok := r.(ZoomController)
		if !ok {
			return ErrUnsupported
		}
		b, ok := zc.ZoomBehavior()
		if !ok || b == nil {
			return errs.New(errs.ErrCodeNotReady, "zoom behavior not constructed")
		}
		zb = b
		return nil
	})
	return zb, err
}

// Bind connects an [EventSource] renderer to ev.
func (a *Adapter) Bind(ev Events) error {
	return a.call("bind", func(r Renderer) error {
		es, ok := r.(EventSource)
		if !ok {
			return ErrUnsupported
		}
		es.Bind(ev)
		return nil
	})
}

// Ready returns the renderer's readiness channel, or nil if it has none.
func (a *Adapter) Ready() <-chan struct{} {
	r := a.Renderer()
	if rn, ok := r.(ReadyNotifier); ok {
		return rn.Ready()
	}
	return nil
}

// call runs fn against the attached renderer, converting panics and errors
// into logged RENDER_ADAPTER errors.
func (a *Adapter) call(op string, fn func(Renderer) error) (err error) {
	r := a.Renderer()
	if r == nil {
		return a.fail(op, ErrNotAttached, log.DebugLevel)
	}
	defer func() {
		if p := recover(); p != nil {
			err = a.fail(op, fmt.Errorf("panic: %v", p), log.WarnLevel)
		}
	}()
	if ferr := fn(r); ferr != nil {
		if errs.Is(ferr, errs.ErrCodeNotReady) {
			return a.fail(op, ferr, log.DebugLevel)
		}
		return a.fail(op, ferr, log.WarnLevel)
	}
	return nil
}

func (a *Adapter) fail(op string, cause error, level log.Level) error {
	err := errs.RenderAdapterError(op, cause)
	a.logger.Log(level, "renderer call failed", "op", op, "err", cause)
	if level >= log.WarnLevel {
		observability.Engine().OnRendererError(op, err)
	}
	return err
}
