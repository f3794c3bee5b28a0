package camera

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dogeow/wikigraph/pkg/render"
	"github.com/dogeow/wikigraph/pkg/scheduler"
)

// Viewport is the part of [render.Adapter] the controller drives.
type Viewport interface {
	SetZoom(k float64, d time.Duration) error
	CenterAt(x, y float64, d time.Duration) error
	ViewportCenter() (render.Point, error)
}

// State is the recorded camera. Center is nil until the first zoom event
// that could be mapped to graph space.
type State struct {
	ZoomScale float64
	Center    *render.Point
}

func (s State) clone() State {
	if s.Center != nil {
		c := *s.Center
		s.Center = &c
	}
	return s
}

// Controller records and replays the camera.
type Controller struct {
	vp        Viewport
	logger    *log.Logger
	state     State
	transform render.Transform
	restoring bool
}

// NewController creates a controller with zoom 1 and no center.
func NewController(vp Viewport, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Controller{
		vp:        vp,
		logger:    logger,
		state:     State{ZoomScale: 1},
		transform: render.Transform{K: 1},
	}
}

// State returns a copy of the recorded camera.
func (c *Controller) State() State { return c.state.clone() }

// Transform returns the last transform reported by the renderer.
func (c *Controller) Transform() render.Transform { return c.transform }

// Restoring reports whether a replay is in progress.
func (c *Controller) Restoring() bool { return c.restoring }

// OnZoom records a zoom event: the scale, and the graph-space point under
// the viewport center. Events raised by the controller's own replay are
// ignored.
func (c *Controller) OnZoom(t render.Transform) {
	if c.restoring {
		return
	}
	c.transform = t
	c.state.ZoomScale = t.K
	if p, err := c.vp.ViewportCenter(); err == nil {
		c.state.Center = &p
	}
}

// RestoreView replays the recorded camera with zero-duration transitions:
// one zoom call, then one center call if a center is known.
func (c *Controller) RestoreView() {
	c.RestoreTo(c.state)
}

// RestoreTo replays st and makes it the recorded camera.
func (c *Controller) RestoreTo(st State) {
	st = st.clone()
	c.restoring = true
	defer func() { c.restoring = false }()

	// Adapter errors are already logged; a failed zoom must not skip the center.
	_ = c.vp.SetZoom(st.ZoomScale, 0)
	if st.Center != nil {
		_ = c.vp.CenterAt(st.Center.X, st.Center.Y, 0)
	}
	c.state = st
	c.logger.Debug("camera restored", "k", st.ZoomScale, "center", st.Center)
}

// ScheduleRestore captures the camera now and replays it on the next frame,
// undoing any jump the renderer makes while handling the current event.
func (c *Controller) ScheduleRestore(s scheduler.Scheduler) scheduler.CancelFunc {
	st := c.State()
	return s.RequestFrame(func() { c.RestoreTo(st) })
}
