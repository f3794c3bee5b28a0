package camera

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/dogeow/wikigraph/pkg/render"
)

// GestureGuard wraps a zoom behavior's gesture filter.
type GestureGuard struct {
	zb       render.ZoomBehavior
	original render.GestureFilter
	logger   *log.Logger
	active   bool
}

// Install replaces zb's filter with the guard and remembers the original.
func Install(zb render.ZoomBehavior, logger *log.Logger) *GestureGuard {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	g := &GestureGuard{zb: zb, original: zb.Filter(), logger: logger, active: true}
	zb.SetFilter(g.Allow)
	return g
}

// Allow is the guarded filter.
func (g *GestureGuard) Allow(ev *render.GestureEvent) (ok bool) {
	if ev == nil || ev.Type == "" {
		return true
	}
	if ev.Type == render.EventClick || ev.Type == render.EventDblClick {
		return false
	}
	if g.original == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("zoom filter failed, allowing gesture", "event", ev.Type, "panic", fmt.Sprint(r))
			ok = true
		}
	}()
	return g.original(ev)
}

// Active reports whether the guard is installed.
func (g *GestureGuard) Active() bool { return g.active }

// Restore reinstalls the original filter. It is safe to call twice.
func (g *GestureGuard) Restore() {
	if !g.active {
		return
	}
	g.zb.SetFilter(g.original)
	g.active = false
}
