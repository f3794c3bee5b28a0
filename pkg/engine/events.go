package engine

import (
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/render"
)

// OnZoom records the camera.
func (e *Engine) OnZoom(t render.Transform) { e.camera.OnZoom(t) }

// OnNodeClick toggles the selection and schedules a camera restore.
func (e *Engine) OnNodeClick(n *graph.Node) { e.machine.Click(n) }

// OnNodeHover tracks the hovered node; nil means the pointer left.
func (e *Engine) OnNodeHover(n *graph.Node) {
	if n == nil {
		e.machine.PointerLeave(nil)
		return
	}
	e.machine.PointerEnter(n)
}

func (e *Engine) OnNodeDrag(n *graph.Node)       { e.machine.DragStart(n) }
func (e *Engine) OnNodeDragEnd(n *graph.Node)    { e.machine.DragEnd(n) }
func (e *Engine) OnNodeRightClick(n *graph.Node) { e.machine.RightClick(n) }

// OnEngineStop pauses animation once the simulation has cooled down.
func (e *Engine) OnEngineStop() { e.machine.EngineStopped() }
