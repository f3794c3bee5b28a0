// Package render defines the contract between the graph engine and the
// rendering/physics collaborator that draws it.
//
// # Capabilities
//
// The only required method is [Renderer.SetGraphData]. Everything else is an
// optional capability discovered by type assertion, so a renderer that has
// not finished mounting, or one that simply cannot animate, is still usable:
//
//   - [Animator]: pause and resume the animation loop
//   - [Simulator]: reheat the physics simulation
//   - [Viewport]: zoom, center, and the screen to graph transform
//   - [ZoomController]: access to the zoom gesture filter, once constructed
//   - [ReadyNotifier]: a channel closed once the zoom controller exists
//   - [Styled]: receives the [Styler] that colors nodes and links
//   - [EventSource]: reports pointer and zoom activity to [Events]
//
// # Adapter
//
// The engine never calls a renderer directly. [Adapter] wraps every call so
// that a panic or a missing capability becomes a logged RENDER_ADAPTER error
// instead of aborting the interaction that triggered it.
//
//	a := render.NewAdapter(logger)
//	a.Attach(r)
//	a.Reheat() // no-op with a warning if r is not a Simulator
//
// # Events
//
// Renderers report pointer and zoom activity through [Events], which the
// engine implements. Events must be delivered on the engine's scheduler;
// renderers fed from another goroutine post them there first.
//
// # Export
//
// The svg subpackage writes positioned snapshots as Graphviz DOT and
// SVG. [ToPDF] and [ToPNG] convert SVG output with rsvg-convert.
package render
