// Package svg exports a positioned graph snapshot as a static image.
//
// [ToDOT] writes Graphviz DOT with the colors, sizes and labels a
// [render.Styler] would give the live view. Nodes that carry a position are
// pinned there; the rest are placed by Graphviz's neato spring model, which
// stands in for the force simulation the export cannot run.
//
//	dot := svg.ToDOT(snap, svg.Options{Styler: styler})
//	out, err := svg.RenderSVG(ctx, dot)
//
// Rendering runs in-process through [github.com/goccy/go-graphviz]. PDF and
// PNG output goes through librsvg (rsvg-convert), see [render.ToPDF].
package svg
