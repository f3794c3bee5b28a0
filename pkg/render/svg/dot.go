package svg

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/render"
	"github.com/dogeow/wikigraph/pkg/render/style"
)

// Options configures the export.
type Options struct {
	// Styler colors and sizes nodes and links. Nil uses the light palette
	// with nothing highlighted.
	Styler render.Styler

	// Scale is the zoom level labels are laid out for. Zero means 1.
	Scale float64
}

// ToDOT converts s to undirected Graphviz DOT. Positions are graph units,
// written as points with the y axis flipped.
func ToDOT(s *graph.Snapshot, opts Options) string {
	st := opts.Styler
	if st == nil {
		st = style.New(style.Light(), nil)
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  overlap=false;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", dotColor(st.Background()))
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, label=\"\", penwidth=0];\n")
	buf.WriteString("  edge [len=1.5];\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", string(n.ID), strings.Join(nodeAttrs(n, st.PaintNode(n, scale)), ", "))
	}

	buf.WriteString("\n")
	for _, l := range s.Links {
		fmt.Fprintf(&buf, "  %q -- %q [color=%q, penwidth=%s];\n",
			string(l.Source.ID()), string(l.Target.ID()),
			dotColor(st.LinkColor(l)), num(st.LinkWidth(l)))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *graph.Node, p render.NodePaint) []string {
	attrs := []string{
		fmt.Sprintf("fillcolor=%q", dotColor(p.Fill)),
		"width=" + num(2*p.Radius/72),
	}
	if x, y, ok := n.Position(); ok {
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", num(x), num(-y)))
	}
	if p.ShowLabel && p.Label != "" {
		attrs = append(attrs,
			fmt.Sprintf("xlabel=%q", p.Label),
			fmt.Sprintf("fontcolor=%q", dotColor(p.LabelColor)),
			"fontsize="+num(p.FontSize),
		)
	}
	return attrs
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var rgbaRe = regexp.MustCompile(`^rgba?\(\s*([0-9.]+)\s*,\s*([0-9.]+)\s*,\s*([0-9.]+)\s*(?:,\s*([0-9.]+)\s*)?\)$`)

// dotColor rewrites CSS rgb()/rgba() colors as #rrggbb[aa], which Graphviz
// understands. Other values pass through.
func dotColor(c string) string {
	m := rgbaRe.FindStringSubmatch(strings.TrimSpace(c))
	if m == nil {
		return c
	}
	channel := func(v float64) int {
		return int(math.Max(0, math.Min(255, math.Round(v))))
	}
	parse := func(s string) float64 {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	out := fmt.Sprintf("#%02x%02x%02x", channel(parse(m[1])), channel(parse(m[2])), channel(parse(m[3])))
	if m[4] != "" {
		out += fmt.Sprintf("%02x", channel(parse(m[4])*255))
	}
	return out
}

// =============================================================================
// Rendering
// =============================================================================

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Render converts s to DOT and renders it to SVG.
func Render(ctx context.Context, s *graph.Snapshot, opts Options) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(s, opts))
}

// RenderPDF renders s as PDF via SVG. Requires rsvg-convert.
func RenderPDF(ctx context.Context, s *graph.Snapshot, opts Options) ([]byte, error) {
	svg, err := Render(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders s as PNG via SVG at the given pixel scale. Requires
// rsvg-convert.
func RenderPNG(ctx context.Context, s *graph.Snapshot, opts Options, pixelScale float64) ([]byte, error) {
	svg, err := Render(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, pixelScale)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
