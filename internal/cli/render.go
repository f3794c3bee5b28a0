package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/render/svg"
)

// Output formats.
const (
	formatSVG  = "svg"
	formatJSON = "json"
	formatPDF  = "pdf"
	formatPNG  = "png"

	defaultPixelScale = 2
)

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatSVG: true, formatJSON: true, formatPDF: true, formatPNG: true}

// renderCommand creates the render command, which exports the current view
// as a static image or JSON.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formats    string
		pixelScale float64
		view       viewFlags
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render the graph to SVG, PDF, PNG or JSON",
		Long: `Render the graph view to static files.

The view is built exactly as the interactive viewer builds it: the layout is
applied, then the search and neighbor filters, then the node limit. Colors
follow the selected node and the theme. Nodes without a position (force
layout) are placed by Graphviz.

PDF and PNG output need rsvg-convert on the PATH.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := parseFormats(formats)
			if err := validateFormats(fs); err != nil {
				return err
			}
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd.Context(), input, output, fs, pixelScale, view)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().Float64Var(&pixelScale, "pixel-scale", defaultPixelScale, "PNG pixels per point")
	view.register(cmd)

	return cmd
}

// parseFormats splits the --format flag. Empty means svg.
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'json', 'pdf', or 'png')", f)
		}
	}
	return nil
}

// outputPaths maps each format to its file. A single format writes to
// output as given; several formats share the base path.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, input, output string, formats []string, pixelScale float64, view viewFlags) error {
	s, err := c.openSession(ctx, sessionOptions{noCache: view.noCache, layout: view.layout, src: fileSource(input)})
	if err != nil {
		return err
	}
	defer s.Close()

	if err := c.applyView(s, view); err != nil {
		return err
	}

	snap := s.engine.View().Clone()
	opts := svg.Options{
		Styler: s.engine.Styler(),
		Scale:  s.engine.Camera().State().ZoomScale,
	}
	paths := outputPaths(output, input, formats)

	for _, format := range formats {
		path := paths[format]
		data, err := renderFormat(ctx, snap, format, opts, pixelScale)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		c.Logger.Debug("rendered", "format", format, "bytes", len(data))
	}

	printSuccess("Rendered %d nodes", len(snap.Nodes))
	for _, format := range formats {
		printFile(paths[format])
	}
	printStatus(s.engine.Status(), len(snap.Links))
	return nil
}

func renderFormat(ctx context.Context, snap *graph.Snapshot, format string, opts svg.Options, pixelScale float64) ([]byte, error) {
	switch format {
	case formatJSON:
		return graph.Marshal(snap)
	case formatPDF:
		return svg.RenderPDF(ctx, snap, opts)
	case formatPNG:
		return svg.RenderPNG(ctx, snap, opts, pixelScale)
	default:
		return svg.Render(ctx, snap, opts)
	}
}
