package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/source"
)

// layoutCommand creates the layout command, which writes the positioned
// view as JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		view   viewFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Lay out the graph and write positioned JSON",
		Long: `Lay out the graph and write the positioned view as JSON.

The graph comes from the configured source, or from graph.json when given.
Static layouts (tree, circle, grid) assign every position; the force layout
leaves positions to the renderer, so its output carries none.

The output has the same shape as the graph document and can be rendered with
'render' or served as a file source.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runLayout(cmd.Context(), input, output, view)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	view.register(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, view viewFlags) error {
	s, err := c.openSession(ctx, sessionOptions{noCache: view.noCache, layout: view.layout, src: fileSource(input)})
	if err != nil {
		return err
	}
	defer s.Close()

	if err := c.applyView(s, view); err != nil {
		return err
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input) + ".layout.json"
	}
	snap := s.engine.View().Clone()
	if err := graph.WriteFile(snap, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStatus(s.engine.Status(), len(snap.Links))
	return nil
}

// fileSource returns a file source for path, or nil for the configured
// source.
func fileSource(path string) source.Source {
	if path == "" {
		return nil
	}
	return source.NewFile(path)
}

// basePath derives an output base path. Known format extensions are
// stripped from output; without output the input name is used, or
// "graph" when the graph came from the configured source.
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return "graph"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
