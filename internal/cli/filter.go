package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dogeow/wikigraph/pkg/graph"
)

// filterCommand creates the filter command, which lists the nodes the
// viewer would show.
func (c *CLI) filterCommand() *cobra.Command {
	var (
		asJSON bool
		view   viewFlags
	)

	cmd := &cobra.Command{
		Use:   "filter [query]",
		Short: "List the nodes visible for a query or selection",
		Long: `List the nodes the viewer shows for a search query, a selected node or
both. A query keeps the matching nodes and their direct neighbors. With
--neighbors only the selected node and its neighbors remain.`,
		Example: `  wikigraph filter golang
  wikigraph filter --select 12 --neighbors
  wikigraph filter --json rust > rust.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				view.query = args[0]
			}
			return c.runFilter(cmd.Context(), view, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "write the view as JSON instead of a table")
	view.register(cmd)
	cmd.Flags().Lookup("query").Hidden = true

	return cmd
}

func (c *CLI) runFilter(ctx context.Context, view viewFlags, asJSON bool) error {
	s, err := c.openSession(ctx, sessionOptions{noCache: view.noCache, layout: view.layout})
	if err != nil {
		return err
	}
	defer s.Close()

	if err := c.applyView(s, view); err != nil {
		return err
	}

	snap := s.engine.View()
	if asJSON {
		return graph.Write(snap.Clone(), stdout)
	}

	st := s.engine.Status()
	if len(snap.Nodes) == 0 {
		printWarning("No nodes match")
	} else {
		fmt.Fprintln(stdout, nodeTable(snap.Nodes, st.Active, s.engine.Machine().Neighbors()))
	}
	printStatus(st, len(snap.Links))
	return nil
}
