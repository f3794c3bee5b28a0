package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dogeow/wikigraph/pkg/engine"
	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/source"
)

// nodeCommand creates the node editing commands.
func (c *CLI) nodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Create, update and delete nodes",
		Long: `Create, update and delete nodes through the wiki API.

Editing needs an http source and usually a token (user.token in the config).
The cached graph document is dropped after every change.`,
	}

	cmd.AddCommand(c.nodeCreateCommand())
	cmd.AddCommand(c.nodeUpdateCommand())
	cmd.AddCommand(c.nodeDeleteCommand())

	return cmd
}

func registerNodeInput(cmd *cobra.Command, in *source.NodeInput) {
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "node title")
	cmd.Flags().StringVar(&in.Slug, "slug", "", "article slug")
	cmd.Flags().StringSliceVar(&in.Tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringVar(&in.Summary, "summary", "", "short summary")
}

func (c *CLI) nodeCreateCommand() *cobra.Command {
	var in source.NodeInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutate(cmd.Context(), func(ctx context.Context, client *source.Client) error {
				n, err := client.CreateNode(ctx, in)
				if err != nil {
					return err
				}
				printSuccess("Created node %s", StyleHighlight.Render(string(n.ID)))
				printKeyValue("title", n.Title)
				return nil
			})
		},
	}
	registerNodeInput(cmd, &in)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (c *CLI) nodeUpdateCommand() *cobra.Command {
	var in source.NodeInput
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(ctx context.Context, client *source.Client) error {
				n, err := client.UpdateNode(ctx, id, in)
				if err != nil {
					return err
				}
				printSuccess("Updated node %s", StyleHighlight.Render(string(n.ID)))
				return nil
			})
		},
	}
	registerNodeInput(cmd, &in)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (c *CLI) nodeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a node and its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.mutate(cmd.Context(), func(ctx context.Context, client *source.Client) error {
				if err := client.DeleteNode(ctx, id); err != nil {
					return err
				}
				printSuccess("Deleted node %d", id)
				return nil
			})
		},
	}
}

// linkCommand creates the link editing commands.
func (c *CLI) linkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Create links between nodes",
	}

	var linkType string
	create := &cobra.Command{
		Use:   "create <source-id> <target-id>",
		Short: "Link two nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseID(args[0])
			if err != nil {
				return err
			}
			to, err := parseID(args[1])
			if err != nil {
				return err
			}
			in := source.LinkInput{SourceID: from, TargetID: to, Type: linkType}
			return c.mutate(cmd.Context(), func(ctx context.Context, client *source.Client) error {
				if _, err := client.CreateLink(ctx, in); err != nil {
					return err
				}
				printSuccess("Linked %d %s %d", from, iconArrow, to)
				return nil
			})
		},
	}
	create.Flags().StringVar(&linkType, "type", "", "link type")
	cmd.AddCommand(create)

	return cmd
}

// mutate runs fn against the API and drops the cached graph document.
func (c *CLI) mutate(ctx context.Context, fn func(ctx context.Context, client *source.Client) error) error {
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if err := fn(ctx, client); err != nil {
		return err
	}

	src, cleanup, err := c.newSource(ctx, false)
	if err != nil {
		c.Logger.Warn("could not open the graph cache", "err", err)
		return nil
	}
	defer cleanup()
	if inv, ok := src.(engine.Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			c.Logger.Warn("cache invalidation failed", "err", err)
		}
	}
	return nil
}

// parseID parses a numeric node id as the API expects it.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.New(errs.ErrCodeInvalidInput, "node id must be a positive integer, got %q", s)
	}
	return id, nil
}
