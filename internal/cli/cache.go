package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dogeow/wikigraph/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the graph document cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. It clears the
// configured backend, which for redis means every key under the prefix.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached graph documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config().Cache
			switch cfg.Backend {
			case config.CacheNone, config.CacheMemory:
				printInfo("The %s cache keeps nothing between runs", cfg.Backend)
				return nil
			}

			store, err := c.newCache(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear %s cache: %w", cfg.Backend, err)
			}
			printSuccess("Cleared the %s cache", cfg.Backend)
			if cfg.Backend == config.CacheFile {
				printDetail("Directory: %s", cfg.Dir)
			} else {
				printDetail("Prefix: %s on %s", cfg.Redis.Prefix, cfg.Redis.Addr)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(stdout, c.config().Cache.Dir)
			return nil
		},
	}
}
