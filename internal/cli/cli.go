// Package cli implements the wikigraph command-line interface.
package cli

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dogeow/wikigraph/pkg/buildinfo"
	"github.com/dogeow/wikigraph/pkg/cache"
	"github.com/dogeow/wikigraph/pkg/config"
	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/httputil"
	"github.com/dogeow/wikigraph/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

const (
	appName = config.AppName

	// retryDelay is the first backoff between graph fetch attempts.
	retryDelay = 500 * time.Millisecond
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Wikigraph explores a wiki's knowledge graph",
		Long: `Wikigraph loads the knowledge graph of a wiki, lays it out, filters it and
renders it: to files, in the terminal, or to browsers connected over a websocket.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.Logger.Debug("config loaded", "path", c.configPath, "source", cfg.Source.Kind, "cache", cfg.Cache.Backend)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.filterCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.nodeCommand())
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config returns the loaded configuration, or the defaults when the root
// pre-run did not execute (as in tests that call commands directly).
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Factories
// =============================================================================

// newCache opens the configured cache backend.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	cfg := c.config().Cache
	switch cfg.Backend {
	case config.CacheMemory:
		return cache.NewMemory(), nil
	case config.CacheFile:
		return cache.NewFile(cfg.Dir)
	case config.CacheRedis:
		r, err := cache.DialRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeNetwork, err, "connect to redis at %s", cfg.Redis.Addr)
		}
		return r, nil
	default:
		return cache.NewNull(), nil
	}
}

// httpClient builds the client for the wiki backend from the source
// settings.
func (c *CLI) httpClient() *httputil.Client {
	cfg := c.config()
	hc := httputil.NewClient(cfg.Source.URL, cfg.Headers())
	if cfg.Source.Timeout.Duration > 0 {
		hc = hc.WithHTTPClient(&http.Client{Timeout: cfg.Source.Timeout.Duration})
	}
	if cfg.Source.Retries > 0 {
		hc = hc.WithRetry(cfg.Source.Retries, retryDelay)
	}
	return hc
}

// newSource opens the configured graph source, decorated with the cache
// unless noCache is set. The returned cleanup closes everything opened.
func (c *CLI) newSource(ctx context.Context, noCache bool) (source.Source, func(), error) {
	cfg := c.config()
	var (
		src     source.Source
		key     string
		closers []func()
	)
	switch cfg.Source.Kind {
	case config.SourceFile:
		src = source.NewFile(cfg.Source.Path)
		key = cache.Key("graph", "file", cfg.Source.Path)
	case config.SourceMongo:
		m, err := source.DialMongo(ctx, cfg.Source.Mongo)
		if err != nil {
			return nil, nil, err
		}
		src = m
		key = cache.Key("graph", "mongo", cfg.Source.Mongo.URI, cfg.Source.Mongo.Database)
		closers = append(closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = m.Close(ctx)
		})
	default:
		src = source.NewHTTPWithClient(c.httpClient())
		key = cache.Key("graph", "http", cfg.Source.URL)
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	if noCache || cfg.Cache.Backend == config.CacheNone {
		return src, cleanup, nil
	}

	store, err := c.newCache(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, func() { _ = store.Close() })
	cached := source.NewCached(src, store, key, cfg.Cache.TTL.Duration, c.Logger.WithPrefix("cache"))
	return cached, cleanup, nil
}

// newClient builds the node and link CRUD client. Only HTTP sources have
// a backend that accepts writes.
func (c *CLI) newClient() (*source.Client, error) {
	if kind := c.config().Source.Kind; kind != config.SourceHTTP {
		return nil, errs.New(errs.ErrCodeUnsupported, "editing needs an http source, configured source is %q", kind)
	}
	return source.NewClientWith(c.httpClient()), nil
}
