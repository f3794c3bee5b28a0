package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dogeow/wikigraph/internal/server"
	"github.com/dogeow/wikigraph/pkg/config"
	"github.com/dogeow/wikigraph/pkg/engine"
	"github.com/dogeow/wikigraph/pkg/layout"
	"github.com/dogeow/wikigraph/pkg/render/remote"
	"github.com/dogeow/wikigraph/pkg/scheduler"
	"github.com/dogeow/wikigraph/pkg/source"
)

// serveCommand creates the serve command, which runs the engine for
// browsers connected over a websocket.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph to browsers and the HTTP API",
		Long: `Run the graph engine behind an HTTP server.

Browsers draw the graph and connect to /ws; the engine drives them as its
renderer. The JSON API under /api exposes the view, the engine status and
the controls the viewer has (layout, search, neighbors, selection), plus
node and link editing for http sources. A file source with source.watch
set is reloaded whenever the file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.config().Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg := c.config()

	src, cleanup, err := c.newSource(ctx, false)
	if err != nil {
		return err
	}
	defer cleanup()

	loop := scheduler.NewLoop(scheduler.WithLogger(c.Logger.WithPrefix("scheduler")))
	rr := remote.New(loop,
		remote.WithLogger(c.Logger.WithPrefix("remote")),
		remote.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
	)
	defer rr.Close()

	kind, err := layout.ParseKind(cfg.Layout.Kind)
	if err != nil {
		return err
	}
	palette := cfg.Palette()
	e, err := engine.New(engine.Options{
		Source:          src,
		Scheduler:       loop,
		Renderer:        rr,
		Layout:          kind,
		Optimizer:       cfg.Optimizer,
		Palette:         &palette,
		Editor:          cfg.User.Editor,
		SettleDelay:     cfg.Engine.SettleDelay.Duration,
		InstallInterval: cfg.Camera.InstallInterval.Duration,
		InstallAttempts: cfg.Camera.InstallAttempts,
		Logger:          c.Logger.WithPrefix("engine"),
	})
	if err != nil {
		return err
	}

	var client *source.Client
	if cfg.Source.Kind == config.SourceHTTP {
		client, _ = c.newClient()
	}
	srv, err := server.New(server.Options{
		Engine:          e,
		Remote:          rr,
		Client:          client,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
		Logger:          c.Logger.WithPrefix("http"),
	})
	if err != nil {
		return err
	}

	var watcher *source.Watcher
	if cfg.Source.Watch {
		if watcher, err = source.NewWatcher(cfg.Source.Path, cfg.Source.Debounce.Duration, 0, c.Logger.WithPrefix("watch")); err != nil {
			return err
		}
		defer watcher.Close()
	}

	// The loop outlives the errgroup so the engine can be closed on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loopDone
	}()
	loop.Post(e.Start)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reload(ctx, c, e)
		return nil
	})
	g.Go(func() error { return srv.Run(ctx, addr) })
	if watcher != nil {
		c.Logger.Info("watching graph file", "path", cfg.Source.Path)
		g.Go(func() error {
			return watcher.Run(ctx, func() { reload(ctx, c, e) })
		})
	}

	printSuccess("Serving on %s", StyleLink.Render("http://"+addr))
	printDetail("Websocket: ws://%s/ws", addr)

	err = g.Wait()
	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = e.Do(closeCtx, e.Close)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// reload loads the graph and logs the outcome. A failed load keeps the
// previous view, so it never stops the server.
func reload(ctx context.Context, c *CLI, e *engine.Engine) {
	prog := newProgress(c.Logger)
	if err := e.Load(ctx); err != nil {
		if ctx.Err() == nil {
			c.Logger.Error("graph load failed", "err", err)
		}
		return
	}
	prog.done("graph loaded")
}
