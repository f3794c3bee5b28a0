package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dogeow/wikigraph/pkg/config"
	"github.com/dogeow/wikigraph/pkg/engine"
	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/interaction"
	"github.com/dogeow/wikigraph/pkg/layout"
	"github.com/dogeow/wikigraph/pkg/render/headless"
	"github.com/dogeow/wikigraph/pkg/render/style"
	"github.com/dogeow/wikigraph/pkg/scheduler"
	"github.com/dogeow/wikigraph/pkg/source"
)

// maxSettleTicks bounds how long a one-shot command lets the simulation
// run after a load.
const maxSettleTicks = 1000

// viewFlags are the view controls shared by the one-shot commands.
type viewFlags struct {
	layout    string
	query     string
	selectID  string
	neighbors bool
	theme     string
	noCache   bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.layout, "layout", "l", "", "layout: force, tree, circle, grid (default from config)")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "keep nodes matching the query and their neighbors")
	cmd.Flags().StringVarP(&f.selectID, "select", "s", "", "select the node with this id")
	cmd.Flags().BoolVarP(&f.neighbors, "neighbors", "n", false, "show only the selected node and its neighbors")
	cmd.Flags().StringVar(&f.theme, "theme", "", "color theme: light, dark (default from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the graph cache")

	kinds := make([]string, 0, len(layout.Kinds()))
	for _, k := range layout.Kinds() {
		kinds = append(kinds, string(k))
	}
	_ = cmd.RegisterFlagCompletionFunc("layout", cobra.FixedCompletions(kinds, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("theme", cobra.FixedCompletions([]string{config.ThemeLight, config.ThemeDark}, cobra.ShellCompDirectiveNoFileComp))
}

// session is a one-shot engine on a manual scheduler and a headless
// renderer. Everything runs on the caller's goroutine.
type session struct {
	engine   *engine.Engine
	sched    *scheduler.Manual
	renderer *headless.Renderer
	settle   time.Duration
	cleanup  func()
}

type sessionOptions struct {
	noCache bool
	layout  string
	actions interaction.Actions
	src     source.Source
}

// openSession builds an engine from the configuration, loads the graph and
// lets the layout settle.
func (c *CLI) openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg := c.config()

	src, cleanup := opts.src, func() {}
	if src == nil {
		var err error
		if src, cleanup, err = c.newSource(ctx, opts.noCache); err != nil {
			return nil, err
		}
	}

	name := cfg.Layout.Kind
	if opts.layout != "" {
		name = opts.layout
	}
	kind, err := layout.ParseKind(name)
	if err != nil {
		cleanup()
		return nil, err
	}
	settle := cfg.Engine.SettleDelay.Duration
	if settle <= 0 {
		settle = engine.DefaultSettleDelay
	}
	palette := cfg.Palette()
	sched := scheduler.NewManual()
	r := headless.New(headless.WithZoomConstructed())

	e, err := engine.New(engine.Options{
		Source:          src,
		Scheduler:       sched,
		Renderer:        r,
		Layout:          kind,
		Optimizer:       cfg.Optimizer,
		Palette:         &palette,
		Editor:          cfg.User.Editor,
		Actions:         opts.actions,
		SettleDelay:     settle,
		InstallInterval: cfg.Camera.InstallInterval.Duration,
		InstallAttempts: cfg.Camera.InstallAttempts,
		Logger:          c.Logger.WithPrefix("engine"),
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	s := &session{
		engine:   e,
		sched:    sched,
		renderer: r,
		settle:   settle,
		cleanup:  cleanup,
	}
	e.Start()
	sched.Flush()

	spin := newSpinnerWithContext(ctx, "Loading graph...")
	spin.Start()
	prog := newProgress(c.Logger)
	err = e.Load(ctx)
	spin.Stop()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.run()
	prog.done("graph loaded", "nodes", e.Status().Total, "source", cfg.Source.Kind)
	return s, nil
}

// run drains pending work and steps the simulation until it stops.
func (s *session) run() {
	s.sched.Flush()
	s.sched.Frame()
	s.sched.Advance(s.settle)
	for i := 0; i < maxSettleTicks && s.renderer.Tick(); i++ {
	}
	s.sched.Flush()
}

// applyView sets the view controls from f.
func (c *CLI) applyView(s *session, f viewFlags) error {
	e := s.engine
	if f.theme != "" {
		p, err := c.palette(f.theme)
		if err != nil {
			return err
		}
		e.SetPalette(p)
	}
	if f.layout != "" {
		kind, err := layout.ParseKind(f.layout)
		if err != nil {
			return err
		}
		if err := e.SetLayout(kind); err != nil {
			return err
		}
	}
	if f.selectID != "" && !e.Select(graph.ID(f.selectID)) {
		return errs.New(errs.ErrCodeNotFound, "no node with id %q", f.selectID)
	}
	e.SetQuery(f.query)
	if f.neighbors {
		if f.selectID == "" {
			return errs.New(errs.ErrCodeInvalidInput, "--neighbors needs --select")
		}
		e.SetNeighborsOnly(true)
	}
	s.run()
	return nil
}

// palette resolves a theme name with the configured color overrides.
func (c *CLI) palette(theme string) (style.Palette, error) {
	switch theme {
	case config.ThemeLight, config.ThemeDark:
		return style.PaletteFor(c.config().Theme.Tokens, theme == config.ThemeDark), nil
	}
	return style.Palette{}, errs.New(errs.ErrCodeInvalidInput, "unknown theme %q (want light or dark)", theme)
}

// Close stops the engine and releases the source.
func (s *session) Close() {
	s.engine.Close()
	s.sched.Flush()
	s.cleanup()
}
