package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dogeow/wikigraph/pkg/camera"
	errs "github.com/dogeow/wikigraph/pkg/errors"
	"github.com/dogeow/wikigraph/pkg/filter"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/interaction"
	"github.com/dogeow/wikigraph/pkg/layout"
	"github.com/dogeow/wikigraph/pkg/observability"
	"github.com/dogeow/wikigraph/pkg/optimize"
	"github.com/dogeow/wikigraph/pkg/render"
	"github.com/dogeow/wikigraph/pkg/render/style"
	"github.com/dogeow/wikigraph/pkg/scheduler"
	"github.com/dogeow/wikigraph/pkg/source"
	"github.com/dogeow/wikigraph/pkg/store"
)

// Timing defaults.
const (
	DefaultSettleDelay = 100 * time.Millisecond

	// Cooldown hints handed to the simulation: neighbor views are small
	// and settle faster.
	NeighborsCooldown = 2000 * time.Millisecond
	DefaultCooldown   = 3000 * time.Millisecond
)

// Invalidator is implemented by sources that cache, such as
// [source.Cached].
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Options configures an [Engine].
type Options struct {
	Source    source.Source
	Scheduler scheduler.Scheduler
	// Renderer may be nil and attached later with [Engine.Attach].
	Renderer render.Renderer

	Layout    layout.Kind
	Optimizer optimize.Options
	Palette   *style.Palette

	// Editor grants the node editor on right click.
	Editor  bool
	Actions interaction.Actions

	// SettleDelay is the pause between the first frame after a load and
	// the reheat that lets the simulation settle.
	SettleDelay time.Duration

	InstallInterval time.Duration
	InstallAttempts int

	// OnChange runs on the scheduler after every published view.
	OnChange func()

	Logger *log.Logger
}

// Engine is the graph engine. See the package documentation for which
// methods may be called from where.
type Engine struct {
	opts   Options
	sched  scheduler.Scheduler
	logger *log.Logger

	store     *store.Store
	adapter   *render.Adapter
	layouts   *layout.Manager
	optimizer *optimize.Optimizer
	machine   *interaction.Machine
	camera    *camera.Controller
	installer *camera.Installer
	styler    *style.Styler

	// snap is the last snapshot committed on the scheduler. The store may
	// already hold a newer one that has not been laid out yet.
	snap          *graph.Snapshot
	query         string
	neighborsOnly bool
	view          *graph.Snapshot

	pendingRestore scheduler.CancelFunc
	pendingSettle  scheduler.CancelFunc
	committing     bool
	started        bool
	closed         bool
}

var _ render.Events = (*Engine)(nil)

// New assembles an engine. Nothing touches the renderer until
// [Engine.Start].
func New(opts Options) (*Engine, error) {
	if opts.Scheduler == nil {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "engine needs a scheduler")
	}
	if opts.Source == nil {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "engine needs a graph source")
	}
	if opts.Layout == "" {
		opts.Layout = layout.Force
	}
	if _, err := layout.ParseKind(string(opts.Layout)); err != nil {
		return nil, err
	}
	if opts.Optimizer == (optimize.Options{}) {
		opts.Optimizer = optimize.DefaultOptions()
	}
	if err := opts.Optimizer.Validate(); err != nil {
		return nil, err
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	e := &Engine{
		opts:   opts,
		sched:  opts.Scheduler,
		logger: logger,
		snap:   graph.Empty(),
		view:   graph.Empty(),
	}
	e.store = store.New(opts.Source, logger.WithPrefix("store"))
	e.adapter = render.NewAdapter(logger.WithPrefix("render"))
	e.layouts = layout.NewManager(opts.Layout, e.adapter, logger.WithPrefix("layout"))
	e.optimizer = optimize.New(opts.Optimizer, logger.WithPrefix("optimize"))
	e.camera = camera.NewController(e.adapter, logger.WithPrefix("camera"))
	e.installer = camera.NewInstaller(e.adapter, e.sched, opts.InstallInterval, opts.InstallAttempts, logger.WithPrefix("camera"))
	e.machine = interaction.New(interaction.Options{
		Animation: e.adapter,
		Actions:   opts.Actions,
		Editor:    opts.Editor,
		OnClick:   e.scheduleRestore,
		Logger:    logger.WithPrefix("interaction"),
	})
	e.machine.OnTransition(e.onTransition)

	palette := style.Light()
	if opts.Palette != nil {
		palette = *opts.Palette
	}
	e.styler = style.New(palette, e.machine)

	e.store.Subscribe(func(s *graph.Snapshot) {
		e.sched.Post(func() { e.commit(s) })
	})
	if opts.Renderer != nil {
		e.adapter.Attach(opts.Renderer)
	}
	return e, nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Start binds the renderer, hands it the styler and begins installing the
// gesture guard. Scheduler only.
func (e *Engine) Start() {
	if e.started || e.closed {
		return
	}
	e.started = true
	e.bindRenderer()
	e.installer.Start()
	e.publish()
}

// Attach swaps the renderer. The new renderer receives the current view.
// Scheduler only.
func (e *Engine) Attach(r render.Renderer) {
	e.installer.Close()
	e.adapter.Attach(r)
	e.installer = camera.NewInstaller(e.adapter, e.sched, e.opts.InstallInterval, e.opts.InstallAttempts, e.logger.WithPrefix("camera"))
	if e.started && !e.closed {
		e.bindRenderer()
		e.installer.Start()
		_ = e.adapter.SetGraphData(e.view)
	}
}

func (e *Engine) bindRenderer() {
	_ = e.adapter.Bind(e)
	_ = e.adapter.SetStyler(e.styler)
}

// Close cancels pending timers and restores the zoom filter. Scheduler
// only.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.installer.Close()
	for _, c := range []scheduler.CancelFunc{e.pendingRestore, e.pendingSettle} {
		if c != nil {
			c()
		}
	}
	e.pendingRestore, e.pendingSettle = nil, nil
}

// =============================================================================
// Loading
// =============================================================================

// Load fetches the graph and commits it. It blocks on the network and
// must not run on the scheduler when the scheduler is a [scheduler.Loop].
// The refresh that follows a successful load is posted to the scheduler.
// A load overtaken by a newer one reports success: the newer data wins.
func (e *Engine) Load(ctx context.Context) error {
	err := e.store.Load(ctx)
	if errors.Is(err, store.ErrSuperseded) {
		return nil
	}
	return err
}

// Mutate runs fn (typically a [source.Client] call), drops any cached
// graph document and reloads. The loaded graph is never patched in place.
func (e *Engine) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	if inv, ok := e.opts.Source.(Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			e.logger.Warn("cache invalidation failed", "err", err)
		}
	}
	return e.Load(ctx)
}

// commit runs on the scheduler after the store replaced its snapshot.
func (e *Engine) commit(s *graph.Snapshot) {
	if e.closed || s != e.store.Snapshot() {
		return
	}
	e.committing = true
	e.machine.Reconcile(s)
	e.committing = false
	e.machine.SetLinks(s.Links)
	e.layouts.Apply(s)
	e.snap = s
	e.publish()
	e.settle()
}

// settle lets the renderer take the new data for a frame, then wakes the
// simulation after a short delay.
func (e *Engine) settle() {
	if e.pendingSettle != nil {
		e.pendingSettle()
	}
	var cancelTimer scheduler.CancelFunc
	cancelFrame := e.sched.RequestFrame(func() {
		cancelTimer = e.sched.After(e.opts.SettleDelay, func() {
			e.pendingSettle = nil
			_ = e.adapter.Wake()
		})
	})
	e.pendingSettle = func() {
		cancelFrame()
		if cancelTimer != nil {
			cancelTimer()
		}
	}
}

// =============================================================================
// Pipeline
// =============================================================================

// publish runs filter and optimizer over the committed snapshot and hands
// the result to the renderer.
func (e *Engine) publish() {
	start := time.Now()
	snap := e.snap
	filtered := filter.Apply(snap, e.query, e.neighborsOnly, e.machine.Active())
	e.view = e.optimizer.Run(filtered)
	_ = e.adapter.SetGraphData(e.view)

	stats := observability.PipelineStats{
		Layout:   string(e.layouts.Kind()),
		Input:    len(snap.Nodes),
		Visible:  len(e.view.Nodes),
		Degraded: e.optimizer.Warning(),
	}
	observability.Engine().OnPipeline(stats, time.Since(start))
	e.logger.Debug("view published", "nodes", stats.Visible, "of", stats.Input, "links", len(e.view.Links))
	if e.opts.OnChange != nil {
		e.opts.OnChange()
	}
}

// SetQuery changes the search query. A non-blank query leaves
// neighbors-only mode. Scheduler only.
func (e *Engine) SetQuery(q string) {
	if q == e.query {
		return
	}
	e.query = q
	if strings.TrimSpace(q) != "" {
		e.neighborsOnly = false
	}
	e.publish()
}

// SetNeighborsOnly toggles the neighbor view. It has no visible effect
// until a node is selected. Scheduler only.
func (e *Engine) SetNeighborsOnly(on bool) {
	if on == e.neighborsOnly {
		return
	}
	e.neighborsOnly = on
	e.publish()
}

// SetLayout switches the layout algorithm and reheats the simulation.
// Scheduler only.
func (e *Engine) SetLayout(kind layout.Kind) error {
	if _, err := e.layouts.Switch(kind, e.snap); err != nil {
		return err
	}
	e.publish()
	return nil
}

// SetEditor grants or revokes the editor capability. Scheduler only.
func (e *Engine) SetEditor(editor bool) { e.machine.SetEditor(editor) }

// SetPalette restyles the graph, for example after a theme change.
// Scheduler only.
func (e *Engine) SetPalette(p style.Palette) {
	e.styler.SetPalette(p)
	_ = e.adapter.SetStyler(e.styler)
}

// Select makes the node with the given id active. Scheduler only.
func (e *Engine) Select(id graph.ID) bool {
	n := e.snap.Node(id)
	if n == nil {
		return false
	}
	e.machine.Select(n)
	return true
}

// Deselect clears the selection, which also leaves neighbors-only mode.
// Scheduler only.
func (e *Engine) Deselect() { e.machine.Deselect() }

func (e *Engine) onTransition(t interaction.Transition) {
	if t.Prev != nil && e.machine.Active() == nil {
		e.neighborsOnly = false
	}
	if e.committing || sameNode(t.Prev, e.machine.Active()) {
		return
	}
	e.publish()
}

func sameNode(a, b *graph.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// =============================================================================
// Camera
// =============================================================================

// scheduleRestore replays the camera on the next frame, undoing any jump
// the renderer makes while handling the click. A restore already pending
// is kept, so a double click restores the view from before the first.
func (e *Engine) scheduleRestore() {
	if e.pendingRestore != nil {
		return
	}
	st := e.camera.State()
	e.pendingRestore = e.sched.RequestFrame(func() {
		e.pendingRestore = nil
		e.camera.RestoreTo(st)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// View returns the snapshot last handed to the renderer. Scheduler only.
func (e *Engine) View() *graph.Snapshot { return e.view }

// Query returns the search query. Scheduler only.
func (e *Engine) Query() string { return e.query }

// NeighborsOnly reports whether the neighbor view is on. Scheduler only.
func (e *Engine) NeighborsOnly() bool { return e.neighborsOnly }

// Layout returns the current layout kind. Scheduler only.
func (e *Engine) Layout() layout.Kind { return e.layouts.Kind() }

// Degraded reports whether the graph exceeds the display limit and was
// truncated. Scheduler only.
func (e *Engine) Degraded() bool { return e.optimizer.Warning() }

// Dropped returns how many nodes the optimizer removed. Scheduler only.
func (e *Engine) Dropped() int { return e.optimizer.Dropped() }

// CooldownTime is the simulation cooldown hint for the current view.
// Scheduler only.
func (e *Engine) CooldownTime() time.Duration {
	if e.neighborsOnly {
		return NeighborsCooldown
	}
	return DefaultCooldown
}

// Loading reports whether a load is in flight. Safe from any goroutine.
func (e *Engine) Loading() bool { return e.store.Loading() }

// Store returns the data store. Safe from any goroutine.
func (e *Engine) Store() *store.Store { return e.store }

// Machine returns the interaction machine. Scheduler only.
func (e *Engine) Machine() *interaction.Machine { return e.machine }

// Camera returns the camera controller. Scheduler only.
func (e *Engine) Camera() *camera.Controller { return e.camera }

// GuardInstalled reports whether the gesture guard is active. Scheduler
// only.
func (e *Engine) GuardInstalled() bool { return e.installer.Installed() }

// Adapter returns the render adapter. Scheduler only.
func (e *Engine) Adapter() *render.Adapter { return e.adapter }

// Styler returns the styler handed to the renderer. Scheduler only.
func (e *Engine) Styler() *style.Styler { return e.styler }

// Status summarizes the engine for status lines and the HTTP API.
type Status struct {
	Layout        layout.Kind   `json:"layout"`
	Query         string        `json:"query"`
	NeighborsOnly bool          `json:"neighbors_only"`
	Active        graph.ID      `json:"active,omitempty"`
	Hover         graph.ID      `json:"hover,omitempty"`
	State         string        `json:"state"`
	Total         int           `json:"total"`
	Visible       int           `json:"visible"`
	Degraded      bool          `json:"degraded"`
	Dropped       int           `json:"dropped"`
	Malformed     int           `json:"malformed"`
	Loading       bool          `json:"loading"`
	Guarded       bool          `json:"guarded"`
	Cooldown      time.Duration `json:"cooldown"`
}

// Status returns the current status. Scheduler only.
func (e *Engine) Status() Status {
	st := Status{
		Layout:        e.Layout(),
		Query:         e.query,
		NeighborsOnly: e.neighborsOnly,
		State:         e.machine.State().String(),
		Total:         len(e.snap.Nodes),
		Visible:       len(e.view.Nodes),
		Degraded:      e.Degraded(),
		Dropped:       e.Dropped(),
		Malformed:     e.store.Malformed(),
		Loading:       e.Loading(),
		Guarded:       e.GuardInstalled(),
		Cooldown:      e.CooldownTime(),
	}
	if n := e.machine.Active(); n != nil {
		st.Active = n.ID
	}
	if n := e.machine.Hover(); n != nil {
		st.Hover = n.ID
	}
	return st
}

// =============================================================================
// Cross-goroutine access
// =============================================================================

// Do runs fn on the scheduler and waits for it to finish.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	e.sched.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Export returns a deep copy of the current view, positions included.
// Safe from any goroutine.
func (e *Engine) Export(ctx context.Context) (*graph.Snapshot, error) {
	var out *graph.Snapshot
	if err := e.Do(ctx, func() { out = e.view.Clone() }); err != nil {
		return nil, err
	}
	return out, nil
}
