package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dogeow/wikigraph/pkg/engine"
	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/interaction"
	"github.com/dogeow/wikigraph/pkg/layout"
	"github.com/dogeow/wikigraph/pkg/render/headless"
	"github.com/dogeow/wikigraph/pkg/scheduler"
)

// tickInterval paces the simulation and the refresh of the view.
const tickInterval = 100 * time.Millisecond

// =============================================================================
// Command
// =============================================================================

func (c *CLI) exploreCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "explore [graph.json]",
		Short: "Explore the graph in the terminal",
		Long: `Explore the graph interactively in the terminal.

Search, select nodes, switch layouts and narrow the view to a node's
neighbors, with the same engine the browser viewer uses. Press ? for keys.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runExplore(cmd.Context(), input, noCache)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the graph cache")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input string, noCache bool) error {
	cfg := c.config()

	src := fileSource(input)
	cleanup := func() {}
	if src == nil {
		var err error
		if src, cleanup, err = c.newSource(ctx, noCache); err != nil {
			return err
		}
	}
	defer cleanup()

	kind, err := layout.ParseKind(cfg.Layout.Kind)
	if err != nil {
		return err
	}

	// The engine runs on its own loop; the model reaches it through Do.
	opened := &openedNode{}
	loop := scheduler.NewLoop(scheduler.WithLogger(c.Logger.WithPrefix("scheduler")))
	r := headless.New(headless.WithZoomConstructed())
	palette := cfg.Palette()
	e, err := engine.New(engine.Options{
		Source:    src,
		Scheduler: loop,
		Renderer:  r,
		Layout:    kind,
		Optimizer: cfg.Optimizer,
		Palette:   &palette,
		Editor:    cfg.User.Editor,
		Actions: interaction.Actions{
			OpenEditor:  func(n *graph.Node) { opened.editor = n.Title },
			OpenArticle: func(slug string) { opened.article = slug },
		},
		SettleDelay:     cfg.Engine.SettleDelay.Duration,
		InstallInterval: cfg.Camera.InstallInterval.Duration,
		InstallAttempts: cfg.Camera.InstallAttempts,
		Logger:          c.Logger.WithPrefix("engine"),
	})
	if err != nil {
		return err
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loopDone
	}()
	loop.Post(e.Start)

	// Logs would tear the alternate screen.
	level := c.Logger.GetLevel()
	c.Logger.SetLevel(log.FatalLevel)
	defer c.Logger.SetLevel(level)

	m := newExploreModel(ctx, e, r, opened)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = e.Do(closeCtx, e.Close)
	return err
}

// openedNode records what a right click opened. It is written on the
// engine loop and read after Do returns.
type openedNode struct {
	article string
	editor  string
}

// =============================================================================
// Keys
// =============================================================================

type exploreKeys struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Open      key.Binding
	Deselect  key.Binding
	Search    key.Binding
	Neighbors key.Binding
	Layout    key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var defaultExploreKeys = exploreKeys{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
	Open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
	Deselect:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Neighbors: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "neighbors only")),
	Layout:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "next layout")),
	ZoomIn:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
	Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k exploreKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Search, k.Neighbors, k.Layout, k.Help, k.Quit}
}

func (k exploreKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Open, k.Deselect},
		{k.Search, k.Neighbors, k.Layout},
		{k.ZoomIn, k.ZoomOut, k.Reload, k.Help, k.Quit},
	}
}

// =============================================================================
// Model
// =============================================================================

type (
	tickMsg   time.Time
	loadedMsg struct{ err error }
)

type exploreModel struct {
	ctx      context.Context
	engine   *engine.Engine
	renderer *headless.Renderer
	opened   *openedNode

	keys   exploreKeys
	help   help.Model
	search textinput.Model

	nodes     []*graph.Node
	neighbors graph.IDSet
	links     int
	status    engine.Status
	zoom      float64

	cursor, offset, height int
	message                string
	err                    error
}

func newExploreModel(ctx context.Context, e *engine.Engine, r *headless.Renderer, opened *openedNode) exploreModel {
	search := textinput.New()
	search.Placeholder = "search titles, slugs and tags"
	search.Prompt = "/ "
	search.CharLimit = 120

	return exploreModel{
		ctx:      ctx,
		engine:   e,
		renderer: r,
		opened:   opened,
		keys:     defaultExploreKeys,
		help:     help.New(),
		search:   search,
		height:   15,
		zoom:     1,
		message:  "Loading graph...",
	}
}

func (m exploreModel) Init() tea.Cmd {
	return tea.Batch(m.load(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// load fetches the graph off the UI goroutine.
func (m exploreModel) load() tea.Cmd {
	return func() tea.Msg { return loadedMsg{err: m.engine.Load(m.ctx)} }
}

// do runs fn on the engine loop, then copies the state the view needs.
func (m *exploreModel) do(fn func()) {
	err := m.engine.Do(m.ctx, func() {
		if fn != nil {
			fn()
		}
		m.renderer.Tick()
		view := m.engine.View().Clone()
		m.nodes = view.Nodes
		m.links = len(view.Links)
		m.neighbors = m.engine.Machine().Neighbors()
		m.status = m.engine.Status()
		m.zoom = m.renderer.ZoomScale()
	})
	if err != nil {
		m.err = err
	}
	m.clampCursor()
}

func (m *exploreModel) clampCursor() {
	if m.cursor >= len(m.nodes) {
		m.cursor = len(m.nodes) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m exploreModel) current() *graph.Node {
	if m.cursor < len(m.nodes) {
		return m.nodes[m.cursor]
	}
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
		m.help.Width = msg.Width
		m.clampCursor()
		return m, nil

	case tickMsg:
		m.do(nil)
		return m, tick()

	case loadedMsg:
		m.err = msg.err
		m.message = ""
		m.do(nil)
		if msg.err == nil {
			m.message = fmt.Sprintf("Loaded %d nodes", m.status.Total)
		}
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m exploreModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "ctrl+c":
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	query := m.search.Value()
	m.do(func() { m.engine.SetQuery(query) })
	m.cursor, m.offset = 0, 0
	return m, cmd
}

func (m exploreModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message, m.err = "", nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.cursor--
		m.clampCursor()

	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()

	case key.Matches(msg, m.keys.Select):
		if n := m.current(); n != nil {
			id := n.ID
			m.do(func() { m.renderer.Click(id) })
		}

	case key.Matches(msg, m.keys.Open):
		if n := m.current(); n != nil {
			id := n.ID
			*m.opened = openedNode{}
			m.do(func() { m.renderer.RightClick(id) })
			switch {
			case m.opened.editor != "":
				m.message = "Editing " + m.opened.editor
			case m.opened.article != "":
				m.message = "Article: /wiki/" + m.opened.article
			default:
				m.message = "This node has no article"
			}
		}

	case key.Matches(msg, m.keys.Deselect):
		m.do(m.engine.Deselect)

	case key.Matches(msg, m.keys.Search):
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Neighbors):
		on := !m.status.NeighborsOnly
		m.do(func() { m.engine.SetNeighborsOnly(on) })
		if on && m.status.Active == "" {
			m.message = "Select a node to see its neighbors"
		}

	case key.Matches(msg, m.keys.Layout):
		next := nextLayout(m.status.Layout)
		m.do(func() { m.err = m.engine.SetLayout(next) })
		m.message = "Layout: " + string(next)

	case key.Matches(msg, m.keys.ZoomIn):
		m.do(func() { m.renderer.Wheel(1.25) })

	case key.Matches(msg, m.keys.ZoomOut):
		m.do(func() { m.renderer.Wheel(0.8) })

	case key.Matches(msg, m.keys.Reload):
		m.message = "Reloading..."
		return m, m.load()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// nextLayout cycles through the layout kinds.
func nextLayout(k layout.Kind) layout.Kind {
	kinds := layout.Kinds()
	for i, kind := range kinds {
		if kind == k {
			return kinds[(i+1)%len(kinds)]
		}
	}
	return kinds[0]
}

// =============================================================================
// View
// =============================================================================

var (
	exploreCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreNormalStyle = lipgloss.NewStyle().Foreground(colorWhite)
)

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("wikigraph"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  zoom %.2f", m.zoom)))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	if len(m.nodes) == 0 {
		b.WriteString(StyleDim.Render("  no nodes"))
		b.WriteString("\n")
	}
	end := min(m.offset+m.height, len(m.nodes))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusLine(m.status, m.links))
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error())
	case m.message != "":
		b.WriteString(styleIconInfo.Render(iconInfo) + " " + m.message)
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m exploreModel) renderRow(i int) string {
	n := m.nodes[i]
	marker := "  "
	if i == m.cursor {
		marker = "▸ "
	}
	pos := ""
	if x, y, ok := n.Position(); ok {
		pos = fmt.Sprintf("(%.0f, %.0f)", x, y)
	}
	line := fmt.Sprintf("%s%-32s %s", marker, n.Title, StyleDim.Render(string(n.ID)+" "+pos))

	switch {
	case n.ID == m.status.Active:
		return styleActive.Render(line)
	case m.neighbors.Has(n.ID):
		return styleNeighbor.Render(line)
	case i == m.cursor:
		return exploreCursorStyle.Render(line)
	}
	return exploreNormalStyle.Render(line)
}
