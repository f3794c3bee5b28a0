package interaction

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/dogeow/wikigraph/pkg/graph"
	"github.com/dogeow/wikigraph/pkg/render/style"
)

// State is the selection state of a [Machine].
type State int

const (
	Idle State = iota
	Active
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Dragging:
		return "dragging"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Animation is the part of the render adapter the machine drives.
type Animation interface {
	Wake() error
	PauseAnimation() error
}

// Actions are the side channels opened by a right click. Either may be nil.
type Actions struct {
	OpenEditor  func(n *graph.Node)
	OpenArticle func(slug string)
}

// Transition describes a state change. Node is the node the triggering
// event was about; Prev is the active node before the change. A selection
// change during a drag is reported with From and To both Dragging.
type Transition struct {
	From State
	To   State
	Node *graph.Node
	Prev *graph.Node
}

// Options configures a [Machine].
type Options struct {
	Animation Animation
	Actions   Actions
	// Editor grants the node editor on right click.
	Editor bool
	// OnClick runs after every click, once the selection has changed. The
	// engine uses it to schedule a camera restore.
	OnClick func()
	Logger  *log.Logger
}

// Machine is the interaction state machine. It is not safe for concurrent
// use; the engine drives it from its scheduler.
type Machine struct {
	opts   Options
	logger *log.Logger

	state  State
	active *graph.Node
	hover  *graph.Node

	links     []*graph.Link
	neighbors graph.IDSet

	observers []func(Transition)
}

var _ style.Highlight = (*Machine)(nil)

// New creates an idle machine.
func New(opts Options) *Machine {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Machine{opts: opts, logger: logger}
}

// OnTransition registers fn to run after every state change.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.observers = append(m.observers, fn)
}

// SetEditor grants or revokes the editor capability.
func (m *Machine) SetEditor(editor bool) { m.opts.Editor = editor }

// SetLinks replaces the links neighbors are computed from.
func (m *Machine) SetLinks(links []*graph.Link) {
	m.links = links
	m.neighbors = nil
}

func (m *Machine) State() State        { return m.state }
func (m *Machine) Active() *graph.Node { return m.active }
func (m *Machine) Hover() *graph.Node  { return m.hover }

// Neighbors returns the active node and its direct neighbors, or an empty
// set when nothing is selected.
func (m *Machine) Neighbors() graph.IDSet {
	if m.active == nil {
		return graph.NewIDSet()
	}
	if m.neighbors == nil {
		m.neighbors = graph.NeighborIDs(m.links, m.active.ID)
	}
	return m.neighbors
}

// Click toggles the selection: clicking the active node deselects it,
// clicking any other node selects it.
func (m *Machine) Click(n *graph.Node) {
	if n == nil {
		return
	}
	if m.active != nil && m.active.ID == n.ID {
		m.setActive(nil, n)
	} else {
		m.setActive(n, n)
	}
	if m.opts.OnClick != nil {
		m.opts.OnClick()
	}
}

// Deselect clears the selection.
func (m *Machine) Deselect() {
	if m.active != nil {
		m.setActive(nil, nil)
	}
}

// Select makes n the active node.
func (m *Machine) Select(n *graph.Node) {
	if n != nil {
		m.setActive(n, n)
	}
}

// PointerEnter sets the hovered node. A nil node clears it.
func (m *Machine) PointerEnter(n *graph.Node) { m.hover = n }

// PointerLeave clears the hovered node if it is n.
func (m *Machine) PointerLeave(n *graph.Node) {
	if m.hover != nil && (n == nil || m.hover.ID == n.ID) {
		m.hover = nil
	}
}

// DragStart enters Dragging and wakes the simulation so the dragged node
// can move. Repeated drag events while dragging only record the node.
func (m *Machine) DragStart(n *graph.Node) {
	if m.state == Dragging {
		return
	}
	m.transition(Dragging, n, m.active)
	m.safe("wake", func() error { return m.animation().Wake() })
}

// DragEnd leaves Dragging. The simulation keeps running until it cools
// down on its own.
func (m *Machine) DragEnd(n *graph.Node) {
	if m.state != Dragging {
		return
	}
	m.transition(m.restingState(), n, m.active)
}

// EngineStopped pauses animation once the simulation has cooled down.
func (m *Machine) EngineStopped() {
	m.safe("pauseAnimation", func() error { return m.animation().PauseAnimation() })
}

// RightClick selects n and opens the editor if the user may edit, or the
// node's article otherwise. Nodes without a slug have no article.
func (m *Machine) RightClick(n *graph.Node) {
	if n == nil {
		return
	}
	if m.active == nil || m.active.ID != n.ID {
		m.setActive(n, n)
	}
	switch {
	case m.opts.Editor:
		if m.opts.Actions.OpenEditor != nil {
			m.opts.Actions.OpenEditor(n)
		}
	case n.Slug != "":
		if m.opts.Actions.OpenArticle != nil {
			m.opts.Actions.OpenArticle(n.Slug)
		}
	}
}

// Reconcile re-points the active and hovered nodes at their counterparts
// in a freshly loaded snapshot, dropping them if they are gone.
func (m *Machine) Reconcile(s *graph.Snapshot) {
	if m.hover != nil {
		m.hover = s.Node(m.hover.ID)
	}
	if m.active == nil {
		return
	}
	if n := s.Node(m.active.ID); n != nil {
		m.active = n
		m.neighbors = nil
		return
	}
	m.setActive(nil, nil)
}

func (m *Machine) setActive(n, trigger *graph.Node) {
	prev := m.active
	m.active = n
	m.neighbors = nil
	if m.state == Dragging {
		m.transition(Dragging, trigger, prev)
		return
	}
	m.transition(m.restingState(), trigger, prev)
}

func (m *Machine) restingState() State {
	if m.active != nil {
		return Active
	}
	return Idle
}

func (m *Machine) transition(to State, n, prev *graph.Node) {
	t := Transition{From: m.state, To: to, Node: n, Prev: prev}
	m.state = to
	m.logger.Debug("transition", "from", t.From, "to", t.To, "node", nodeID(n))
	for _, fn := range m.observers {
		fn(t)
	}
}

func (m *Machine) animation() Animation {
	if m.opts.Animation == nil {
		return noAnimation{}
	}
	return m.opts.Animation
}

// safe runs a renderer call, logging errors and panics.
func (m *Machine) safe(op string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			m.logger.Warn("renderer call panicked", "op", op, "panic", p)
		}
	}()
	if err := fn(); err != nil {
		m.logger.Debug("renderer call failed", "op", op, "err", err)
	}
}

func nodeID(n *graph.Node) string {
	if n == nil {
		return ""
	}
	return n.ID.String()
}

type noAnimation struct{}

func (noAnimation) Wake() error           { return nil }
func (noAnimation) PauseAnimation() error { return nil }
