package layout

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/dogeow/wikigraph/pkg/graph"
)

// Waker asks the renderer to reheat and resume. [render.Adapter] implements it.
type Waker interface {
	Wake() error
}

// Manager holds the current layout kind and applies it to snapshots.
type Manager struct {
	kind   Kind
	waker  Waker
	logger *log.Logger
}

// NewManager creates a manager. A nil waker skips the reheat after a switch.
func NewManager(kind Kind, waker Waker, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if _, err := ParseKind(string(kind)); err != nil {
		kind = Force
	}
	return &Manager{kind: kind, waker: waker, logger: logger}
}

// Kind returns the current layout kind.
func (m *Manager) Kind() Kind { return m.kind }

// Apply lays out s with the current kind.
func (m *Manager) Apply(s *graph.Snapshot) *graph.Snapshot {
	return Apply(s, m.kind)
}

// Switch changes the layout kind, applies it to s and requests a reheat.
// It reports whether the kind changed.
func (m *Manager) Switch(kind Kind, s *graph.Snapshot) (bool, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return false, err
	}
	changed := kind != m.kind
	m.kind = kind
	if s != nil {
		Apply(s, kind)
	}
	m.logger.Debug("layout applied", "kind", kind, "changed", changed)
	if m.waker != nil {
		// Failures are logged by the render adapter.
		_ = m.waker.Wake()
	}
	return changed, nil
}
