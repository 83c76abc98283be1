package widget

import (
	"errors"

	"hwpanel-go/types"
)

type entry struct {
	w    Widget
	rect types.Rect
}

// Manager owns a screen's widgets. Insertion order is paint order, so
// later widgets are on top and see touches first.
type Manager struct {
	ctx     Context
	entries []entry
}

func NewManager(ctx Context) *Manager {
	return &Manager{ctx: ctx}
}

// Add takes ownership of w and caches its rectangle.
func (m *Manager) Add(w Widget) {
	if w == nil {
		return
	}
	m.entries = append(m.entries, entry{w: w, rect: w.Rect()})
}

func (m *Manager) Len() int { return len(m.entries) }

// InitializeWidgets initialises and force-draws every widget. The caller
// must hold the display lock. Failing widgets end in StateError and do
// not stop the others.
func (m *Manager) InitializeWidgets() error {
	var errs []error
	for _, e := range m.entries {
		if err := e.w.Initialize(m.ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		e.w.Draw(true)
	}
	return errors.Join(errs...)
}

// UpdateAndDraw draws every READY widget.
func (m *Manager) UpdateAndDraw(force bool) {
	for _, e := range m.entries {
		if e.w.State() != StateReady {
			continue
		}
		e.w.Draw(force)
	}
}

// HandleTouch offers (x, y) to widgets topmost first and stops at the
// first one that consumes it.
func (m *Manager) HandleTouch(x, y int16) bool {
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if !e.rect.Contains(x, y) {
			continue
		}
		if e.w.HandleTouch(x, y) {
			return true
		}
	}
	return false
}

// Cleanup releases every widget and empties the manager.
func (m *Manager) Cleanup() {
	for _, e := range m.entries {
		e.w.Cleanup()
	}
	m.entries = nil
}
