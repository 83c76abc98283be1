// bus.go
package bus

import (
	"sync"
)

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

// Action is a device-level action a widget can trigger.
// The set is closed; values outside it are ignored by the bus.
type Action uint8

const (
	ActionResetDevice Action = iota
	ActionShowBoot
	ActionShowMain
	ActionShowSettings
	ActionBrightnessUp
	ActionBrightnessDown
	ActionRefreshMetrics

	actionCount
)

var actionNames = [...]string{
	ActionResetDevice:    "reset_device",
	ActionShowBoot:       "show_boot",
	ActionShowMain:       "show_main",
	ActionShowSettings:   "show_settings",
	ActionBrightnessUp:   "brightness_up",
	ActionBrightnessDown: "brightness_down",
	ActionRefreshMetrics: "refresh_metrics",
}

func (a Action) String() string {
	if a < actionCount {
		return actionNames[a]
	}
	return "unknown"
}

// Valid reports whether a belongs to the closed action set.
func (a Action) Valid() bool { return a < actionCount }

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

// Bus maps each action to an ordered list of callbacks.
// Subscriptions live as long as the bus; there is no unsubscribe.
type Bus struct {
	mu   sync.RWMutex
	subs [actionCount][]func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe appends fn to the callbacks of a. Nil callbacks and unknown
// actions are ignored.
func (b *Bus) Subscribe(a Action, fn func()) {
	if fn == nil || !a.Valid() {
		return
	}
	b.mu.Lock()
	b.subs[a] = append(b.subs[a], fn)
	b.mu.Unlock()
}

// Publish runs every callback registered for a, in subscription order,
// on the caller's goroutine. The lock is not held while callbacks run.
func (b *Bus) Publish(a Action) {
	if !a.Valid() {
		return
	}
	b.mu.RLock()
	subs := b.subs[a]
	b.mu.RUnlock()

	// Append-only: the captured slice header stays valid after unlock.
	for _, fn := range subs {
		fn()
	}
}

// Subscribers returns the number of callbacks registered for a.
func (b *Bus) Subscribers(a Action) int {
	if !a.Valid() {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[a])
}
